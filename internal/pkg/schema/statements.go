package schema

// BaselineStatements is the full additive schema for a tenant content
// database, applied to freshly provisioned branches and re-applied
// opportunistically before feature use. Order matters: tables first, then
// amendments and indexes. MySQL has no IF NOT EXISTS for ADD COLUMN or
// CREATE INDEX; those statements fail harmlessly on a converged schema and
// the engine swallows the error.
var BaselineStatements = []Statement{
	{
		Name: "create-profiles",
		SQL: `CREATE TABLE IF NOT EXISTS profiles (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			public_id VARCHAR(64) NOT NULL,
			display_name VARCHAR(150) NOT NULL DEFAULT '',
			bio TEXT,
			is_demo TINYINT(1) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY idx_profiles_public_id (public_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create-posts",
		SQL: `CREATE TABLE IF NOT EXISTS posts (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			tenant_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
			author_profile_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
			title VARCHAR(255) NOT NULL DEFAULT '',
			body TEXT,
			pinned TINYINT(1) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create-comments",
		SQL: `CREATE TABLE IF NOT EXISTS comments (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			post_id BIGINT UNSIGNED NOT NULL,
			author_profile_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
			body TEXT,
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create-points-ledger",
		SQL: `CREATE TABLE IF NOT EXISTS points_ledger (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			profile_id BIGINT UNSIGNED NOT NULL,
			delta INT NOT NULL,
			reason VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	{
		Name: "create-settings",
		SQL: `CREATE TABLE IF NOT EXISTS settings (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			tenant_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
			setting_key VARCHAR(255) NOT NULL,
			value TEXT,
			name VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT,
			type VARCHAR(50) NOT NULL DEFAULT 'string',
			created_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY idx_tenant_setting_key (tenant_id, setting_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},

	// Additive amendments to earlier table versions.
	{Name: "posts-add-pinned", SQL: `ALTER TABLE posts ADD COLUMN pinned TINYINT(1) NOT NULL DEFAULT 0`},
	{Name: "profiles-add-bio", SQL: `ALTER TABLE profiles ADD COLUMN bio TEXT`},
	{Name: "index-posts-tenant", SQL: `CREATE INDEX idx_posts_tenant_id ON posts (tenant_id)`},
	{Name: "index-posts-author", SQL: `CREATE INDEX idx_posts_author ON posts (author_profile_id)`},
	{Name: "index-comments-post", SQL: `CREATE INDEX idx_comments_post ON comments (post_id)`},
	{Name: "index-points-profile", SQL: `CREATE INDEX idx_points_profile ON points_ledger (profile_id)`},
}
