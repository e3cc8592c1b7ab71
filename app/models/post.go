package models

import "time"

// Post is a forum post. In shared forum mode posts live in the primary
// database and carry the owning tenant's id; on an isolated branch the
// TenantID column is simply the branch owner's id for every row.
type Post struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TenantID        uint      `gorm:"index" json:"tenant_id"`
	AuthorProfileID uint      `gorm:"index" json:"author_profile_id"`
	Title           string    `gorm:"type:varchar(255)" json:"title"`
	Body            string    `gorm:"type:text" json:"body"`
	Pinned          bool      `gorm:"default:false" json:"pinned"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
