package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"github.com/yuleihq/branchsite/internal/pkg/cache"
)

// KeyDef describes one globally known setting key and its default.
type KeyDef struct {
	Key         string
	Default     string
	Name        string
	Description string
	Type        string
	// Strict keys never inherit the primary tenant's value: a missing row
	// on a non-zero tenant resolves to empty (or a per-tenant placeholder),
	// never to what tenant 0 configured for itself.
	Strict bool
}

const (
	KeySiteName        = "site_name"
	KeySiteLogo        = "site_logo"
	KeySiteDescription = "site_description"
	KeySeoTitle        = "seo_title"
	KeySeoDescription  = "seo_description"
	KeySeoKeywords     = "seo_keywords"
	KeySocialForumMode = "social_forum_mode"
	KeyPointsEnabled   = "points_enabled"
	KeyShopEnabled     = "shop_enabled"
	KeyPostsPerPage    = "posts_per_page"
	KeyAllowRegister   = "allow_registration"
)

// Defaults is the canonical key registry. Tenant 0 holds the default row for
// each of these.
var Defaults = []KeyDef{
	{Key: KeySiteName, Default: "BranchSite", Name: "Site name", Description: "Display name of the site", Type: "string", Strict: true},
	{Key: KeySiteLogo, Default: "", Name: "Site logo", Description: "Logo image URL", Type: "string", Strict: true},
	{Key: KeySiteDescription, Default: "", Name: "Site description", Description: "Short description shown in headers", Type: "string", Strict: true},
	{Key: KeySeoTitle, Default: "", Name: "SEO title", Description: "HTML title override", Type: "string", Strict: true},
	{Key: KeySeoDescription, Default: "", Name: "SEO description", Description: "Meta description", Type: "string", Strict: true},
	{Key: KeySeoKeywords, Default: "", Name: "SEO keywords", Description: "Meta keywords", Type: "string", Strict: true},
	{Key: KeySocialForumMode, Default: ForumModeShared, Name: "Forum mode", Description: "Whether forum content targets the shared or the isolated dataset", Type: "string"},
	{Key: KeyPointsEnabled, Default: "true", Name: "Points enabled", Description: "Enable the points subsystem", Type: "boolean"},
	{Key: KeyShopEnabled, Default: "false", Name: "Shop enabled", Description: "Enable the shop subsystem", Type: "boolean"},
	{Key: KeyPostsPerPage, Default: "20", Name: "Posts per page", Description: "Forum pagination size", Type: "integer"},
	{Key: KeyAllowRegister, Default: "true", Name: "Allow registration", Description: "Allow new user registration", Type: "boolean"},
}

// IsStrict reports whether the key is in the fixed strict set.
func IsStrict(key string) bool {
	for _, def := range Defaults {
		if def.Key == key {
			return def.Strict
		}
	}
	return false
}

// PlaceholderSiteName is the generated site name for a tenant that never set
// one explicitly.
func PlaceholderSiteName(tenantID uint) string {
	return fmt.Sprintf("分站 #%d", tenantID)
}

// Service resolves merged per-tenant configuration.
type Service struct {
	repo     repository.SettingRepository
	cacheTTL time.Duration // 0 disables the redis cache
}

// NewService creates an uncached settings service.
func NewService(repo repository.SettingRepository) *Service {
	return &Service{repo: repo}
}

// NewCachedService creates a settings service that caches resolved maps in
// redis for the given TTL.
func NewCachedService(repo repository.SettingRepository, ttl time.Duration) *Service {
	return &Service{repo: repo, cacheTTL: ttl}
}

func resolvedCacheKey(tenantID uint) string {
	return fmt.Sprintf("settings:resolved:%d", tenantID)
}

// Resolve returns the merged configuration for a tenant: registry defaults,
// overlaid with tenant-0 rows, strict keys reset for non-zero tenants, then
// overlaid with the tenant's own rows.
func (s *Service) Resolve(tenantID uint) (map[string]string, error) {
	if s.cacheTTL > 0 {
		if raw, err := cache.Get(resolvedCacheKey(tenantID)); err == nil && raw != "" {
			var cached map[string]string
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	resolved := make(map[string]string, len(Defaults))
	for _, def := range Defaults {
		resolved[def.Key] = def.Default
	}

	baseRows, err := s.repo.GetAllForTenant(models.SharedTenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}
	for _, row := range baseRows {
		resolved[row.Key] = row.Value
	}

	if tenantID != models.SharedTenantID {
		for _, def := range Defaults {
			if !def.Strict {
				continue
			}
			if def.Key == KeySiteName {
				resolved[def.Key] = PlaceholderSiteName(tenantID)
			} else {
				resolved[def.Key] = ""
			}
		}

		rows, err := s.repo.GetAllForTenant(tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings for tenant %d: %w", tenantID, err)
		}
		for _, row := range rows {
			resolved[row.Key] = row.Value
		}
	}

	if s.cacheTTL > 0 {
		if raw, err := json.Marshal(resolved); err == nil {
			if err := cache.Set(resolvedCacheKey(tenantID), string(raw), s.cacheTTL); err != nil {
				log.Debugf("[Settings] Cache write for tenant %d failed: %v", tenantID, err)
			}
		}
	}

	return resolved, nil
}

// Get resolves a single key for a tenant.
func (s *Service) Get(tenantID uint, key string) (string, error) {
	resolved, err := s.Resolve(tenantID)
	if err != nil {
		return "", err
	}
	return resolved[key], nil
}

// Set writes one tenant setting and invalidates the tenant's cached map.
func (s *Service) Set(tenantID uint, key, value string) error {
	if err := s.repo.SetValue(tenantID, key, value); err != nil {
		return err
	}
	s.invalidate(tenantID)
	return nil
}

// EnsureDefaults idempotently inserts any registry key missing for the
// tenant and backfills missing display metadata on existing rows without
// overwriting values.
func (s *Service) EnsureDefaults(tenantID uint) error {
	rows, err := s.repo.GetAllForTenant(tenantID)
	if err != nil {
		return fmt.Errorf("failed to load settings for tenant %d: %w", tenantID, err)
	}
	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		present[row.Key] = true
	}

	for _, def := range Defaults {
		if present[def.Key] {
			if err := s.repo.BackfillMetadata(tenantID, def.Key, def.Name, def.Description, def.Type); err != nil {
				return fmt.Errorf("failed to backfill metadata for %s: %w", def.Key, err)
			}
			continue
		}

		value := def.Default
		if tenantID != models.SharedTenantID && def.Strict {
			if def.Key == KeySiteName {
				value = PlaceholderSiteName(tenantID)
			} else {
				value = ""
			}
		}

		if err := s.repo.Upsert(&models.Setting{
			TenantID:    tenantID,
			Key:         def.Key,
			Value:       value,
			Name:        def.Name,
			Description: def.Description,
			Type:        def.Type,
		}); err != nil {
			return fmt.Errorf("failed to insert default for %s: %w", def.Key, err)
		}
	}

	s.invalidate(tenantID)
	return nil
}

func (s *Service) invalidate(tenantID uint) {
	if s.cacheTTL == 0 {
		return
	}
	if err := cache.Delete(resolvedCacheKey(tenantID)); err != nil {
		log.Debugf("[Settings] Cache invalidation for tenant %d failed: %v", tenantID, err)
	}
}
