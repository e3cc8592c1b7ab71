package settings

import (
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// Forum modes. Shared targets the global content tables on the primary
// database; isolated targets the tenant's own branch tables.
const (
	ForumModeShared   = "shared"
	ForumModeIsolated = "isolated"
)

// ModeFor returns the forum mode for a tenant, read from the resolved
// social_forum_mode key. Unknown values and resolution failures degrade to
// the shared mode so content reads keep working against the primary dataset.
func (s *Service) ModeFor(tenantID uint) string {
	resolved, err := s.Resolve(tenantID)
	if err != nil {
		log.Warnf("[ForumMode] Settings resolution for tenant %d failed, using shared mode: %v", tenantID, err)
		return ForumModeShared
	}

	switch strings.ToLower(strings.TrimSpace(resolved[KeySocialForumMode])) {
	case ForumModeIsolated:
		return ForumModeIsolated
	case ForumModeShared, "":
		return ForumModeShared
	default:
		return ForumModeShared
	}
}
