package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/internal/pkg/branch"
	"github.com/yuleihq/branchsite/internal/pkg/schema"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
	"github.com/yuleihq/branchsite/internal/pkg/tenantcontext"
)

// SiteController serves the tenant-facing data plane: every request runs
// through hostname resolution (middleware), endpoint resolution, the
// opportunistic schema ensure and merged settings.
type SiteController struct {
	registry *branch.Registry
	ensurer  *schema.Ensurer
	settings *settings.Service
}

// NewSiteController wires the data-plane controller.
func NewSiteController(registry *branch.Registry, ensurer *schema.Ensurer, settingsSvc *settings.Service) *SiteController {
	return &SiteController{
		registry: registry,
		ensurer:  ensurer,
		settings: settingsSvc,
	}
}

// HandleSiteInfo returns the resolved identity of the site serving this
// hostname: tenant id, merged settings and forum mode.
func (ctl *SiteController) HandleSiteInfo(c *fiber.Ctx) error {
	tc := tenantcontext.GetTenantContext(c)

	resolved, err := ctl.settings.Resolve(tc.TenantID)
	if err != nil {
		log.Errorf("[Site] Settings resolution for tenant %d failed: %v", tc.TenantID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"tenant_id":  tc.TenantID,
		"host":       tc.Host,
		"is_shared":  tc.IsShared,
		"site_name":  resolved[settings.KeySiteName],
		"forum_mode": ctl.settings.ModeFor(tc.TenantID),
	})
}

// HandleRecentPosts lists the latest posts from whichever dataset the
// tenant's forum mode selects: the tenant's own branch in isolated mode, the
// shared tables filtered by tenant id otherwise.
func (ctl *SiteController) HandleRecentPosts(c *fiber.Ctx) error {
	tenantID := tenantcontext.GetTenantID(c)

	var posts []models.Post
	if ctl.settings.ModeFor(tenantID) == settings.ForumModeIsolated {
		handle, err := ctl.registry.GetHandle(tenantID)
		if err != nil {
			log.Errorf("[Site] No handle for tenant %d: %v", tenantID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "tenant_database_unavailable"})
		}
		// Cheap after the first request per endpoint.
		ctl.ensurer.EnsureOnce(handle.Endpoint, schema.NewExecutor(handle.DB), schema.BaselineStatements)

		if err := handle.DB.Order("id DESC").Limit(20).Find(&posts).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
		}
	} else {
		handle, err := ctl.registry.GetHandle(models.SharedTenantID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "database_unavailable"})
		}
		if err := handle.DB.Where("tenant_id = ?", tenantID).Order("id DESC").Limit(20).Find(&posts).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
}

// Global site controller instance
var siteController *SiteController

// InitializeSiteController installs the wired data-plane controller.
func InitializeSiteController(ctl *SiteController) {
	siteController = ctl
}

// HandleSiteInfo - Adapter for site info
func HandleSiteInfo(c *fiber.Ctx) error {
	return siteController.HandleSiteInfo(c)
}

// HandleRecentPosts - Adapter for recent posts
func HandleRecentPosts(c *fiber.Ctx) error {
	return siteController.HandleRecentPosts(c)
}
