package provision

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
	"gorm.io/gorm"
)

// seedBranch writes the baseline content rows onto a freshly provisioned
// branch: one demo identity profile and a couple of welcome posts. Each
// insert is attempted independently so one failure does not block the rest.
func seedBranch(db *gorm.DB, tenantID uint) error {
	var errs *multierror.Error

	profile := &models.Profile{
		PublicID:    uuid.NewString(),
		DisplayName: "示例用户",
		Bio:         "This profile was created automatically when the site was provisioned.",
		IsDemo:      true,
	}
	if err := db.Create(profile).Error; err != nil {
		errs = multierror.Append(errs, fmt.Errorf("demo profile: %w", err))
	}

	posts := []models.Post{
		{
			TenantID:        tenantID,
			AuthorProfileID: profile.ID,
			Title:           "欢迎来到新站点",
			Body:            "Your site has been provisioned. This post lives in the site's own database branch.",
			Pinned:          true,
		},
		{
			TenantID:        tenantID,
			AuthorProfileID: profile.ID,
			Title:           "Getting started",
			Body:            "Configure the site name and SEO settings in the admin panel.",
		},
	}
	for i := range posts {
		if err := db.Create(&posts[i]).Error; err != nil {
			errs = multierror.Append(errs, fmt.Errorf("welcome post %d: %w", i, err))
		}
	}

	return errs.ErrorOrNil()
}

// seedSettings writes the tenant's default settings into the control-plane
// settings store: the generated site name placeholder plus isolated forum
// mode, which is the default for freshly provisioned tenants.
func (o *Orchestrator) seedSettings(tenantID uint) error {
	var errs *multierror.Error

	if err := o.settings.EnsureDefaults(tenantID); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("default settings: %w", err))
	}
	if err := o.settings.Set(tenantID, settings.KeySocialForumMode, settings.ForumModeIsolated); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("forum mode: %w", err))
	}

	return errs.ErrorOrNil()
}
