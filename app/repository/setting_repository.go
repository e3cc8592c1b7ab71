package repository

import (
	"errors"

	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetAllForTenant retrieves every setting row scoped to one tenant
func (r *settingRepository) GetAllForTenant(tenantID uint) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Where("tenant_id = ?", tenantID).Find(&settings).Error
	return settings, err
}

// GetValue retrieves a specific setting value by key
func (r *settingRepository) GetValue(tenantID uint, key string) (string, error) {
	var setting models.Setting
	// Column is `setting_key` (see gorm tag in models.Setting)
	err := r.db.Where("tenant_id = ? AND setting_key = ?", tenantID, key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil // Return empty string for non-existent settings
		}
		return "", err
	}
	return setting.Value, nil
}

// SetValue sets a specific setting value by key
func (r *settingRepository) SetValue(tenantID uint, key, value string) error {
	var setting models.Setting
	err := r.db.Where("tenant_id = ? AND setting_key = ?", tenantID, key).First(&setting).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Create new setting
		setting = models.Setting{
			TenantID: tenantID,
			Key:      key,
			Value:    value,
		}
		return r.db.Create(&setting).Error
	} else if err != nil {
		return err
	}

	// Update existing setting
	setting.Value = value
	return r.db.Save(&setting).Error
}

// Upsert inserts the row if the (tenant, key) pair is absent, otherwise
// overwrites value and metadata
func (r *settingRepository) Upsert(s *models.Setting) error {
	var existing models.Setting
	err := r.db.Where("tenant_id = ? AND setting_key = ?", s.TenantID, s.Key).First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(s).Error
	} else if err != nil {
		return err
	}

	existing.Value = s.Value
	existing.Name = s.Name
	existing.Description = s.Description
	existing.Type = s.Type
	return r.db.Save(&existing).Error
}

// BackfillMetadata fills in missing display metadata on an existing row
// without touching its value. Non-empty metadata already present wins.
func (r *settingRepository) BackfillMetadata(tenantID uint, key, name, description, settingType string) error {
	var setting models.Setting
	err := r.db.Where("tenant_id = ? AND setting_key = ?", tenantID, key).First(&setting).Error
	if err != nil {
		return err
	}

	changed := false
	if setting.Name == "" && name != "" {
		setting.Name = name
		changed = true
	}
	if setting.Description == "" && description != "" {
		setting.Description = description
		changed = true
	}
	if setting.Type == "" && settingType != "" {
		setting.Type = settingType
		changed = true
	}
	if !changed {
		return nil
	}
	return r.db.Save(&setting).Error
}
