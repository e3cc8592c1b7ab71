package models

import "time"

// Setting is one tenant-scoped configuration entry. Tenant 0 rows hold the
// canonical defaults for every known key.
type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    uint      `gorm:"uniqueIndex:idx_tenant_setting_key;not null" json:"tenant_id"`
	Key         string    `gorm:"column:setting_key;size:255;not null;uniqueIndex:idx_tenant_setting_key" json:"key" validate:"required,min=1,max=255"`
	Value       string    `gorm:"type:text" json:"value"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:50" json:"type"` // string, boolean, integer, float
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
