package models

import "time"

// TenantAdminGrant gives a subject the administrator role for exactly one
// tenant. The unique index on SubjectID enforces the one-tenant-per-subject
// rule: granting for a new tenant replaces the previous grant.
type TenantAdminGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"subject_id"`
	TenantID  uint      `gorm:"index;not null" json:"tenant_id"`
	GrantedBy string    `gorm:"type:varchar(191)" json:"granted_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
