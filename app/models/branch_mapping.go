package models

import "time"

const (
	MAPPING_SOURCE_PROVISION = "provision"
	MAPPING_SOURCE_ADMIN     = "admin"
)

// BranchMapping is the durable association from a tenant to the endpoint of
// its dedicated database branch. Absence of a row means the tenant is served
// from the shared primary endpoint.
type BranchMapping struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"uniqueIndex;not null" json:"tenant_id"`
	Endpoint  string    `gorm:"type:varchar(512);not null" json:"endpoint"`
	Source    string    `gorm:"type:varchar(50)" json:"source"`
	UpdatedBy string    `gorm:"type:varchar(191)" json:"updated_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
