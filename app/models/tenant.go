package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// SharedTenantID is the always-present primary tenant. It is never
	// provisioned, rejected or deleted.
	SharedTenantID uint = 0

	TENANT_STATUS_PENDING  = "pending"
	TENANT_STATUS_ACTIVE   = "active"
	TENANT_STATUS_REJECTED = "rejected"
	TENANT_STATUS_DELETED  = "deleted"
)

// Tenant is a logically isolated customer site. Domain uniqueness among
// active/pending tenants is enforced at the repository layer, not by a DB
// unique index, because rejected and deleted tenants may keep their old
// domain on record.
type Tenant struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	DesiredDomain  string     `gorm:"type:varchar(255);index" json:"desired_domain" validate:"required,fqdn,max=255"`
	FallbackDomain string     `gorm:"type:varchar(255);index" json:"fallback_domain" validate:"omitempty,fqdn,max=255"`
	Status         string     `gorm:"type:varchar(50);default:'pending';index" json:"status" validate:"oneof=pending active rejected deleted"`
	RejectReason   string     `gorm:"type:text" json:"reject_reason,omitempty"`
	OwnerSubjectID string     `gorm:"type:varchar(191);index" json:"owner_subject_id" validate:"required,max=191"`
	RequestCount   uint64     `gorm:"default:0" json:"request_count"`
	ActivatedAt    *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// NewTenant builds a pending tenant for a registration request.
func NewTenant(desiredDomain, fallbackDomain, ownerSubjectID string) (*Tenant, error) {
	t := &Tenant{
		DesiredDomain:  strings.ToLower(strings.TrimSpace(desiredDomain)),
		FallbackDomain: strings.ToLower(strings.TrimSpace(fallbackDomain)),
		Status:         TENANT_STATUS_PENDING,
		OwnerSubjectID: strings.TrimSpace(ownerSubjectID),
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// IsTerminal reports whether the tenant can no longer change status.
func (t *Tenant) IsTerminal() bool {
	return t.Status == TENANT_STATUS_REJECTED || t.Status == TENANT_STATUS_DELETED
}

// BranchName returns the deterministic branch identifier for this tenant.
func BranchName(tenantID uint) string {
	return fmt.Sprintf("tenant-%d", tenantID)
}
