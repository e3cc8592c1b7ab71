package repository

import (
	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetByID(id uint) (*models.Tenant, error)
	GetByDesiredDomain(domain string) (*models.Tenant, error)
	GetByFallbackDomain(domain string) (*models.Tenant, error)
	DomainClaimed(domain string) (bool, error)
	Update(tenant *models.Tenant) error
	UpdateStatus(id uint, status string) error
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)
}

// BranchMappingRepository defines the interface for branch mapping operations
type BranchMappingRepository interface {
	GetByTenantID(tenantID uint) (*models.BranchMapping, error)
	Upsert(mapping *models.BranchMapping) error
	DeleteByTenantID(tenantID uint) error
	List() ([]models.BranchMapping, error)
}

// SettingRepository defines the interface for tenant-scoped settings
type SettingRepository interface {
	GetAllForTenant(tenantID uint) ([]models.Setting, error)
	GetValue(tenantID uint, key string) (string, error)
	SetValue(tenantID uint, key, value string) error
	Upsert(setting *models.Setting) error
	BackfillMetadata(tenantID uint, key, name, description, settingType string) error
}

// AdminGrantRepository defines the interface for tenant administrator grants
type AdminGrantRepository interface {
	Grant(subjectID string, tenantID uint, grantedBy string) error
	TenantAdministeredBy(subjectID string) (uint, bool, error)
	RevokeBySubject(subjectID string) error
	RevokeByTenant(tenantID uint) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Tenant        TenantRepository
	BranchMapping BranchMappingRepository
	Setting       SettingRepository
	AdminGrant    AdminGrantRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:        NewTenantRepository(db),
		BranchMapping: NewBranchMappingRepository(db),
		Setting:       NewSettingRepository(db),
		AdminGrant:    NewAdminGrantRepository(db),
	}
}
