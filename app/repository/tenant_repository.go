package repository

import (
	"strings"

	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
)

// tenantRepository implements the TenantRepository interface
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create persists a new tenant
func (r *tenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByDesiredDomain retrieves the active/pending tenant claiming the given
// primary domain
func (r *tenantRepository) GetByDesiredDomain(domain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("desired_domain = ? AND status IN ?",
		strings.ToLower(domain),
		[]string{models.TENANT_STATUS_PENDING, models.TENANT_STATUS_ACTIVE}).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByFallbackDomain retrieves the active/pending tenant claiming the given
// generated fallback domain
func (r *tenantRepository) GetByFallbackDomain(domain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("fallback_domain = ? AND status IN ?",
		strings.ToLower(domain),
		[]string{models.TENANT_STATUS_PENDING, models.TENANT_STATUS_ACTIVE}).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// DomainClaimed reports whether any active or pending tenant already holds the
// domain as either its desired or fallback domain
func (r *tenantRepository) DomainClaimed(domain string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).
		Where("(desired_domain = ? OR fallback_domain = ?) AND status IN ?",
			strings.ToLower(domain), strings.ToLower(domain),
			[]string{models.TENANT_STATUS_PENDING, models.TENANT_STATUS_ACTIVE}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update saves changes to an existing tenant
func (r *tenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}

// UpdateStatus changes only the status column
func (r *tenantRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Tenant{}).Where("id = ?", id).
		Update("status", status).Error
}

// List retrieves tenants with pagination
func (r *tenantRepository) List(offset, limit int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.Offset(offset).Limit(limit).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// Count returns the total number of tenants
func (r *tenantRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Count(&count).Error
	return count, err
}
