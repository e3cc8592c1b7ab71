package repository

import (
	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// branchMappingRepository implements the BranchMappingRepository interface
type branchMappingRepository struct {
	db *gorm.DB
}

// NewBranchMappingRepository creates a new branch mapping repository instance
func NewBranchMappingRepository(db *gorm.DB) BranchMappingRepository {
	return &branchMappingRepository{db: db}
}

// GetByTenantID retrieves the mapping for a tenant
func (r *branchMappingRepository) GetByTenantID(tenantID uint) (*models.BranchMapping, error) {
	var mapping models.BranchMapping
	err := r.db.Where("tenant_id = ?", tenantID).First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Upsert inserts or overwrites the single mapping row for a tenant
func (r *branchMappingRepository) Upsert(mapping *models.BranchMapping) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "source", "updated_by", "updated_at"}),
	}).Create(mapping).Error
}

// DeleteByTenantID removes the mapping for a tenant
func (r *branchMappingRepository) DeleteByTenantID(tenantID uint) error {
	return r.db.Where("tenant_id = ?", tenantID).Delete(&models.BranchMapping{}).Error
}

// List returns all mappings
func (r *branchMappingRepository) List() ([]models.BranchMapping, error) {
	var mappings []models.BranchMapping
	err := r.db.Order("tenant_id ASC").Find(&mappings).Error
	return mappings, err
}
