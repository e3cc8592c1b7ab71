package repository

import (
	"errors"

	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// adminGrantRepository implements the AdminGrantRepository interface
type adminGrantRepository struct {
	db *gorm.DB
}

// NewAdminGrantRepository creates a new admin grant repository instance
func NewAdminGrantRepository(db *gorm.DB) AdminGrantRepository {
	return &adminGrantRepository{db: db}
}

// Grant gives the subject the administrator role for the tenant, replacing
// any grant the subject held for a different tenant.
func (r *adminGrantRepository) Grant(subjectID string, tenantID uint, grantedBy string) error {
	grant := &models.TenantAdminGrant{
		SubjectID: subjectID,
		TenantID:  tenantID,
		GrantedBy: grantedBy,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "granted_by", "updated_at"}),
	}).Create(grant).Error
}

// TenantAdministeredBy returns the tenant the subject administers, if any
func (r *adminGrantRepository) TenantAdministeredBy(subjectID string) (uint, bool, error) {
	var grant models.TenantAdminGrant
	err := r.db.Where("subject_id = ?", subjectID).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return grant.TenantID, true, nil
}

// RevokeBySubject removes the subject's grant
func (r *adminGrantRepository) RevokeBySubject(subjectID string) error {
	return r.db.Where("subject_id = ?", subjectID).Delete(&models.TenantAdminGrant{}).Error
}

// RevokeByTenant removes every grant scoped to the tenant
func (r *adminGrantRepository) RevokeByTenant(tenantID uint) error {
	return r.db.Where("tenant_id = ?", tenantID).Delete(&models.TenantAdminGrant{}).Error
}
