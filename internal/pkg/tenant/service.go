package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"github.com/yuleihq/branchsite/internal/pkg/provision"
)

var (
	// ErrDomainTaken is returned when an active or pending tenant already
	// claims the requested domain.
	ErrDomainTaken = errors.New("domain is already claimed by an active or pending tenant")
	// ErrSharedTenant guards tenant 0 against lifecycle operations.
	ErrSharedTenant = errors.New("the shared tenant cannot be modified")
	// ErrTerminalStatus is returned for lifecycle calls on rejected or
	// deleted tenants.
	ErrTerminalStatus = errors.New("tenant is in a terminal status")
)

// Service covers the tenant lifecycle outside of provisioning: registration
// with domain-uniqueness enforcement, rejection and deletion with branch
// teardown.
type Service struct {
	tenants    repository.TenantRepository
	mappings   repository.BranchMappingRepository
	grants     repository.AdminGrantRepository
	provider   provision.Provider
	rootDomain string
}

// NewService creates the tenant lifecycle service. rootDomain is the shared
// root under which fallback domains are generated.
func NewService(
	tenants repository.TenantRepository,
	mappings repository.BranchMappingRepository,
	grants repository.AdminGrantRepository,
	provider provision.Provider,
	rootDomain string,
) *Service {
	return &Service{
		tenants:    tenants,
		mappings:   mappings,
		grants:     grants,
		provider:   provider,
		rootDomain: strings.ToLower(strings.TrimSpace(rootDomain)),
	}
}

// Register creates a pending tenant for the desired domain. The domain
// uniqueness invariant is enforced here, before any provisioning happens:
// at most one active or pending tenant may claim a domain.
func (s *Service) Register(desiredDomain, ownerSubjectID string) (*models.Tenant, error) {
	domain := strings.ToLower(strings.TrimSpace(desiredDomain))

	claimed, err := s.tenants.DomainClaimed(domain)
	if err != nil {
		return nil, fmt.Errorf("failed to check domain availability: %w", err)
	}
	if claimed {
		return nil, ErrDomainTaken
	}

	fallback := s.fallbackDomainFor(domain)
	if fallback != "" {
		taken, err := s.tenants.DomainClaimed(fallback)
		if err != nil {
			return nil, fmt.Errorf("failed to check fallback domain availability: %w", err)
		}
		if taken {
			// Fallback is optional; the tenant just has no generated domain.
			fallback = ""
		}
	}

	t, err := models.NewTenant(domain, fallback, ownerSubjectID)
	if err != nil {
		return nil, err
	}
	if err := s.tenants.Create(t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	log.Infof("[TenantService] Registered tenant %d for domain %s (fallback %q)", t.ID, t.DesiredDomain, t.FallbackDomain)
	return t, nil
}

// fallbackDomainFor derives the generated slug domain under the shared root,
// e.g. foo.example.com -> foo.<rootDomain>.
func (s *Service) fallbackDomainFor(desiredDomain string) string {
	if s.rootDomain == "" {
		return ""
	}
	slug, _, _ := strings.Cut(desiredDomain, ".")
	if slug == "" {
		return ""
	}
	fallback := slug + "." + s.rootDomain
	if fallback == desiredDomain {
		return ""
	}
	return fallback
}

// Reject marks a pending tenant as rejected with a reason. Terminal.
func (s *Service) Reject(tenantID uint, reason string) error {
	if tenantID == models.SharedTenantID {
		return ErrSharedTenant
	}

	t, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	if t.IsTerminal() {
		return ErrTerminalStatus
	}

	t.Status = models.TENANT_STATUS_REJECTED
	t.RejectReason = reason
	if err := s.tenants.Update(t); err != nil {
		return fmt.Errorf("failed to reject tenant %d: %w", tenantID, err)
	}

	log.Infof("[TenantService] Rejected tenant %d: %s", tenantID, reason)
	return nil
}

// Delete marks a tenant deleted, tears down its branch through the provider
// (best-effort), removes its mapping and revokes its admin grants. Terminal.
func (s *Service) Delete(ctx context.Context, tenantID uint) error {
	if tenantID == models.SharedTenantID {
		return ErrSharedTenant
	}

	t, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	if t.Status == models.TENANT_STATUS_DELETED {
		return ErrTerminalStatus
	}

	if mapping, err := s.mappings.GetByTenantID(tenantID); err == nil {
		if err := s.provider.DeleteDatabase(ctx, mapping.Endpoint); err != nil {
			log.Errorf("[TenantService] Branch teardown for tenant %d at %s failed: %v", tenantID, mapping.Endpoint, err)
		}
		if err := s.mappings.DeleteByTenantID(tenantID); err != nil {
			return fmt.Errorf("failed to delete mapping for tenant %d: %w", tenantID, err)
		}
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to load mapping for tenant %d: %w", tenantID, err)
	}

	if err := s.grants.RevokeByTenant(tenantID); err != nil {
		log.Warnf("[TenantService] Failed to revoke admin grants for tenant %d: %v", tenantID, err)
	}

	t.Status = models.TENANT_STATUS_DELETED
	if err := s.tenants.Update(t); err != nil {
		return fmt.Errorf("failed to mark tenant %d deleted: %w", tenantID, err)
	}

	log.Infof("[TenantService] Deleted tenant %d", tenantID)
	return nil
}
