package tenant

import (
	"errors"
	"net"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"gorm.io/gorm"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Resolver maps an inbound hostname to a tenant id. It never fails: any
// hostname without a matching tenant, and any storage error, resolves to the
// shared tenant so the primary site stays reachable while tenant metadata
// storage is degraded.
type Resolver struct {
	tenants repository.TenantRepository
}

// NewResolver creates a hostname resolver over the tenant repository.
func NewResolver(tenants repository.TenantRepository) *Resolver {
	return &Resolver{tenants: tenants}
}

// Resolve returns the id of the tenant owning the hostname. The port suffix
// is stripped; the primary (desired) domain outranks the generated fallback
// domain when both match different tenants.
func (r *Resolver) Resolve(hostname string) uint {
	host := normalizeHost(hostname)
	if host == "" {
		return models.SharedTenantID
	}

	t, err := r.tenants.GetByDesiredDomain(host)
	if err == nil {
		return t.ID
	}
	if !isNotFound(err) {
		log.Warnf("[TenantResolver] Desired-domain lookup for %s failed, serving shared tenant: %v", host, err)
		return models.SharedTenantID
	}

	t, err = r.tenants.GetByFallbackDomain(host)
	if err == nil {
		return t.ID
	}
	if !isNotFound(err) {
		log.Warnf("[TenantResolver] Fallback-domain lookup for %s failed, serving shared tenant: %v", host, err)
	}

	return models.SharedTenantID
}

func normalizeHost(hostname string) string {
	host := strings.TrimSpace(strings.ToLower(hostname))
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}
