package branch

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"github.com/yuleihq/branchsite/internal/pkg/env"
)

// staticEndpointPrefix is the env prefix for deployment-time endpoint
// fallbacks, e.g. BRANCH_ENDPOINT_7=user:pass@tcp(db7:3306)/site7
const staticEndpointPrefix = "BRANCH_ENDPOINT_"

// Directory resolves a tenant id to its database endpoint. Resolution order:
// in-memory runtime override, durable mapping row, static env fallback,
// shared primary. The override outranks the durable row so an operator can
// reroute a tenant without touching its mapping. Lookups never fail: a
// storage error degrades to the primary endpoint.
type Directory struct {
	mappings repository.BranchMappingRepository
	primary  string

	mu        sync.RWMutex
	overrides map[uint]string

	static map[uint]string
}

// NewDirectory creates a directory backed by the given mapping repository.
// The static map may be nil.
func NewDirectory(mappings repository.BranchMappingRepository, primary string, static map[uint]string) *Directory {
	if static == nil {
		static = map[uint]string{}
	}
	return &Directory{
		mappings:  mappings,
		primary:   primary,
		overrides: make(map[uint]string),
		static:    static,
	}
}

// StaticEndpointsFromEnv collects BRANCH_ENDPOINT_<id> entries from the
// process environment and the loaded .env map.
func StaticEndpointsFromEnv() map[uint]string {
	static := make(map[uint]string)

	collect := func(key, value string) {
		if !strings.HasPrefix(key, staticEndpointPrefix) || value == "" {
			return
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(key, staticEndpointPrefix), 10, 32)
		if err != nil {
			log.Warnf("[BranchDirectory] Ignoring malformed static endpoint key %s", key)
			return
		}
		static[uint(id)] = value
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			collect(k, v)
		}
	}
	for k, v := range env.Env {
		collect(k, v)
	}

	return static
}

// PrimaryEndpoint returns the shared primary endpoint.
func (d *Directory) PrimaryEndpoint() string {
	return d.primary
}

// EndpointFor returns the endpoint serving the tenant. Tenant 0 and any
// tenant without a mapping resolve to the primary endpoint; this is the
// fail-open branch, not an error.
func (d *Directory) EndpointFor(tenantID uint) string {
	if tenantID == models.SharedTenantID {
		return d.primary
	}

	d.mu.RLock()
	override, ok := d.overrides[tenantID]
	d.mu.RUnlock()
	if ok {
		return override
	}

	mapping, err := d.mappings.GetByTenantID(tenantID)
	if err == nil && mapping.Endpoint != "" {
		return mapping.Endpoint
	}

	if ep, ok := d.static[tenantID]; ok {
		return ep
	}

	return d.primary
}

// SetMapping persists a durable mapping row for the tenant.
func (d *Directory) SetMapping(tenantID uint, endpoint, source, updatedBy string) error {
	if tenantID == models.SharedTenantID {
		return fmt.Errorf("tenant %d is the shared tenant and cannot be mapped", tenantID)
	}
	return d.mappings.Upsert(&models.BranchMapping{
		TenantID:  tenantID,
		Endpoint:  endpoint,
		Source:    source,
		UpdatedBy: updatedBy,
	})
}

// DeleteMapping removes the durable mapping row for the tenant.
func (d *Directory) DeleteMapping(tenantID uint) error {
	return d.mappings.DeleteByTenantID(tenantID)
}

// SetOverride installs a process-local endpoint override for emergency
// rerouting. Lost on restart by design.
func (d *Directory) SetOverride(tenantID uint, endpoint string) {
	d.mu.Lock()
	d.overrides[tenantID] = endpoint
	d.mu.Unlock()
	log.Infof("[BranchDirectory] Runtime override set for tenant %d -> %s", tenantID, endpoint)
}

// ClearOverride removes a process-local override.
func (d *Directory) ClearOverride(tenantID uint) {
	d.mu.Lock()
	delete(d.overrides, tenantID)
	d.mu.Unlock()
	log.Infof("[BranchDirectory] Runtime override cleared for tenant %d", tenantID)
}
