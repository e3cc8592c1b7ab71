package branch

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// ConfigurationError reports a handle that could not be constructed because
// its endpoint configuration is missing or unreachable. Fatal to the calling
// operation, never to the process.
type ConfigurationError struct {
	Endpoint string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("connection configuration for endpoint %q is unusable: %v", e.Endpoint, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Handle is a live database connection for one (tenant, endpoint) pair. It
// is owned by the Registry and stays open for the process lifetime.
type Handle struct {
	TenantID uint
	Endpoint string
	DB       *gorm.DB
}

// Opener constructs a database handle for an endpoint DSN.
type Opener func(endpoint string) (*gorm.DB, error)

type handleKey struct {
	tenantID uint
	endpoint string
}

// Registry caches one Handle per (tenant, endpoint) pair. Concurrent first
// access may construct a handle twice; the later insert wins and the extra
// handle is simply dropped, which is harmless because construction is
// idempotent. The cache is unbounded: tenant counts stay in the hundreds.
type Registry struct {
	directory *Directory
	open      Opener

	mu      sync.RWMutex
	handles map[handleKey]*Handle
}

// NewRegistry creates a registry resolving endpoints through the given
// directory and constructing handles with the given opener.
func NewRegistry(directory *Directory, open Opener) *Registry {
	return &Registry{
		directory: directory,
		open:      open,
		handles:   make(map[handleKey]*Handle),
	}
}

// GetHandle returns the live handle for the tenant's current endpoint,
// constructing and caching it on first use. A mapping change (or override)
// naturally misses the cache and builds a fresh handle for the new endpoint.
func (r *Registry) GetHandle(tenantID uint) (*Handle, error) {
	endpoint := r.directory.EndpointFor(tenantID)
	if endpoint == "" {
		return nil, &ConfigurationError{Endpoint: endpoint, Err: fmt.Errorf("no endpoint configured for tenant %d", tenantID)}
	}

	key := handleKey{tenantID: tenantID, endpoint: endpoint}

	r.mu.RLock()
	handle, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	db, err := r.open(endpoint)
	if err != nil {
		return nil, &ConfigurationError{Endpoint: endpoint, Err: err}
	}

	handle = &Handle{TenantID: tenantID, Endpoint: endpoint, DB: db}

	r.mu.Lock()
	r.handles[key] = handle
	r.mu.Unlock()

	log.Infof("[ConnectionRegistry] Opened handle for tenant %d at %s", tenantID, endpoint)
	return handle, nil
}

// Size returns the number of cached handles.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
