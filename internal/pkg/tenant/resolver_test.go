package tenant

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
)

// fakeTenantRepo is an in-memory TenantRepository for resolver and service
// tests.
type fakeTenantRepo struct {
	tenants map[uint]*models.Tenant
	nextID  uint
	failAll bool
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: map[uint]*models.Tenant{}, nextID: 1}
}

var errStorage = errors.New("storage unavailable")

func (f *fakeTenantRepo) Create(t *models.Tenant) error {
	if f.failAll {
		return errStorage
	}
	t.ID = f.nextID
	f.nextID++
	clone := *t
	f.tenants[t.ID] = &clone
	return nil
}

func (f *fakeTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	if f.failAll {
		return nil, errStorage
	}
	t, ok := f.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTenantRepo) findBy(match func(*models.Tenant) bool) (*models.Tenant, error) {
	if f.failAll {
		return nil, errStorage
	}
	for _, t := range f.tenants {
		active := t.Status == models.TENANT_STATUS_PENDING || t.Status == models.TENANT_STATUS_ACTIVE
		if active && match(t) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantRepo) GetByDesiredDomain(domain string) (*models.Tenant, error) {
	return f.findBy(func(t *models.Tenant) bool { return t.DesiredDomain == strings.ToLower(domain) })
}

func (f *fakeTenantRepo) GetByFallbackDomain(domain string) (*models.Tenant, error) {
	return f.findBy(func(t *models.Tenant) bool { return t.FallbackDomain == strings.ToLower(domain) })
}

func (f *fakeTenantRepo) DomainClaimed(domain string) (bool, error) {
	if f.failAll {
		return false, errStorage
	}
	_, err := f.findBy(func(t *models.Tenant) bool {
		return t.DesiredDomain == strings.ToLower(domain) || t.FallbackDomain == strings.ToLower(domain)
	})
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeTenantRepo) Update(t *models.Tenant) error {
	if f.failAll {
		return errStorage
	}
	clone := *t
	f.tenants[t.ID] = &clone
	return nil
}

func (f *fakeTenantRepo) UpdateStatus(id uint, status string) error {
	if f.failAll {
		return errStorage
	}
	t, ok := f.tenants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTenantRepo) List(offset, limit int) ([]models.Tenant, error) {
	return nil, nil
}

func (f *fakeTenantRepo) Count() (int64, error) {
	return int64(len(f.tenants)), nil
}

func (f *fakeTenantRepo) add(t models.Tenant) *models.Tenant {
	if t.ID == 0 {
		t.ID = f.nextID
		f.nextID++
	} else if t.ID >= f.nextID {
		f.nextID = t.ID + 1
	}
	f.tenants[t.ID] = &t
	return &t
}

func TestResolveUnknownHostReturnsSharedTenant(t *testing.T) {
	resolver := NewResolver(newFakeTenantRepo())

	tests := []string{
		"unknown.example.com",
		"unknown.example.com:8080",
		"",
		"   ",
	}
	for _, host := range tests {
		assert.Equal(t, models.SharedTenantID, resolver.Resolve(host), "host %q", host)
	}
}

func TestResolveDesiredDomain(t *testing.T) {
	repo := newFakeTenantRepo()
	repo.add(models.Tenant{ID: 3, DesiredDomain: "foo.example.com", Status: models.TENANT_STATUS_ACTIVE})

	resolver := NewResolver(repo)

	assert.Equal(t, uint(3), resolver.Resolve("foo.example.com"))
	assert.Equal(t, uint(3), resolver.Resolve("FOO.example.com"))
	assert.Equal(t, uint(3), resolver.Resolve("foo.example.com:443"))
}

func TestResolveFallbackDomain(t *testing.T) {
	repo := newFakeTenantRepo()
	repo.add(models.Tenant{ID: 4, DesiredDomain: "bar.example.com", FallbackDomain: "bar.sites.example.net", Status: models.TENANT_STATUS_ACTIVE})

	resolver := NewResolver(repo)

	assert.Equal(t, uint(4), resolver.Resolve("bar.sites.example.net"))
}

func TestResolveDesiredDomainOutranksFallback(t *testing.T) {
	repo := newFakeTenantRepo()
	// Tenant 5's primary domain collides with tenant 6's fallback domain.
	repo.add(models.Tenant{ID: 5, DesiredDomain: "clash.sites.example.net", Status: models.TENANT_STATUS_ACTIVE})
	repo.add(models.Tenant{ID: 6, DesiredDomain: "six.example.com", FallbackDomain: "clash.sites.example.net", Status: models.TENANT_STATUS_ACTIVE})

	resolver := NewResolver(repo)

	assert.Equal(t, uint(5), resolver.Resolve("clash.sites.example.net"))
}

func TestResolveIgnoresTerminalTenants(t *testing.T) {
	repo := newFakeTenantRepo()
	repo.add(models.Tenant{ID: 7, DesiredDomain: "gone.example.com", Status: models.TENANT_STATUS_DELETED})

	resolver := NewResolver(repo)

	assert.Equal(t, models.SharedTenantID, resolver.Resolve("gone.example.com"))
}

func TestResolveFailsOpenOnStorageError(t *testing.T) {
	repo := newFakeTenantRepo()
	repo.add(models.Tenant{ID: 8, DesiredDomain: "live.example.com", Status: models.TENANT_STATUS_ACTIVE})
	repo.failAll = true

	resolver := NewResolver(repo)

	// Even a host that would match must degrade to the shared tenant when
	// storage is down.
	assert.Equal(t, models.SharedTenantID, resolver.Resolve("live.example.com"))
}
