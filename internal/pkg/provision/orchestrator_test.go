package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/internal/pkg/branch"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
	"gorm.io/gorm"
)

type fakeTenantRepo struct {
	tenants map[uint]*models.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: map[uint]*models.Tenant{}}
}

func (f *fakeTenantRepo) Create(t *models.Tenant) error {
	clone := *t
	f.tenants[t.ID] = &clone
	return nil
}

func (f *fakeTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTenantRepo) GetByDesiredDomain(domain string) (*models.Tenant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantRepo) GetByFallbackDomain(domain string) (*models.Tenant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenantRepo) DomainClaimed(domain string) (bool, error) { return false, nil }

func (f *fakeTenantRepo) Update(t *models.Tenant) error {
	clone := *t
	f.tenants[t.ID] = &clone
	return nil
}

func (f *fakeTenantRepo) UpdateStatus(id uint, status string) error {
	t, ok := f.tenants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTenantRepo) List(offset, limit int) ([]models.Tenant, error) { return nil, nil }
func (f *fakeTenantRepo) Count() (int64, error)                           { return int64(len(f.tenants)), nil }

type fakeMappingRepo struct {
	rows map[uint]*models.BranchMapping
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{rows: map[uint]*models.BranchMapping{}}
}

func (f *fakeMappingRepo) GetByTenantID(tenantID uint) (*models.BranchMapping, error) {
	m, ok := f.rows[tenantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMappingRepo) Upsert(m *models.BranchMapping) error {
	clone := *m
	f.rows[m.TenantID] = &clone
	return nil
}

func (f *fakeMappingRepo) DeleteByTenantID(tenantID uint) error {
	delete(f.rows, tenantID)
	return nil
}

func (f *fakeMappingRepo) List() ([]models.BranchMapping, error) { return nil, nil }

type fakeGrantRepo struct {
	bySubject map[string]uint
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{bySubject: map[string]uint{}}
}

func (f *fakeGrantRepo) Grant(subjectID string, tenantID uint, grantedBy string) error {
	f.bySubject[subjectID] = tenantID
	return nil
}

func (f *fakeGrantRepo) TenantAdministeredBy(subjectID string) (uint, bool, error) {
	id, ok := f.bySubject[subjectID]
	return id, ok, nil
}

func (f *fakeGrantRepo) RevokeBySubject(subjectID string) error {
	delete(f.bySubject, subjectID)
	return nil
}

func (f *fakeGrantRepo) RevokeByTenant(tenantID uint) error {
	for s, id := range f.bySubject {
		if id == tenantID {
			delete(f.bySubject, s)
		}
	}
	return nil
}

type settingKey struct {
	tenantID uint
	key      string
}

type fakeSettingRepo struct {
	rows map[settingKey]*models.Setting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{rows: map[settingKey]*models.Setting{}}
}

func (f *fakeSettingRepo) GetAllForTenant(tenantID uint) ([]models.Setting, error) {
	var out []models.Setting
	for k, s := range f.rows {
		if k.tenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSettingRepo) GetValue(tenantID uint, key string) (string, error) {
	if s, ok := f.rows[settingKey{tenantID, key}]; ok {
		return s.Value, nil
	}
	return "", nil
}

func (f *fakeSettingRepo) SetValue(tenantID uint, key, value string) error {
	k := settingKey{tenantID, key}
	if s, ok := f.rows[k]; ok {
		s.Value = value
		return nil
	}
	f.rows[k] = &models.Setting{TenantID: tenantID, Key: key, Value: value}
	return nil
}

func (f *fakeSettingRepo) Upsert(s *models.Setting) error {
	clone := *s
	f.rows[settingKey{s.TenantID, s.Key}] = &clone
	return nil
}

func (f *fakeSettingRepo) BackfillMetadata(tenantID uint, key, name, description, settingType string) error {
	return nil
}

type stubProvider struct {
	endpoint  string
	createErr error
	created   []string
	deleted   []string
}

func (s *stubProvider) CreateBranch(_ context.Context, dbName, branchName, region string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.created = append(s.created, branchName)
	return s.endpoint, nil
}

func (s *stubProvider) DeleteDatabase(_ context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	return nil
}

// failingOpener stands in for branch handle construction in tests that never
// touch the branch database itself; the content seed then reports a partial
// failure, which the pipeline must survive.
func failingOpener(endpoint string) (*gorm.DB, error) {
	return nil, errors.New("dial failed")
}

type testEnv struct {
	tenants  *fakeTenantRepo
	mappings *fakeMappingRepo
	grants   *fakeGrantRepo
	settings *fakeSettingRepo
	provider *stubProvider
	orch     *Orchestrator
}

func newTestEnv(provider *stubProvider) *testEnv {
	env := &testEnv{
		tenants:  newFakeTenantRepo(),
		mappings: newFakeMappingRepo(),
		grants:   newFakeGrantRepo(),
		settings: newFakeSettingRepo(),
		provider: provider,
	}
	env.orch = NewOrchestrator(
		env.tenants,
		env.mappings,
		env.grants,
		settings.NewService(env.settings),
		env.provider,
		failingOpener,
		"branchsite",
		"ap-east-1",
	)
	return env
}

func stepByName(result *Result, name string) (StepOutcome, bool) {
	for _, s := range result.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepOutcome{}, false
}

func TestProvisionActivatesTenant(t *testing.T) {
	env := newTestEnv(&stubProvider{endpoint: "db://branch-5"})
	env.tenants.Create(&models.Tenant{ID: 5, DesiredDomain: "foo.example.com", Status: models.TENANT_STATUS_PENDING, OwnerSubjectID: "subj-1"})

	result, err := env.orch.Provision(context.Background(), 5)
	require.NoError(t, err)

	assert.True(t, result.Activated)
	assert.Equal(t, "tenant-5", result.BranchName)
	assert.Equal(t, "db://branch-5", result.Endpoint)
	assert.Equal(t, []string{"tenant-5"}, env.provider.created)

	// Mapping persisted and resolvable through the directory + registry.
	dir := branch.NewDirectory(env.mappings, "db://primary", nil)
	registry := branch.NewRegistry(dir, func(string) (*gorm.DB, error) { return &gorm.DB{}, nil })
	handle, err := registry.GetHandle(5)
	require.NoError(t, err)
	assert.Equal(t, "db://branch-5", handle.Endpoint)

	// Tenant is active.
	after, err := env.tenants.GetByID(5)
	require.NoError(t, err)
	assert.Equal(t, models.TENANT_STATUS_ACTIVE, after.Status)

	// Default settings were seeded: generated site name, isolated forum mode.
	siteName, _ := env.settings.GetValue(5, settings.KeySiteName)
	assert.Equal(t, "分站 #5", siteName)
	mode, _ := env.settings.GetValue(5, settings.KeySocialForumMode)
	assert.Equal(t, settings.ForumModeIsolated, mode)

	// Owner got the scoped admin grant.
	tenantID, held, _ := env.grants.TenantAdministeredBy("subj-1")
	assert.True(t, held)
	assert.Equal(t, uint(5), tenantID)

	// The load-bearing steps succeeded.
	for _, name := range []string{StepBranchName, StepCreateBranch, StepPersistMapping, StepActivate, StepGrantAdmin} {
		outcome, found := stepByName(result, name)
		require.True(t, found, "missing step %s", name)
		assert.True(t, outcome.OK, "step %s failed: %s", name, outcome.Err)
	}

	// The content seed could not run (no handle) and was accumulated rather
	// than fatal.
	assert.Error(t, result.SeedErrors)
	seedStep, found := stepByName(result, StepSeed)
	require.True(t, found)
	assert.False(t, seedStep.OK)
}

func TestProvisionProviderFailureLeavesNoState(t *testing.T) {
	env := newTestEnv(&stubProvider{createErr: errors.New("quota")})
	env.tenants.Create(&models.Tenant{ID: 5, DesiredDomain: "foo.example.com", Status: models.TENANT_STATUS_PENDING})

	result, err := env.orch.Provision(context.Background(), 5)
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, StepCreateBranch, provErr.Step)
	assert.Contains(t, provErr.Error(), "quota")

	assert.False(t, result.Activated)

	// Tenant remains pending for retry, no mapping row was created.
	after, getErr := env.tenants.GetByID(5)
	require.NoError(t, getErr)
	assert.Equal(t, models.TENANT_STATUS_PENDING, after.Status)

	_, mapErr := env.mappings.GetByTenantID(5)
	assert.ErrorIs(t, mapErr, gorm.ErrRecordNotFound)
}

func TestProvisionRefusesSharedAndTerminalTenants(t *testing.T) {
	env := newTestEnv(&stubProvider{endpoint: "db://x"})
	env.tenants.Create(&models.Tenant{ID: 9, DesiredDomain: "r.example.com", Status: models.TENANT_STATUS_REJECTED})

	_, err := env.orch.Provision(context.Background(), models.SharedTenantID)
	assert.Error(t, err)

	_, err = env.orch.Provision(context.Background(), 9)
	assert.Error(t, err)
	assert.Empty(t, env.provider.created)
}

func TestProvisionUnknownTenant(t *testing.T) {
	env := newTestEnv(&stubProvider{endpoint: "db://x"})

	_, err := env.orch.Provision(context.Background(), 404)
	assert.Error(t, err)
	assert.Empty(t, env.provider.created)
}

func TestReprovisionOverwritesMapping(t *testing.T) {
	env := newTestEnv(&stubProvider{endpoint: "db://branch-5-v2"})
	env.tenants.Create(&models.Tenant{ID: 5, DesiredDomain: "foo.example.com", Status: models.TENANT_STATUS_ACTIVE})
	require.NoError(t, env.mappings.Upsert(&models.BranchMapping{TenantID: 5, Endpoint: "db://branch-5-v1"}))

	result, err := env.orch.Provision(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, result.Activated)

	// The old branch is orphaned, not torn down: the mapping simply points
	// at the new endpoint now.
	mapping, err := env.mappings.GetByTenantID(5)
	require.NoError(t, err)
	assert.Equal(t, "db://branch-5-v2", mapping.Endpoint)
	assert.Empty(t, env.provider.deleted)
}

func TestProvisionReplacesOwnersPreviousGrant(t *testing.T) {
	env := newTestEnv(&stubProvider{endpoint: "db://branch-6"})
	env.tenants.Create(&models.Tenant{ID: 6, DesiredDomain: "six.example.com", Status: models.TENANT_STATUS_PENDING, OwnerSubjectID: "subj-1"})
	require.NoError(t, env.grants.Grant("subj-1", 3, "earlier"))

	_, err := env.orch.Provision(context.Background(), 6)
	require.NoError(t, err)

	// A subject administers at most one tenant.
	tenantID, held, _ := env.grants.TenantAdministeredBy("subj-1")
	assert.True(t, held)
	assert.Equal(t, uint(6), tenantID)
}
