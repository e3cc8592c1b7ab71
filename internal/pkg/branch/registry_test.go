package branch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuleihq/branchsite/app/models"
	"gorm.io/gorm"
)

// countingOpener records constructions; the returned handle is never used
// for queries in these tests.
type countingOpener struct {
	opened []string
	fail   bool
}

func (c *countingOpener) open(endpoint string) (*gorm.DB, error) {
	if c.fail {
		return nil, errors.New("dial failed")
	}
	c.opened = append(c.opened, endpoint)
	return &gorm.DB{}, nil
}

func TestGetHandleCachesPerTenantEndpoint(t *testing.T) {
	mappings := newFakeMappingRepo()
	require.NoError(t, mappings.Upsert(&models.BranchMapping{TenantID: 5, Endpoint: "db://branch-5"}))

	opener := &countingOpener{}
	registry := NewRegistry(NewDirectory(mappings, primaryEndpoint, nil), opener.open)

	first, err := registry.GetHandle(5)
	require.NoError(t, err)
	second, err := registry.GetHandle(5)
	require.NoError(t, err)

	assert.Equal(t, "db://branch-5", first.Endpoint)
	assert.Equal(t, first.Endpoint, second.Endpoint)
	// One construction, one cache hit.
	assert.Equal(t, []string{"db://branch-5"}, opener.opened)
	assert.Equal(t, 1, registry.Size())
}

func TestGetHandleFollowsOverride(t *testing.T) {
	mappings := newFakeMappingRepo()
	require.NoError(t, mappings.Upsert(&models.BranchMapping{TenantID: 5, Endpoint: "db://branch-5"}))

	opener := &countingOpener{}
	dir := NewDirectory(mappings, primaryEndpoint, nil)
	registry := NewRegistry(dir, opener.open)

	before, err := registry.GetHandle(5)
	require.NoError(t, err)
	assert.Equal(t, "db://branch-5", before.Endpoint)

	dir.SetOverride(5, "db://emergency")
	during, err := registry.GetHandle(5)
	require.NoError(t, err)
	assert.Equal(t, "db://emergency", during.Endpoint)

	dir.ClearOverride(5)
	after, err := registry.GetHandle(5)
	require.NoError(t, err)
	assert.Equal(t, "db://branch-5", after.Endpoint)

	// The branch-5 handle was reused across the override window.
	assert.Equal(t, []string{"db://branch-5", "db://emergency"}, opener.opened)
}

func TestGetHandleSharedTenantUsesPrimary(t *testing.T) {
	opener := &countingOpener{}
	registry := NewRegistry(NewDirectory(newFakeMappingRepo(), primaryEndpoint, nil), opener.open)

	handle, err := registry.GetHandle(models.SharedTenantID)
	require.NoError(t, err)
	assert.Equal(t, primaryEndpoint, handle.Endpoint)
}

func TestGetHandleConstructionFailure(t *testing.T) {
	opener := &countingOpener{fail: true}
	registry := NewRegistry(NewDirectory(newFakeMappingRepo(), primaryEndpoint, nil), opener.open)

	_, err := registry.GetHandle(5)
	require.Error(t, err)

	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
	assert.Equal(t, primaryEndpoint, confErr.Endpoint)
	assert.Equal(t, 0, registry.Size())
}

func TestGetHandleEmptyPrimaryIsConfigurationError(t *testing.T) {
	registry := NewRegistry(NewDirectory(newFakeMappingRepo(), "", nil), (&countingOpener{}).open)

	_, err := registry.GetHandle(5)
	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}
