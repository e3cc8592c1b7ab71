package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"github.com/yuleihq/branchsite/internal/pkg/branch"
	"github.com/yuleihq/branchsite/internal/pkg/schema"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
)

// Step names as they appear in results and logs.
const (
	StepBranchName     = "branch-name"
	StepCreateBranch   = "create-branch"
	StepInitSchema     = "init-schema"
	StepSeed           = "seed"
	StepPersistMapping = "persist-mapping"
	StepActivate       = "activate"
	StepGrantAdmin     = "grant-admin"
)

// ProviderError wraps a failed external provisioning call with the name of
// the pipeline step that issued it.
type ProviderError struct {
	Step string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provisioning step %s failed: %v", e.Step, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StepOutcome records one pipeline step.
type StepOutcome struct {
	Step string `json:"step"`
	OK   bool   `json:"ok"`
	Err  string `json:"error,omitempty"`
}

// Result is the auditable outcome of one provisioning run. SeedErrors holds
// the accumulated non-fatal failures of the best-effort steps.
type Result struct {
	TenantID   uint          `json:"tenant_id"`
	RunID      string        `json:"run_id"`
	BranchName string        `json:"branch_name"`
	Endpoint   string        `json:"endpoint,omitempty"`
	Steps      []StepOutcome `json:"steps"`
	Activated  bool          `json:"activated"`
	SeedErrors error         `json:"-"`
}

func (r *Result) record(step string, err error) {
	outcome := StepOutcome{Step: step, OK: err == nil}
	if err != nil {
		outcome.Err = err.Error()
	}
	r.Steps = append(r.Steps, outcome)
}

// Orchestrator runs the linear branch-provisioning saga. It is not safe for
// concurrent invocation on the same tenant id; callers must serialize
// provisioning per tenant.
type Orchestrator struct {
	tenants  repository.TenantRepository
	mappings repository.BranchMappingRepository
	grants   repository.AdminGrantRepository
	settings *settings.Service
	provider Provider
	open     branch.Opener

	dbName string
	region string
}

// NewOrchestrator wires the saga's collaborators. dbName and region identify
// the parent database at the provider; open constructs handles for freshly
// created endpoints (the Connection Registry is bypassed because no mapping
// exists yet).
func NewOrchestrator(
	tenants repository.TenantRepository,
	mappings repository.BranchMappingRepository,
	grants repository.AdminGrantRepository,
	settingsSvc *settings.Service,
	provider Provider,
	open branch.Opener,
	dbName, region string,
) *Orchestrator {
	return &Orchestrator{
		tenants:  tenants,
		mappings: mappings,
		grants:   grants,
		settings: settingsSvc,
		provider: provider,
		open:     open,
		dbName:   dbName,
		region:   region,
	}
}

// Provision creates and activates an isolated branch for the tenant.
//
// The pipeline fails loud before any state exists (create-branch) and on the
// two steps the tenant cannot live without (persist-mapping, activate).
// Schema init, seeding and the admin grant are best-effort: their failures
// accumulate into the result and do not stop activation, because a tenant
// with a mapping and active status is minimally functional.
//
// Re-provisioning a tenant that already has a mapping overwrites it and
// orphans the previous branch; no automatic cleanup is attempted.
func (o *Orchestrator) Provision(ctx context.Context, tenantID uint) (*Result, error) {
	result := &Result{TenantID: tenantID, RunID: uuid.NewString()}

	if tenantID == models.SharedTenantID {
		return result, errors.New("the shared tenant is never provisioned")
	}

	t, err := o.tenants.GetByID(tenantID)
	if err != nil {
		return result, fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	if t.IsTerminal() {
		return result, fmt.Errorf("tenant %d is %s and cannot be provisioned", tenantID, t.Status)
	}

	if existing, err := o.mappings.GetByTenantID(tenantID); err == nil {
		log.Warnf("[Provision %s] Tenant %d already mapped to %s; re-provisioning will orphan that branch",
			result.RunID, tenantID, existing.Endpoint)
	}

	// Step 1: deterministic branch name.
	result.BranchName = models.BranchName(tenantID)
	result.record(StepBranchName, nil)

	// Step 2: external branch creation. Abort on failure, nothing persisted.
	endpoint, err := o.provider.CreateBranch(ctx, o.dbName, result.BranchName, o.region)
	if err != nil {
		provErr := &ProviderError{Step: StepCreateBranch, Err: err}
		result.record(StepCreateBranch, provErr)
		log.Errorf("[Provision %s] %v", result.RunID, provErr)
		return result, provErr
	}
	result.Endpoint = endpoint
	result.record(StepCreateBranch, nil)
	log.Infof("[Provision %s] Branch %s created at %s", result.RunID, result.BranchName, endpoint)

	var seedErrs *multierror.Error

	// Step 3: baseline schema on the new branch.
	handle, err := o.open(endpoint)
	if err != nil {
		err = fmt.Errorf("failed to open new branch: %w", err)
		result.record(StepInitSchema, err)
		seedErrs = multierror.Append(seedErrs, err)
		log.Errorf("[Provision %s] %v", result.RunID, err)
	} else {
		schema.EnsureDB(handle, schema.BaselineStatements)
		result.record(StepInitSchema, nil)
	}

	// Step 4: baseline content on the branch, default settings in the
	// control-plane store.
	var seedErr *multierror.Error
	if handle != nil {
		if err := seedBranch(handle, tenantID); err != nil {
			seedErr = multierror.Append(seedErr, err)
		}
	} else {
		seedErr = multierror.Append(seedErr, errors.New("content seed skipped: no handle"))
	}
	if err := o.seedSettings(tenantID); err != nil {
		seedErr = multierror.Append(seedErr, err)
	}
	if err := seedErr.ErrorOrNil(); err != nil {
		result.record(StepSeed, err)
		seedErrs = multierror.Append(seedErrs, err)
		log.Warnf("[Provision %s] Seeding incomplete: %v", result.RunID, err)
	} else {
		result.record(StepSeed, nil)
	}

	// Step 5: durable mapping. Required for the tenant to function.
	err = o.mappings.Upsert(&models.BranchMapping{
		TenantID:  tenantID,
		Endpoint:  endpoint,
		Source:    models.MAPPING_SOURCE_PROVISION,
		UpdatedBy: result.RunID,
	})
	if err != nil {
		err = fmt.Errorf("provisioning step %s failed: %w", StepPersistMapping, err)
		result.record(StepPersistMapping, err)
		result.SeedErrors = seedErrs.ErrorOrNil()
		return result, err
	}
	result.record(StepPersistMapping, nil)

	// Step 6: activation.
	if err := o.tenants.UpdateStatus(tenantID, models.TENANT_STATUS_ACTIVE); err != nil {
		err = fmt.Errorf("provisioning step %s failed: %w", StepActivate, err)
		result.record(StepActivate, err)
		result.SeedErrors = seedErrs.ErrorOrNil()
		return result, err
	}
	result.record(StepActivate, nil)
	result.Activated = true

	// Step 7: scoped admin grant for the owner, replacing any other grant
	// the subject held.
	if t.OwnerSubjectID != "" {
		if err := o.grants.Grant(t.OwnerSubjectID, tenantID, result.RunID); err != nil {
			result.record(StepGrantAdmin, err)
			seedErrs = multierror.Append(seedErrs, fmt.Errorf("admin grant failed: %w", err))
			log.Warnf("[Provision %s] Admin grant for %s failed: %v", result.RunID, t.OwnerSubjectID, err)
		} else {
			result.record(StepGrantAdmin, nil)
		}
	} else {
		result.record(StepGrantAdmin, nil)
	}

	result.SeedErrors = seedErrs.ErrorOrNil()
	log.Infof("[Provision %s] Tenant %d activated on %s", result.RunID, tenantID, endpoint)
	return result, nil
}
