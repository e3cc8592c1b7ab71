package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yuleihq/branchsite/internal/pkg/branch"
	"github.com/yuleihq/branchsite/internal/pkg/provision"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
	"github.com/yuleihq/branchsite/internal/pkg/tenant"
	"github.com/yuleihq/branchsite/internal/pkg/tenantcontext"
)

// AdminTenantController exposes the control plane's administrative surface:
// tenant registration and lifecycle, provisioning, branch overrides and
// settings. JSON in, JSON out; no rendering.
type AdminTenantController struct {
	tenants      *tenant.Service
	orchestrator *provision.Orchestrator
	directory    *branch.Directory
	registry     *branch.Registry
	settings     *settings.Service
}

// NewAdminTenantController wires the controller's collaborators.
func NewAdminTenantController(
	tenants *tenant.Service,
	orchestrator *provision.Orchestrator,
	directory *branch.Directory,
	registry *branch.Registry,
	settingsSvc *settings.Service,
) *AdminTenantController {
	return &AdminTenantController{
		tenants:      tenants,
		orchestrator: orchestrator,
		directory:    directory,
		registry:     registry,
		settings:     settingsSvc,
	}
}

type registerTenantRequest struct {
	DesiredDomain  string `json:"desired_domain"`
	OwnerSubjectID string `json:"owner_subject_id"`
}

// HandleRegisterTenant creates a pending tenant for a requested domain.
func (ctl *AdminTenantController) HandleRegisterTenant(c *fiber.Ctx) error {
	var req registerTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if req.OwnerSubjectID == "" {
		req.OwnerSubjectID = tenantcontext.GetSubjectID(c)
	}

	t, err := ctl.tenants.Register(req.DesiredDomain, req.OwnerSubjectID)
	if err != nil {
		if errors.Is(err, tenant.ErrDomainTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "domain_taken", "message": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_tenant", "message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

// HandleProvisionTenant runs the provisioning saga for a pending tenant and
// returns the per-step outcomes either way.
func (ctl *AdminTenantController) HandleProvisionTenant(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	result, err := ctl.orchestrator.Provision(c.Context(), tenantID)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "provisioning_failed",
			"message": err.Error(),
			"result":  result,
		})
	}

	resp := fiber.Map{"result": result}
	if result.SeedErrors != nil {
		resp["seed_errors"] = result.SeedErrors.Error()
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

type rejectTenantRequest struct {
	Reason string `json:"reason"`
}

// HandleRejectTenant marks a pending tenant rejected.
func (ctl *AdminTenantController) HandleRejectTenant(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	var req rejectTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	if err := ctl.tenants.Reject(tenantID, req.Reason); err != nil {
		return tenantLifecycleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "rejected"})
}

// HandleDeleteTenant tears down a tenant and its branch.
func (ctl *AdminTenantController) HandleDeleteTenant(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	if err := ctl.tenants.Delete(c.Context(), tenantID); err != nil {
		return tenantLifecycleError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "deleted"})
}

type overrideRequest struct {
	Endpoint string `json:"endpoint"`
}

// HandleSetOverride installs a runtime branch override for emergency
// rerouting. Process-local, lost on restart.
func (ctl *AdminTenantController) HandleSetOverride(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	var req overrideRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Endpoint) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "endpoint is required"})
	}

	ctl.directory.SetOverride(tenantID, strings.TrimSpace(req.Endpoint))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "override_set"})
}

// HandleClearOverride removes a runtime branch override.
func (ctl *AdminTenantController) HandleClearOverride(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	ctl.directory.ClearOverride(tenantID)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "override_cleared"})
}

// HandleGetSettings returns the merged configuration for a tenant.
func (ctl *AdminTenantController) HandleGetSettings(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}

	resolved, err := ctl.settings.Resolve(tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"tenant_id": tenantID,
		"settings":  resolved,
		"mode":      ctl.settings.ModeFor(tenantID),
	})
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// HandleUpdateSetting writes one tenant setting value.
func (ctl *AdminTenantController) HandleUpdateSetting(c *fiber.Ctx) error {
	tenantID, err := parseTenantID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	}
	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "setting key is required"})
	}

	var req updateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	if err := ctl.settings.Set(tenantID, key, req.Value); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "updated"})
}

func parseTenantID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid tenant id")
	}
	return uint(id), nil
}

func tenantLifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, tenant.ErrSharedTenant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, tenant.ErrTerminalStatus):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "terminal_status", "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
}
