package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// Global admin tenant controller instance
var adminTenantController *AdminTenantController

// InitializeAdminTenantController installs the wired controller used by the
// adapter functions below. Called once during application startup.
func InitializeAdminTenantController(ctl *AdminTenantController) {
	adminTenantController = ctl
}

// GetAdminTenantController returns the global admin tenant controller instance
func GetAdminTenantController() *AdminTenantController {
	if adminTenantController == nil {
		panic("Admin tenant controller not initialized. Call InitializeAdminTenantController first.")
	}
	return adminTenantController
}

// Adapter functions to keep the router free of controller wiring

// HandleRegisterTenant - Adapter for tenant registration
func HandleRegisterTenant(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleRegisterTenant(c)
}

// HandleProvisionTenant - Adapter for provisioning
func HandleProvisionTenant(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleProvisionTenant(c)
}

// HandleRejectTenant - Adapter for tenant rejection
func HandleRejectTenant(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleRejectTenant(c)
}

// HandleDeleteTenant - Adapter for tenant deletion
func HandleDeleteTenant(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleDeleteTenant(c)
}

// HandleSetOverride - Adapter for setting a branch override
func HandleSetOverride(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleSetOverride(c)
}

// HandleClearOverride - Adapter for clearing a branch override
func HandleClearOverride(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleClearOverride(c)
}

// HandleGetSettings - Adapter for reading merged settings
func HandleGetSettings(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleGetSettings(c)
}

// HandleUpdateSetting - Adapter for writing one setting
func HandleUpdateSetting(c *fiber.Ctx) error {
	return GetAdminTenantController().HandleUpdateSetting(c)
}
