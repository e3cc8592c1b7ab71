package tenantcontext

import "github.com/gofiber/fiber/v2"

// Shared Locals keys used across controllers and middlewares
const (
	LocalsKey    = "TENANT_CONTEXT"
	KeySubjectID = "subject_id"
)

// TenantContext carries the resolved tenant for a request.
type TenantContext struct {
	TenantID uint   `json:"tenant_id"`
	Host     string `json:"host"`
	IsShared bool   `json:"is_shared"`
}

// GetTenantContext retrieves the tenant context from the fiber context.
// Returns the shared-tenant context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals(LocalsKey); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{TenantID: 0, IsShared: true}
}

// GetTenantID returns the resolved tenant id for the request, 0 for the
// shared tenant.
func GetTenantID(c *fiber.Ctx) uint {
	return GetTenantContext(c).TenantID
}

// GetSubjectID returns the verified admin subject for the request, or empty.
func GetSubjectID(c *fiber.Ctx) string {
	if s := c.Locals(KeySubjectID); s != nil {
		if str, ok := s.(string); ok {
			return str
		}
	}
	return ""
}
