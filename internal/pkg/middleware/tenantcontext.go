package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/internal/pkg/metrics/counter"
	"github.com/yuleihq/branchsite/internal/pkg/tenant"
	"github.com/yuleihq/branchsite/internal/pkg/tenantcontext"
)

// TenantContextMiddleware resolves the request's hostname to a tenant and
// stores the result in Locals for every downstream handler. Resolution is
// fail-open: any unmatched or unresolvable host is served as the shared
// tenant, so this middleware never rejects a request.
func TenantContextMiddleware(resolver *tenant.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		host := c.Hostname()
		tenantID := resolver.Resolve(host)

		c.Locals(tenantcontext.LocalsKey, tenantcontext.TenantContext{
			TenantID: tenantID,
			Host:     host,
			IsShared: tenantID == models.SharedTenantID,
		})

		// Best-effort; counters are flushed to the tenants table periodically.
		_ = counter.AddTenantRequest(tenantID)

		return c.Next()
	}
}
