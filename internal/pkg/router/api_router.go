package router

import (
	"github.com/yuleihq/branchsite/app/controllers"
	"github.com/yuleihq/branchsite/internal/pkg/identity"
	"github.com/yuleihq/branchsite/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ApiRouter installs the administrative control-plane API.
type ApiRouter struct {
	identity identity.Resolver
}

var globalIdentity identity.Resolver

// SetIdentityResolver installs the identity resolver guarding the admin API.
// Called once during application startup, before InstallRouter.
func SetIdentityResolver(r identity.Resolver) {
	globalIdentity = r
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "branchsite control plane",
		})
	})

	// Admin v1 routes, all behind token auth
	admin := api.Group("/v1/admin", middleware.AdminAuthMiddleware(h.identity))

	admin.Post("/tenants", controllers.HandleRegisterTenant)
	admin.Post("/tenants/:id/provision", controllers.HandleProvisionTenant)
	admin.Post("/tenants/:id/reject", controllers.HandleRejectTenant)
	admin.Delete("/tenants/:id", controllers.HandleDeleteTenant)

	admin.Put("/tenants/:id/branch-override", controllers.HandleSetOverride)
	admin.Delete("/tenants/:id/branch-override", controllers.HandleClearOverride)

	admin.Get("/tenants/:id/settings", controllers.HandleGetSettings)
	admin.Put("/tenants/:id/settings/:key", controllers.HandleUpdateSetting)
}

func NewApiRouter() *ApiRouter {
	if globalIdentity == nil {
		panic("Identity resolver not installed. Call SetIdentityResolver first.")
	}
	return &ApiRouter{identity: globalIdentity}
}
