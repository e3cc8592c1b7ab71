package router

import (
	"github.com/yuleihq/branchsite/app/controllers"
	"github.com/yuleihq/branchsite/internal/pkg/middleware"
	"github.com/yuleihq/branchsite/internal/pkg/tenant"

	"github.com/gofiber/fiber/v2"
)

// HttpRouter installs the tenant-facing data-plane routes. The tenant
// resolver is injected so the middleware can be built.
type HttpRouter struct {
	resolver *tenant.Resolver
}

var globalResolver *tenant.Resolver

// SetTenantResolver installs the resolver used by the global tenant-context
// middleware. Called once during application startup, before InstallRouter.
func SetTenantResolver(r *tenant.Resolver) {
	globalResolver = r
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply tenant context middleware globally as first middleware
	app.Use(middleware.TenantContextMiddleware(h.resolver))

	app.Get("/", controllers.HandleSiteInfo)
	app.Get("/site", controllers.HandleSiteInfo)
	app.Get("/posts", controllers.HandleRecentPosts)
}

func NewHttpRouter() *HttpRouter {
	if globalResolver == nil {
		panic("Tenant resolver not installed. Call SetTenantResolver first.")
	}
	return &HttpRouter{resolver: globalResolver}
}
