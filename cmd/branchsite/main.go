package main

import (
	"fmt"
	stdlog "log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/yuleihq/branchsite/app/controllers"
	"github.com/yuleihq/branchsite/app/models"
	"github.com/yuleihq/branchsite/app/repository"
	"github.com/yuleihq/branchsite/internal/pkg/branch"
	"github.com/yuleihq/branchsite/internal/pkg/cache"
	"github.com/yuleihq/branchsite/internal/pkg/database"
	"github.com/yuleihq/branchsite/internal/pkg/env"
	"github.com/yuleihq/branchsite/internal/pkg/identity"
	"github.com/yuleihq/branchsite/internal/pkg/metrics/counter"
	"github.com/yuleihq/branchsite/internal/pkg/provision"
	"github.com/yuleihq/branchsite/internal/pkg/router"
	"github.com/yuleihq/branchsite/internal/pkg/schema"
	"github.com/yuleihq/branchsite/internal/pkg/settings"
	"github.com/yuleihq/branchsite/internal/pkg/tenant"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	stdlog.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()

	settingsSvc := settings.NewCachedService(repos.Setting, 30*time.Second)
	if err := settingsSvc.EnsureDefaults(models.SharedTenantID); err != nil {
		log.Errorf("[Startup] Failed to ensure shared tenant defaults: %v", err)
	}

	directory := branch.NewDirectory(repos.BranchMapping, database.PrimaryDSN(), branch.StaticEndpointsFromEnv())
	registry := branch.NewRegistry(directory, database.OpenEndpoint)
	ensurer := schema.NewEnsurer()
	resolver := tenant.NewResolver(repos.Tenant)
	provider := provision.NewHTTPProviderFromEnv()

	orchestrator := provision.NewOrchestrator(
		repos.Tenant,
		repos.BranchMapping,
		repos.AdminGrant,
		settingsSvc,
		provider,
		database.OpenEndpoint,
		env.GetEnv("BRANCH_PROVIDER_DATABASE", "branchsite"),
		env.GetEnv("BRANCH_PROVIDER_REGION", "ap-east-1"),
	)

	tenantSvc := tenant.NewService(
		repos.Tenant,
		repos.BranchMapping,
		repos.AdminGrant,
		provider,
		env.GetEnv("SITE_ROOT_DOMAIN", ""),
	)

	controllers.InitializeAdminTenantController(
		controllers.NewAdminTenantController(tenantSvc, orchestrator, directory, registry, settingsSvc))
	controllers.InitializeSiteController(
		controllers.NewSiteController(registry, ensurer, settingsSvc))

	router.SetTenantResolver(resolver)
	router.SetIdentityResolver(identity.NewStaticResolverFromEnv())

	counter.StartFlushWorker(time.Minute, make(chan struct{}))

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "branchsite",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
