package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mwellner/subhub/app/controllers"
	"github.com/mwellner/subhub/app/repository"
	"github.com/mwellner/subhub/internal/pkg/archive"
	"github.com/mwellner/subhub/internal/pkg/billing"
	"github.com/mwellner/subhub/internal/pkg/cache"
	"github.com/mwellner/subhub/internal/pkg/config"
	"github.com/mwellner/subhub/internal/pkg/database"
	"github.com/mwellner/subhub/internal/pkg/env"
	"github.com/mwellner/subhub/internal/pkg/mail"
	"github.com/mwellner/subhub/internal/pkg/router"
	"github.com/mwellner/subhub/internal/pkg/token"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	tokens := token.NewManager(cfg.JWT)
	mailer := mail.NewMailer()

	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		log.Fatalf("invalid archive configuration: %v", err)
	}
	archiver, err := archive.NewS3Archiver(archiveCfg)
	if err != nil {
		log.Fatalf("setting up webhook archive failed: %v", err)
	}

	gateway := billing.NewStripeGateway(cfg.Billing.SecretKey)
	var billingArchiver billing.Archiver
	if archiver != nil {
		billingArchiver = archiver
	}
	billingService := billing.NewService(cfg.Billing, repos.BillingAccounts, repos.BillingEvents, gateway, mailer, billingArchiver)

	controllers.Setup(cfg, repos, billingService, tokens, mailer)

	app := fiber.New(fiber.Config{
		AppName: env.GetEnv("APP_NAME", "SubHub"),
	})

	app.Use(recover.New(), logger.New())

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	router.InstallRouter(app, tokens)

	return app
}
