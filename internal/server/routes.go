package server

import (
	"inventory/internal/config"
	"inventory/internal/core/catalog"
	"inventory/internal/core/job"
	"inventory/internal/core/report"
	"inventory/internal/core/status"
	"inventory/internal/health"
	"inventory/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Config  config.Config
	Job     *job.JobService
	Catalog *catalog.Service
	Report  *report.Service
	Stores  []config.StoreDescriptor
	Status  *status.Service
	Redis   *redis.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis, d.Config.DataDir)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	catalogHandler := catalog.NewHandler(d.Job, d.Catalog, d.Stores, d.Config)
	api.Post("/catalog", catalogHandler.HandleCreateCatalog)
	api.Get("/catalog/:jobId", catalogHandler.HandleGetCatalog)

	reportHandler := report.NewHandler(d.Job, d.Report, d.Config)
	api.Post("/reports", reportHandler.HandleRunReports)
	api.Get("/reports/:jobId", reportHandler.HandleGetReport)
	api.Get("/brands", reportHandler.HandleListBrands)
	api.Get("/artifacts", reportHandler.HandleListArtifacts)

	// Single status line in plain text, the poll target for dashboards.
	api.Get("/status", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(d.Status.Current(c.Context()))
	})

	return healthHandler
}
