package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handlers "github.com/zdziszkee/iban-registry/internal/api/handlers"
)

// SetupRoutes configures the lookup API surface. The gatherer is optional;
// when present a /metrics endpoint is exposed for scraping.
func SetupRoutes(lookupHandler *handlers.LookupHandler, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"code":    "INTERNAL",
				"message": "Internal server error",
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/lookup/iban/:iban", lookupHandler.GetByIBAN)
	app.Get("/lookup/sortcode/:code", lookupHandler.GetBySortCode)
	app.Get("/lookup/bic/:bic", lookupHandler.GetByBIC)
	app.Get("/search", lookupHandler.Search)
	app.Get("/status", lookupHandler.GetStatus)
	app.Post("/batch-lookup", lookupHandler.BatchLookup)
	app.Post("/validate-iban", lookupHandler.ValidateIBAN)

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return app
}
