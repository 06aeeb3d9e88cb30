package main

import (
	"log"
	"strings"

	"pense-backend/internal/audit"
	"pense-backend/internal/auth"
	"pense-backend/internal/bons"
	"pense-backend/internal/config"
	"pense-backend/internal/export"
	"pense-backend/internal/frais"
	"pense-backend/internal/logger"
	"pense-backend/internal/models"
	"pense-backend/internal/stats"
	"pense-backend/internal/store"
	"pense-backend/internal/store/local"
	"pense-backend/internal/store/sheet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.AppEnv); err != nil {
		log.Fatalf("could not initialise logger: %v", err)
	}
	defer logger.Sync()

	// Record store: local SQL database or the spreadsheet web app. The audit
	// trail shares the database when there is one, otherwise it goes to the
	// log only.
	var (
		st       store.Store
		recorder audit.Recorder
		auditDB  *audit.GormRecorder
	)
	switch cfg.StoreBackend {
	case config.BackendSheet:
		st = sheet.New(cfg.SheetsWebAppURL)
		recorder = audit.LogRecorder{}
		logger.L().Infow("using sheet store", "url", cfg.SheetsWebAppURL)
	default:
		localStore, err := local.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.L().Fatalw("could not open database", "error", err)
		}
		st = localStore
		auditDB = audit.NewGormRecorder(localStore.DB())
		recorder = auditDB
		logger.L().Infow("using local store", "dsn", cfg.DatabaseDSN)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.L().Errorw("unexpected error", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())

	protected.Get("/bons", bons.ListBonsHandler(st))
	protected.Post("/bons", bons.CreateBonHandler(st, recorder))
	protected.Get("/bons/:id", bons.GetBonHandler(st))
	protected.Put("/bons/:id", bons.UpdateBonHandler(st, recorder))
	protected.Post("/bons/:id/versements", bons.CreateVersementHandler(st, recorder))
	protected.Get("/bons/:id/versements", bons.ListVersementsHandler(st))

	protected.Get("/frais", frais.ListFraisHandler(st))
	protected.Post("/frais", frais.CreateFraisHandler(st, recorder))
	protected.Put("/frais/:id", frais.UpdateFraisHandler(st, recorder))
	protected.Delete("/frais/:id", frais.DeleteFraisHandler(st, recorder))

	// Full-access only: deletions, figures and exports.
	full := protected.Group("")
	full.Use(auth.RequireRole(models.RoleFull))

	full.Delete("/bons/:id", bons.DeleteBonHandler(st, recorder))
	full.Get("/dashboard", stats.DashboardHandler(st))
	full.Get("/statistics", stats.StatisticsHandler(st))
	full.Get("/export", export.ExportHandler(st))
	if auditDB != nil {
		full.Get("/audit-logs", audit.ListAuditLogsHandler(auditDB))
	}

	logger.L().Infow("server listening", "port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.L().Fatalw("server stopped", "error", err)
	}
}
