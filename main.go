package main

import (
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"pricecatalog/cli"
	"pricecatalog/collections"
	"pricecatalog/config"
	"pricecatalog/handlers"
	"pricecatalog/logger"
	"pricecatalog/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config: load failed")
	}

	appLog := logger.Setup(logger.Options{
		ServiceName: "pricecatalog",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)
	engineMetrics := metrics.NewEngineMetrics(registry)

	app := pocketbase.New()

	app.RootCmd.AddCommand(cli.NewCommand(cli.Options{
		Config: cfg,
		Logger: appLog,
	}))

	// Create the collection, seed data and run migrations on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := collections.Setup(app); err != nil {
			return err
		}
		if cfg.App.Seed {
			if err := collections.Seed(app); err != nil {
				log.Warn().Err(err).Msg("seed: failed")
			}
		}
		if err := collections.MigrateLastVerified(app); err != nil {
			log.Warn().Err(err).Msg("migrate_last_verified: failed")
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Price store API ─────────────────────────────────────
		se.Router.GET("/api/price-data", handlers.Instrument(storeMetrics, "search", handlers.HandlePriceSearch(app, storeMetrics)))
		se.Router.POST("/api/price-data", handlers.Instrument(storeMetrics, "create", handlers.HandlePriceCreate(app)))
		se.Router.PATCH("/api/price-data", handlers.Instrument(storeMetrics, "update", handlers.HandlePriceUpdate(app)))
		se.Router.DELETE("/api/price-data/bulk", handlers.Instrument(storeMetrics, "bulk_delete", handlers.HandlePriceBulkDelete(app)))
		se.Router.DELETE("/api/price-data/{id}", handlers.Instrument(storeMetrics, "delete", handlers.HandlePriceDelete(app)))

		// ── Import ──────────────────────────────────────────────
		se.Router.POST("/api/price-data/import", handlers.Instrument(storeMetrics, "import", handlers.HandlePriceImport(app)))
		se.Router.POST("/api/price-data/import/errors", handlers.HandlePriceImportErrors(app))

		// ── Exports ─────────────────────────────────────────────
		se.Router.GET("/price-data/export/csv", handlers.Instrument(storeMetrics, "export_csv", handlers.HandlePriceExportCSV(app, engineMetrics)))
		se.Router.GET("/price-data/export/excel", handlers.Instrument(storeMetrics, "export_excel", handlers.HandlePriceExportExcel(app)))
		se.Router.GET("/price-data/export/pdf", handlers.Instrument(storeMetrics, "export_pdf", handlers.HandlePriceExportPDF(app)))

		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal().Err(err).Msg("pocketbase: start failed")
	}
}
