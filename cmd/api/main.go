package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/workflow"
	"github.com/jhoicas/invoice-lifecycle/internal/infrastructure/memory"
	"github.com/jhoicas/invoice-lifecycle/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/invoice-lifecycle/internal/infrastructure/pdf"
	"github.com/jhoicas/invoice-lifecycle/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/invoice-lifecycle/internal/interfaces/http"
	"github.com/jhoicas/invoice-lifecycle/pkg/config"
	"github.com/jhoicas/invoice-lifecycle/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	// Tabla de transiciones: archivo YAML si está configurado, si no la embebida.
	table := workflow.DefaultTable()
	if cfg.Workflow.TransitionsFile != "" {
		table, err = workflow.LoadTable(cfg.Workflow.TransitionsFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Workflow.TransitionsFile).Msg("cargar tabla de transiciones")
		}
	}
	engine := workflow.NewEngine(table)

	ctx := context.Background()
	var (
		invoiceRepo repository.InvoiceRepository
		txRunner    billing.InvoiceTxRunner
	)
	switch cfg.DB.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		invoiceRepo = store.Repository()
		txRunner = store
		log.Warn().Msg("persistencia en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migración del esquema")
			}
		}
		invoiceRepo = postgres.NewInvoiceRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	var recorder billing.ActionRecorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New(prometheus.DefaultRegisterer)
	}

	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, engine, log, recorder)

	// PDF: representación gráfica de la factura
	invoicePDFUC := billing.NewPDFUseCase(invoiceRepo, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invoice Lifecycle API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		InvoiceUC:  invoiceUC,
		InvoicePDF: invoicePDFUC,
		Auth: httpRouter.AuthConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
		},
		Logger: log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
