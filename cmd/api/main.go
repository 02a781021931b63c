package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/taller-facturacion/internal/application/analytics"
	"github.com/jhoicas/taller-facturacion/internal/application/auth"
	"github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/database"
	infrapdf "github.com/jhoicas/taller-facturacion/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/taller-facturacion/internal/interfaces/http"
	"github.com/jhoicas/taller-facturacion/pkg/config"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	gw, err := database.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a la base de datos")
	}
	defer gw.Close()
	if err := gw.Migrate(ctx); err != nil {
		// Fatal termina sin ejecutar los defer
		_ = gw.Close()
		log.Fatal().Err(err).Msg("migración del esquema")
	}
	log.Info().Str("dialect", gw.Dialect()).Msg("base de datos lista")

	txRunner := database.NewTxRunner(gw)
	customerUC := billing.NewCustomerUseCase(txRunner, log)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, log)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	pdfUC := billing.NewPDFUseCase(txRunner, pdfGenerator, cfg.PDF.OutputDir, log)
	dashboardUC := appanalytics.NewDashboardUseCase(invoiceUC, customerUC)
	authUC := auth.NewAuthUseCase(txRunner, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	app := httpRouter.NewApp(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	}, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CustomerUC:  customerUC,
		InvoiceUC:   invoiceUC,
		PDFUC:       pdfUC,
		DashboardUC: dashboardUC,
		JWTSecret:   cfg.JWT.Secret,
		AppName:     cfg.App.Name,
		SwaggerFile: cfg.App.SwaggerFile,
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
