package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/bakeruu/storefront/internal/domain/cart"
	"github.com/bakeruu/storefront/internal/domain/catalog"
	"github.com/bakeruu/storefront/internal/domain/stock"
	"github.com/bakeruu/storefront/internal/handler"
	"github.com/bakeruu/storefront/internal/sheets"
	"github.com/bakeruu/storefront/internal/storage"
	"github.com/bakeruu/storefront/pkg/health"
	"github.com/bakeruu/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Spreadsheet client. Reads use the API key, stock writes the bearer
	// token when one is configured.
	sheetsClient := sheets.New(sheets.Config{
		SpreadsheetID: cfg.Sheets.SpreadsheetID,
		APIKey:        cfg.Sheets.APIKey,
		Tokens:        sheets.StaticToken(cfg.Sheets.WriteToken),
	}, lg.Named("sheets"))

	// Cart snapshots: per-session files when a directory is configured,
	// process memory otherwise.
	var cartStorage storage.Storage
	if cfg.CartDir != "" {
		fs, err := storage.NewFileStorage(cfg.CartDir)
		if err != nil {
			return errors.Wrap(err, "create cart storage")
		}
		cartStorage = fs
	} else {
		cartStorage = storage.NewMemory()
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("sheets", 10*time.Second, func(ctx context.Context) error {
		_, err := sheetsClient.FetchRange(ctx, cfg.Catalog.ProductRange)
		return err
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 30*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	catalogReader := catalog.NewReader(sheetsClient, catalog.Config{
		ProductRange:     cfg.Catalog.ProductRange,
		TestimonialRange: cfg.Catalog.TestimonialRange,
	}, lg.Named("catalog"))
	stockService := stock.NewService(sheetsClient, sheetsClient, stock.Config{
		ProductRange: cfg.Catalog.ProductRange,
	}, lg.Named("stock"))
	cartManager := cart.NewManager(cartStorage, lg.Named("cart"))

	// HTTP handlers.
	h := handler.New(catalogReader, stockService, cartManager)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	api := otelhttp.NewHandler(mux, "storefront-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(api,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Cart-Session"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
