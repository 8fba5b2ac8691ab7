package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/posflow/internal/account"
	"github.com/joao-fontenele/posflow/internal/catalog"
	"github.com/joao-fontenele/posflow/internal/checkout"
	"github.com/joao-fontenele/posflow/internal/config"
	"github.com/joao-fontenele/posflow/internal/messaging"
	"github.com/joao-fontenele/posflow/internal/orders"
	"github.com/joao-fontenele/posflow/internal/reporting"
	"github.com/joao-fontenele/posflow/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadPOS()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid store timezone", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "pos", cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("pos", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	salesMetrics, err := telemetry.NewSalesMetrics(otel.Meter("pos"))
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.Postgres.URL, cfg.Schema)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var sessions checkout.SessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		sessions = checkout.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, checkout sessions are kept in memory")
		sessions = checkout.NewMemoryStore()
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
	}

	format := checkout.ReceiptFormat{
		StoreName:      cfg.Store.Name,
		CurrencyPrefix: cfg.CurrencyPrefix,
		Location:       loc,
	}

	productRepo := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	catalogService := catalog.NewService(productRepo, cfg.MaxImageBytes, logger)
	checkoutOpts := []checkout.Option{
		checkout.WithMetrics(salesMetrics),
		checkout.WithReceiptFormat(format),
	}
	var ordersPublisher orders.Publisher
	if producer != nil {
		checkoutOpts = append(checkoutOpts, checkout.WithPublisher(producer))
		ordersPublisher = producer
	}
	checkoutService := checkout.NewService(catalogService, orderRepo, sessions, logger, checkoutOpts...)
	reportingService := reporting.NewService(orderRepo, productRepo, loc, logger)

	catalogHandler := catalog.NewHandler(catalogService, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, logger)
	ordersHandler := orders.NewHandler(orderRepo, ordersPublisher, salesMetrics, format, logger)
	reportingHandler := reporting.NewHandler(reportingService, logger)

	protect := func(h http.Handler) http.Handler { return h }
	var accountHandler *account.Handler
	if cfg.AuthEnabled() {
		provider, err := account.NewFirebaseProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Error("failed to initialize auth provider", "error", err)
			os.Exit(1)
		}
		protect = account.Middleware(provider, logger)
		accountHandler = account.NewHandler(account.NewService(provider), logger)
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set, authentication is disabled")
	}

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, telemetry.WithHTTPRoute(protect(h)))
	}

	route("GET /products", catalogHandler.HandleList)
	route("GET /products/{id}", catalogHandler.HandleGet)
	route("POST /products", catalogHandler.HandleCreate)
	route("PUT /products/{id}", catalogHandler.HandleUpdate)
	route("DELETE /products/{id}", catalogHandler.HandleDelete)
	route("PUT /products/{id}/image", catalogHandler.HandleUploadImage)

	route("POST /checkout/sessions", checkoutHandler.HandleNewSession)
	route("GET /checkout/products", checkoutHandler.HandleProducts)
	route("GET /checkout/sessions/{sid}", checkoutHandler.HandleGetCart)
	route("POST /checkout/sessions/{sid}/lines", checkoutHandler.HandleAddLine)
	route("PUT /checkout/sessions/{sid}/lines/{productId}", checkoutHandler.HandleSetQuantity)
	route("DELETE /checkout/sessions/{sid}/lines/{productId}", checkoutHandler.HandleRemoveLine)
	route("POST /checkout/sessions/{sid}/submit", checkoutHandler.HandleSubmit)

	route("GET /orders", ordersHandler.HandleList)
	route("GET /orders/{id}", ordersHandler.HandleGet)
	route("DELETE /orders/{id}", ordersHandler.HandleReverse)
	route("GET /orders/{id}/receipt", ordersHandler.HandleReceipt)

	route("GET /reports/monthly", reportingHandler.HandleMonthly)

	if accountHandler != nil {
		route("GET /account", accountHandler.HandleGet)
		route("PUT /account", accountHandler.HandleUpdate)
	}

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewServerHandler(mux, "pos"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting pos service", "port", cfg.Port, "auth", cfg.AuthEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
