package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/database"
	"document-delivery/internal/handlers"
	"document-delivery/internal/kafka"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/redis"
	"document-delivery/internal/services"
	"document-delivery/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const orderCacheTTL = 15 * time.Minute

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

// routeHandlers: HTTP-обработчики, которые раскладываются по маршрутам.
type routeHandlers struct {
	health    *handlers.HealthHandler
	delivery  *handlers.DeliveryHandler
	pricing   *handlers.PricingHandler
	orders    *handlers.OrderHandler
	reports   *handlers.ReportHandler
	rateLimit *handlers.RateLimitHandler
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting document delivery server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("Database schema applied")
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	referenceStore := store.NewPostgres(db).WithTimeout(time.Duration(cfg.Pricing.StoreTimeoutSeconds) * time.Second)
	referenceTTL := time.Duration(cfg.Pricing.ReferenceCacheTTLMinutes) * time.Minute

	resolver := services.NewPickupPointResolver(
		referenceStore,
		redisClient,
		log,
		models.GeoPoint{Latitude: cfg.Pricing.FallbackLat, Longitude: cfg.Pricing.FallbackLon},
		referenceTTL,
	)
	expressService := services.NewExpressPricingService(
		referenceStore,
		referenceStore,
		referenceStore,
		resolver,
		redisClient,
		log,
		services.ExpressPricingOptions{
			Depot:        models.GeoPoint{Latitude: cfg.Pricing.DepotLat, Longitude: cfg.Pricing.DepotLon},
			TariffTTL:    time.Duration(cfg.Pricing.TariffCacheTTLSeconds) * time.Second,
			ReferenceTTL: referenceTTL,
		},
	)
	documentService := services.NewDocumentPricingService(referenceStore, redisClient, log, referenceTTL)
	orderService := services.NewDocumentOrderService(db, log, documentService, expressService, producer, redisClient, orderCacheTTL)
	reportService := services.NewBillingReportService(db, redisClient, log, &cfg.Reports)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	routes := routeHandlers{
		health:    handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck).WithTariffProbe(referenceStore),
		delivery:  handlers.NewDeliveryHandler(expressService, log),
		pricing:   handlers.NewPricingHandler(documentService, log),
		orders:    handlers.NewOrderHandler(orderService, log),
		reports:   handlers.NewReportHandler(reportService, log, &cfg.Reports),
		rateLimit: handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit),
	}

	registerEventHandlers(consumer, services.NewCacheInvalidator(redisClient, log))
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(routes, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(h routeHandlers, rateLimiter handlers.MiddlewareLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(next http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, next))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(h.health.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(h.health.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(h.health.Liveness))
	mux.Handle("/metrics", promhttp.Handler())

	// Delivery reference data and quotes
	mux.HandleFunc("/api/delivery/communes", applyAPI(h.delivery.GetCommunes))
	mux.HandleFunc("/api/delivery/zones", applyAPI(h.delivery.GetZones))
	mux.HandleFunc("/api/delivery/availability", applyAPI(h.delivery.GetAvailability))
	mux.HandleFunc("/api/quotes/express", applyAPI(h.delivery.QuoteExpress))
	mux.HandleFunc("/api/quotes/depot", applyAPI(h.delivery.QuoteDepot))
	mux.HandleFunc("/api/pricing/documents", applyAPI(h.pricing.GetDocumentPrice))

	// Order endpoints
	mux.HandleFunc("/api/orders", applyAPI(h.orders.CreateOrder))
	mux.HandleFunc("/api/orders/", applyAPI(handleOrderRoute(h.orders)))

	mux.HandleFunc("/api/reports/billing", applyAPI(h.reports.GetBillingReport))
	mux.HandleFunc("/api/rate-limit/status", applyAPI(h.rateLimit.Status))

	return mux
}

// handleOrderRoute обрабатывает маршруты для отдельной заявки
func handleOrderRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			if r.Method == http.MethodPut {
				handler.UpdateOrderStatus(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}

		if r.Method == http.MethodGet {
			handler.GetOrder(w, r)
		} else {
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// eventRegistrar: часть consumer, нужная для регистрации обработчиков.
type eventRegistrar interface {
	RegisterHandler(eventType models.EventType, handler kafka.EventHandler)
}

// registerEventHandlers подписывает инвалидацию кешей на события справочников
func registerEventHandlers(consumer eventRegistrar, invalidator *services.CacheInvalidator) {
	consumer.RegisterHandler(models.EventTypeTariffUpdated, invalidator.HandleTariffUpdated)
	consumer.RegisterHandler(models.EventTypeReferenceUpdated, invalidator.HandleReferenceUpdated)
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
