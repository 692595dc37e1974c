package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"meterdata-cloud/internal/auth"
	billinginterfaces "meterdata-cloud/internal/billing/interfaces"
	"meterdata-cloud/internal/observability/metrics"
	readingsapp "meterdata-cloud/internal/readings/application"
	readingsrepo "meterdata-cloud/internal/readings/infrastructure/postgres"
	readingshttp "meterdata-cloud/internal/readings/interfaces/httpapi"
	urjapp "meterdata-cloud/internal/urjanet/application"
	urjanet "meterdata-cloud/internal/urjanet/domain"
	urjrepo "meterdata-cloud/internal/urjanet/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxConns)

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	profiles, err := urjapp.LoadProfiles(cfg.ProfilePath)
	if err != nil {
		logger.Fatalf("profiles error: %v", err)
	}
	logger.Printf("profiles loaded: %d utilities", len(profiles.Names()))

	warehouse := urjrepo.NewWarehouseRepository(db)
	reconcileService, err := urjapp.NewReconcileService(warehouse, profiles, urjanet.LogSink{Logger: logger})
	if err != nil {
		logger.Fatalf("reconcile service error: %v", err)
	}

	readingRepo := readingsrepo.NewReadingRepository(db)
	ingestService, err := readingsapp.NewIngestService(readingRepo)
	if err != nil {
		logger.Fatalf("readings service error: %v", err)
	}

	ingestHandler, err := readingshttp.NewIngestHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	timelineHandler, err := readingshttp.NewTimelineHandler(ingestService)
	if err != nil {
		logger.Fatalf("timeline handler error: %v", err)
	}
	billsHandler, err := billinginterfaces.NewBillsHandler(reconcileService, logger)
	if err != nil {
		logger.Fatalf("bills handler error: %v", err)
	}
	exportHandler, err := billinginterfaces.NewBillExportHandler(reconcileService, logger)
	if err != nil {
		logger.Fatalf("bill export handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/ingest/readings", ingestHandler)
	mux.Handle("/api/v1/timeline", timelineHandler)
	mux.Handle("/api/v1/bills", billsHandler)
	mux.Handle("/api/v1/bills/export", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	ProfilePath       string
	JWTSecret         string
	DBMaxConns        int
	ReadHeaderTimeout time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		ProfilePath:       getenvDefault("PROFILE_CONFIG_PATH", ""),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		DBMaxConns:        getenvIntDefault("DB_MAX_CONNS", 10),
		ReadHeaderTimeout: getenvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
