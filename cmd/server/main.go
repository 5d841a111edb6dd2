package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"veriscan/internal/catalog"
	cataloghandler "veriscan/internal/catalog/handler"
	"veriscan/internal/fraud"
	fraudhandler "veriscan/internal/fraud/handler"
	jwttoken "veriscan/internal/jwt_token"
	"veriscan/internal/ledger"
	"veriscan/internal/platform/config"
	"veriscan/internal/platform/httpserver"
	"veriscan/internal/platform/logger"
	"veriscan/internal/platform/metrics"
	platformredis "veriscan/internal/platform/redis"
	"veriscan/internal/scan"
	scanhandler "veriscan/internal/scan/handler"
	httptransport "veriscan/internal/transport/http"
	"veriscan/internal/verify"
	verifyhandler "veriscan/internal/verify/handler"
	verifymetrics "veriscan/internal/verify/metrics"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scan store: Redis when configured, memory otherwise.
	var scanStore scan.Store = scan.NewMemoryStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		scanStore = scan.NewRedisStore(redisClient.Client)
		log.Info("using redis scan store")
	} else {
		log.Warn("REDIS_URL not set, using in-memory scan store")
	}

	// Catalog store: Postgres when configured, memory otherwise.
	var catalogStore catalog.Store = catalog.NewMemoryStore()
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		catalogStore = catalog.NewPostgres(db)
		log.Info("using postgres catalog store")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory catalog store")
	}

	// Scan event publisher, best-effort behind a circuit breaker.
	var publisher *scan.Publisher
	if cfg.KafkaBrokers != "" {
		publisher, err = scan.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		log.Info("publishing scan events", "topic", cfg.KafkaTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set, scan events will not be published")
	}

	// Ledger reader: live chain client when configured, seeded mock
	// otherwise so the service is exercisable out of the box.
	var reader ledger.Reader
	if cfg.LedgerRPCURL != "" && cfg.RegistryContract != "" {
		ethReader, err := ledger.Dial(ctx, cfg.LedgerRPCURL, cfg.RegistryContract)
		if err != nil {
			log.Error("failed to connect to ledger", "error", err)
			os.Exit(1)
		}
		reader = ethReader
		log.Info("using ledger rpc", "contract", cfg.RegistryContract)
	} else {
		mock := ledger.NewMockReader()
		mock.Latency = 20 * time.Millisecond
		seedMockLedger(mock)
		reader = mock
		log.Warn("LEDGER_RPC_URL not set, using seeded mock ledger")
	}

	scanService := scan.NewService(scanStore, publisher, log, cfg.Fraud.ListMaxPageSize)
	evaluator := verify.NewEvaluator(reader, scanService, log,
		verify.WithMetrics(verifymetrics.New()),
		verify.WithLookupTimeout(cfg.LookupTimeout),
	)
	detector := fraud.NewDetector(scanStore, cfg.Fraud, log)
	catalogService := catalog.NewService(catalogStore, log, cfg.Fraud.ListPageSize, cfg.Fraud.ListMaxPageSize)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Verify:  verifyhandler.New(evaluator, log),
		Scans:   scanhandler.New(scanService, log),
		Fraud:   fraudhandler.New(detector, log),
		Catalog: cataloghandler.New(catalogService, log),
		Auth:    jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:  log,
		Metrics: metrics.New(),
		Health: func() map[string]string {
			status := make(map[string]string)
			if redisClient != nil {
				state := "ok"
				if err := redisClient.Health(context.Background()); err != nil {
					state = "unavailable"
				}
				status["redis"] = state
			}
			if db != nil {
				state := "ok"
				if err := db.Ping(); err != nil {
					state = "unavailable"
				}
				status["postgres"] = state
			}
			return status
		},
		RequestTimeout: 30 * time.Second,
	})

	server := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}

	if publisher != nil {
		publisher.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}

// seedMockLedger loads a few fixture products so local scans return every
// verdict classification.
func seedMockLedger(mock *ledger.MockReader) {
	const (
		manufacturer = "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
		retailer     = "0x1111111111111111111111111111111111111111"
	)
	mock.TrustManufacturer(manufacturer)
	mock.TrustRetailer(retailer)
	mock.SetOwner(manufacturer)

	mock.SeedProduct(ledger.ProductFact{
		ProductID:          "DEMO-AVAILABLE",
		Exists:             true,
		Manufacturer:       manufacturer,
		ManufactureDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		BatchNumber:        "B-2026-001",
		Category:           "pharma",
		Status:             ledger.StatusAvailable,
		ContentFingerprint: verify.Fingerprint(`{"name":"Demo Product","batch":"B-2026-001"}`),
	}, nil)

	mock.SeedProduct(ledger.ProductFact{
		ProductID:       "DEMO-SOLD",
		Exists:          true,
		Manufacturer:    manufacturer,
		ManufactureDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		BatchNumber:     "B-2026-002",
		Status:          ledger.StatusSold,
	}, &ledger.SaleFact{
		ProductID: "DEMO-SOLD",
		WasSold:   true,
		Retailer:  retailer,
		SaleDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Location:  "Berlin",
	})
}
