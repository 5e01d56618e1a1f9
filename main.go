package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	analyticsapp "driver-ledger/internal/analytics/application"
	exports "driver-ledger/internal/analytics/interfaces"
	apihttp "driver-ledger/internal/api/http"
	"driver-ledger/internal/audit"
	"driver-ledger/internal/config"
	ledgerapp "driver-ledger/internal/ledger/application"
	ledger "driver-ledger/internal/ledger/domain"
	"driver-ledger/internal/ledger/infrastructure/memory"
	"driver-ledger/internal/ledger/infrastructure/postgres"
	"driver-ledger/internal/ledger/infrastructure/sheet"
	"driver-ledger/internal/logger"
	"driver-ledger/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("timezone error")
	}

	store, counter, db, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("ledger store error")
	}
	if db != nil {
		defer db.Close()
	}
	metrics.Init(counter, log)

	var auditLog audit.Logger = audit.NewLogLogger(log.With().Str("component", "audit").Logger())
	if db != nil {
		auditLog = audit.NewRepository(db)
	}

	recorder, err := ledgerapp.NewRecorder(store,
		ledgerapp.WithLocation(loc),
		ledgerapp.WithHomeChargeRate(cfg.HomeChargeAmount()),
		ledgerapp.WithLogger(log.With().Str("component", "recorder").Logger()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("recorder init error")
	}
	reports, err := analyticsapp.NewReportService(store,
		analyticsapp.WithLocation(loc),
		analyticsapp.WithDailyTarget(cfg.DailyTargetAmount()),
		analyticsapp.WithCurrency(cfg.Currency),
		analyticsapp.WithLogger(log.With().Str("component", "reports").Logger()),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("report service init error")
	}

	apiOpts := apihttp.Options{Audit: auditLog, Platforms: cfg.Platforms}
	if cfg.PDFFont != "" {
		apiOpts.PDF = append(apiOpts.PDF, exports.WithUTF8Font(cfg.PDFFont))
	}
	mux := http.NewServeMux()
	apihttp.Register(mux, recorder, reports, store, apiOpts)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(mux, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("store", cfg.Store.Driver).
		Str("timezone", loc.String()).
		Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("http server stopped")
}

// openStore builds the configured ledger store and a row counter for the gauge.
// The database handle is returned for the postgres driver only.
func openStore(cfg config.StoreConfig) (ledger.Store, metrics.RecordCounter, *sql.DB, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		return store, countAll(store), nil, nil
	case config.DriverCSV, config.DriverXLSX:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, nil, err
		}
		var store *sheet.Store
		if cfg.Driver == config.DriverXLSX {
			store = sheet.NewXLSXStore(cfg.Path, cfg.Sheet)
		} else {
			store = sheet.NewCSVStore(cfg.Path)
		}
		return store, countAll(store), nil, nil
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		store := postgres.NewStore(db)
		return store, store.Count, db, nil
	default:
		return nil, nil, nil, config.ErrUnknownDriver
	}
}

func countAll(store ledger.Store) metrics.RecordCounter {
	return func(ctx context.Context) (int, error) {
		records, err := store.All(ctx)
		if err != nil {
			return 0, err
		}
		return len(records), nil
	}
}

func loggingMiddleware(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r.WithContext(logger.WithContext(r.Context(), log)))
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Msg("http")
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
