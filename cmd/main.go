package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"wellpump/internal/config"
	"wellpump/internal/handlers"
	"wellpump/internal/logger"
	"wellpump/internal/metrics"
	"wellpump/internal/platform"
	"wellpump/internal/repository"
	"wellpump/internal/repository/db"
	"wellpump/internal/repository/filestore"
	"wellpump/internal/server"
	"wellpump/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalw("unknown time zone", "timezone", cfg.Window.Timezone, "err", err)
	}

	fs := afero.NewOsFs()

	// open DB
	sqlDB, err := openDB(fs, cfg.Storage.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := newRepository(cfg, sqlDB, fs)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	client := platform.NewClient(platform.Config{
		BaseURL: cfg.Platform.BaseURL,
		Timeout: cfg.Platform.Timeout,
		Breaker: platform.BreakerConfig{
			MaxFailures: cfg.Platform.Breaker.MaxFailures,
			OpenTimeout: cfg.Platform.Breaker.OpenTimeout,
			Interval:    cfg.Platform.Breaker.Interval,
		},
	}, repos.Sessions, collector, log)

	// wire dependencies
	services := service.NewService(service.Deps{
		Repos:    repos,
		Platform: client,
		Recorder: collector,
		Engine:   engineConfig(cfg, loc),
		Operator: service.OperatorConfig{
			Username:     cfg.Auth.Username,
			PasswordHash: cfg.Auth.PasswordHash,
			SigningKey:   cfg.Auth.SigningKey,
			TokenTTL:     cfg.Auth.TokenTTL,
		},
		Log: log,
	})
	apiHandler := handlers.NewHandler(services, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Poller.Run(ctx, cfg.Schedule.Interval)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server, apiHandler, log)

	log.Infow("wellpump started",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"timezone", loc.String(),
		"poll_interval", cfg.Schedule.Interval,
	)

	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database, creating its directory first.
func openDB(fs afero.Fs, path string) (*sql.DB, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return db.InitDB(path)
}

// newRepository keeps the event log in SQLite and puts the session and phase
// where storage.driver says.
func newRepository(cfg *config.Config, sqlDB *sql.DB, fs afero.Fs) *repository.Repository {
	repos := repository.NewRepository(sqlDB, cfg.Platform.SessionTTL)
	if cfg.Storage.Driver == config.StorageFile {
		repos.Sessions = filestore.NewSessionFile(fs, cfg.Storage.SessionFile, cfg.Platform.SessionTTL)
		repos.Phases = filestore.NewPhaseFile(fs, cfg.Storage.PhaseFile)
	}
	return repos
}

func engineConfig(cfg *config.Config, loc *time.Location) service.EngineConfig {
	return service.EngineConfig{
		Username:     cfg.Platform.Username,
		Password:     cfg.Platform.Password,
		Serial:       cfg.Platform.Serial,
		TelemetryKey: cfg.Platform.TelemetryKey,
		HighLevel:    cfg.Pump.HighLevel,
		LevelScale:   cfg.Pump.LevelScale,
		OnDuration:   cfg.Pump.OnDuration,
		OffDuration:  cfg.Pump.OffDuration,
		Outputs:      cfg.Pump.Outputs,
		Policy: service.AccessPolicy{
			Location: loc,
			Weekday:  minuteRanges(cfg.Window.Weekday),
			Weekend:  minuteRanges(cfg.Window.Weekend),
		},
	}
}

func minuteRanges(in []config.MinuteRange) []service.MinuteRange {
	out := make([]service.MinuteRange, 0, len(in))
	for _, r := range in {
		out = append(out, service.MinuteRange{From: r.From, To: r.To})
	}
	return out
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg config.ServerConfig, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		err := srv.Run(cfg.Port, handler.InitRoutes(), server.Timeouts{
			ReadHeader: cfg.ReadHeaderTimeout,
			Write:      cfg.WriteTimeout,
			Idle:       cfg.IdleTimeout,
		})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the poller
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
