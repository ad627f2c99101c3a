package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/activity"
	activityPostgres "github.com/campusid/parking-portal/internal/activity/postgres"
	"github.com/campusid/parking-portal/internal/blob"
	"github.com/campusid/parking-portal/internal/core/events"
	"github.com/campusid/parking-portal/internal/credential"
	"github.com/campusid/parking-portal/internal/identity"
	"github.com/campusid/parking-portal/internal/qr"
	"github.com/campusid/parking-portal/internal/session"
	"github.com/campusid/parking-portal/internal/transport"
	"github.com/campusid/parking-portal/internal/transport/middleware"
	"github.com/campusid/parking-portal/internal/transport/rest"
	"github.com/campusid/parking-portal/internal/transport/swagger"
	"github.com/campusid/parking-portal/internal/user"
	userPostgres "github.com/campusid/parking-portal/internal/user/postgres"
	"github.com/campusid/parking-portal/internal/vehicle"
	vehiclePostgres "github.com/campusid/parking-portal/internal/vehicle/postgres"
	"github.com/campusid/parking-portal/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	Gorm           *gorm.DB
	DB             *sql.DB
	Router         *chi.Mux
	SessionHandler *session.Handler
	Blobs          blob.Store
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	opts := rest.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BackgroundPath: cfg.Assets.BackgroundPath,
	}

	if cfg.Server.OpenAPIPath != "" {
		if _, err := swagger.LoadSpec(context.Background(), cfg.Server.OpenAPIPath); err != nil {
			return err
		}
		opts.OpenAPIPath = cfg.Server.OpenAPIPath
	}
	if deps.Blobs != nil {
		opts.Bucket = cfg.Storage.Bucket
	}
	if cfg.Observability.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = middleware.NewMetrics(reg)
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, deps.SessionHandler, opts)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)

	deps := &Dependencies{
		Config: config,
		Router: chi.NewRouter(),
		Logger: lg,
	}

	// Repositories stay nil interfaces when the store is down so every
	// service reports StoreUnavailable instead of failing to start.
	var (
		userRepo     user.RepositoryAPI
		activityRepo activity.RepositoryAPI
		vehicleRepo  vehicle.RepositoryAPI
	)
	if config.Database.Source == "" {
		lg.Warn("database source not configured; store-backed features unavailable")
	} else if gormDB, sqlDB, err := initDB(config.Database); err != nil {
		lg.Error("database unavailable; store-backed features disabled", "error", err)
	} else {
		deps.Gorm, deps.DB = gormDB, sqlDB
		userRepo = userPostgres.NewUserRepository(gormDB)
		vehicleRepo = vehiclePostgres.NewVehicleRepository(gormDB)
		activityRepo = activityPostgres.NewActivityRepository(sqlx.NewDb(sqlDB, "pgx"))
	}

	if config.Storage.Enabled() {
		store, err := blob.NewSupabaseStore(blob.SupabaseConfig{
			URL:       config.Storage.URL,
			Key:       config.Storage.Key,
			Bucket:    config.Storage.Bucket,
			PublicURL: config.Storage.PublicURL,
		}, lg)
		if err != nil {
			lg.Error("blob store unavailable", "error", err)
		} else {
			deps.Blobs = store
		}
	} else {
		lg.Warn("storage not configured; identity QR and vehicle registration unavailable")
	}

	hasher, err := credential.New(config.Security.PasswordScheme, config.Security.BCryptCost)
	if err != nil {
		return nil, err
	}
	codec := qr.NewPNGCodec(config.QR.Size, config.QR.TempDir)

	users := user.NewService(userRepo, hasher, lg)
	activities := activity.NewService(activityRepo, lg)
	vehicles := vehicle.NewService(vehicleRepo, deps.Blobs, codec, lg)
	issuer := identity.NewIssuer(users, deps.Blobs, codec, lg)

	bus := events.NewEventBus(lg)
	activity.NewEventHandler(activities, lg).RegisterEventHandlers(bus)

	if config.Security.AdminPasswordDigest == "" {
		lg.Warn("admin password digest not configured; admin login disabled")
	}
	controller := session.NewController(session.Dependencies{
		Users:     users,
		Activity:  activities,
		Identity:  issuer,
		Vehicles:  vehicles,
		Publisher: bus,
		Hasher:    hasher,
		Admin: session.AdminAccount{
			Username:       config.Security.AdminUsername,
			PasswordDigest: config.Security.AdminPasswordDigest,
		},
		Logger: lg,
	})

	handler := session.NewHandler(
		transport.NewBaseHandler(lg),
		controller,
		session.NewTokenCodec(config.Security.SessionSecret, config.Security.SessionTTL),
	)
	if config.Server.MaxPhotoBytes > 0 {
		handler.MaxPhotoBytes = config.Server.MaxPhotoBytes
	}
	deps.SessionHandler = handler

	return deps, nil
}

// initDB opens gorm over pgx and returns the pooled *sql.DB it shares with sqlx.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, sqlDB, nil
}
