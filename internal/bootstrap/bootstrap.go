package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/eduserv/ledger/internal/app/auth"
	appControllers "github.com/eduserv/ledger/internal/app/controllers"
	appMigrations "github.com/eduserv/ledger/internal/app/migrations"
	appRepos "github.com/eduserv/ledger/internal/app/repositories"
	"github.com/eduserv/ledger/internal/app/repositories/memory"
	appRoutes "github.com/eduserv/ledger/internal/app/routes"
	appServices "github.com/eduserv/ledger/internal/app/services"
	"github.com/eduserv/ledger/internal/config"
	"github.com/eduserv/ledger/internal/db"
	appMiddleware "github.com/eduserv/ledger/internal/middleware"
	pkgAuth "github.com/eduserv/ledger/internal/pkg/auth"
	"github.com/eduserv/ledger/internal/pkg/helpers"
	"github.com/eduserv/ledger/internal/pkg/logger"
	"github.com/eduserv/ledger/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := NewLogger(cfg)
	lgr.Info().
		Str("logLevel", cfg.Logging.Level).
		Str("logFormat", cfg.Logging.Format).
		Str("driver", cfg.Database.Driver).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// NewLogger configures the process logger from the logging section.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return logger.Configure(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Format == "text",
	})
}

// ConnectDatabase opens the Postgres pool and pings it.
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// RunMigrations applies every pending file in the configured migrations directory.
func RunMigrations(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// SetupStorage returns the repository set for the configured driver and a
// cleanup func. Postgres storage is migrated before it is returned.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory storage; data is lost on exit")
		return memory.NewStore().Repositories(), func() {}, nil
	}

	pool, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, nil, err
	}
	if err := RunMigrations(ctx, cfg, pool, lgr); err != nil {
		pool.Close()
		return nil, nil, err
	}
	cleanup := func() {
		lgr.Info().Msg("Closing database connection pool...")
		pool.Close()
	}
	return appRepos.NewRepositories(pool), cleanup, nil
}

// SeedIfEnabled creates the default catalogs when the seed section asks for it.
func SeedIfEnabled(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) {
	if !cfg.Seed.Enabled {
		return
	}
	if err := seed.CreateDefaultData(ctx, repos, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// NewJWTService builds the token service from the auth section.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.Auth.Secret,
		TokenExp:    helpers.ParseDuration(cfg.Auth.TokenTTL, 12*time.Hour),
		TokenIssuer: cfg.Auth.Issuer,
	})
}

// BuildDependencies initializes services, middleware and controllers over repos.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Repos: repos, Logger: lgr}

	svcLogger := lgr.With().Str("component", "services").Logger()
	deps.Services = appServices.NewServices(repos, appServices.Options{Logger: &svcLogger})

	deps.JWTService = NewJWTService(cfg)
	deps.AuthzService = appAuth.NewAuthorizationService(cfg.Auth.WriteRoles)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService, cfg.Auth.Enabled)
	if !cfg.Auth.Enabled {
		lgr.Warn().Msg("Authentication disabled; every request runs as the system operator")
	}

	deps.Controllers = appRoutes.Controllers{
		Program: appControllers.NewProgramController(deps.Services.ProgramService),
		Fee:     appControllers.NewFeeController(deps.Services.FeeService),
		Student: appControllers.NewStudentController(deps.Services.StudentService),
		Payment: appControllers.NewPaymentController(deps.Services.PaymentService, deps.Services.FeeService),
		Expense: appControllers.NewExpenseController(deps.Services.ExpenseService),
	}

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	appMiddleware.RegisterJSONTagNames()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(deps.Logger))

	metricsPath := ""
	if cfg.Metrics.Enabled {
		router.Use(appMiddleware.Metrics())
		metricsPath = cfg.Metrics.Path
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, metricsPath)
	return router
}
