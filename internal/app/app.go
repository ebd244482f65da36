// Package app assembles stores, services and background workers from configuration.
// Both the HTTP server and the foictl CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/internal/repository"
	"github.com/noah-isme/foi-request-api/internal/service"
	"github.com/noah-isme/foi-request-api/pkg/cache"
	"github.com/noah-isme/foi-request-api/pkg/config"
	"github.com/noah-isme/foi-request-api/pkg/database"
	"github.com/noah-isme/foi-request-api/pkg/jobs"
	"github.com/noah-isme/foi-request-api/pkg/storage"
)

// AuditStore persists and lists audit entries.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error)
}

type staffStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Staff, error)
	FindByID(ctx context.Context, id string) (*models.Staff, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	Upsert(ctx context.Context, staff *models.Staff) error
}

// App holds the wired object graph.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	DB        *sqlx.DB
	CacheRepo *repository.CacheRepository

	Store service.FOIRequestStore
	Audit AuditStore
	Staff staffStore

	Cache      *service.CacheService
	Requests   *service.FOIRequestService
	Reports    *service.FOIReportService
	Exporter   *service.ExportService
	ExportJobs *service.ExportJobService
	Queue      *jobs.Queue
	Auth       *service.AuthService
}

// New connects the configured backends and builds every service. The caller
// owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.openCache(ctx)

	a.Requests = service.NewFOIRequestService(service.FOIRequestServiceParams{
		Store:   a.Store,
		Audit:   a.Audit,
		Cache:   a.Cache,
		Metrics: a.Metrics,
		Logger:  logger.Named("requests"),
	})
	a.Reports = service.NewFOIReportService(service.FOIReportServiceParams{
		Store:    a.Store,
		Cache:    a.Cache,
		CacheTTL: cfg.Cache.ReportsTTL,
		Logger:   logger.Named("reports"),
	})

	if err := a.buildExports(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Auth.Enabled {
		a.Auth = service.NewAuthService(a.Staff, a.Audit, nil, logger.Named("auth"), service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		})
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.Store.Driver != config.StoreDriverPostgres {
		a.Store = repository.NewMemoryFOIRequestRepository()
		a.Audit = repository.NewMemoryAuditRepository()
		a.Staff = repository.NewMemoryStaffRepository()
		a.Logger.Info("using in-memory request store")
		return nil
	}

	db, err := database.NewPostgres(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	a.DB = db
	applied, err := repository.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		a.Logger.Info("applied migrations", zap.Strings("files", applied))
	}
	a.Store = repository.NewFOIRequestRepository(db)
	a.Audit = repository.NewAuditRepository(db)
	a.Staff = repository.NewStaffRepository(db)
	a.Logger.Info("using postgres request store", zap.String("host", a.Config.Database.Host), zap.String("db", a.Config.Database.Name))
	return nil
}

// openCache degrades to no caching when Redis is unreachable.
func (a *App) openCache(ctx context.Context) {
	enabled := a.Config.Cache.Enabled
	if enabled {
		client, err := cache.NewRedis(ctx, a.Config.Redis)
		if err != nil {
			a.Logger.Warn("redis unavailable, report caching disabled", zap.Error(err))
			enabled = false
		} else {
			a.CacheRepo = repository.NewCacheRepository(client)
		}
	}
	var repo service.CacheRepository
	if a.CacheRepo != nil {
		repo = a.CacheRepo
	}
	a.Cache = service.NewCacheService(repo, a.Metrics, a.Config.Cache.ReportsTTL, a.Logger.Named("cache"), enabled)
}

func (a *App) buildExports() error {
	cfg := a.Config.Exports
	files, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		return err
	}
	a.Exporter = service.NewExportService(service.ExportServiceParams{
		Store:   a.Store,
		Storage: files,
		Signer:  storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		Config:  service.ExportConfig{APIPrefix: a.Config.APIPrefix, ResultTTL: cfg.SignedURLTTL},
		Logger:  a.Logger.Named("exports"),
	})
	a.ExportJobs = service.NewExportJobService(
		repository.NewMemoryExportJobRepository(),
		nil,
		a.Exporter,
		a.Metrics,
		a.Logger.Named("export-jobs"),
		service.ExportJobServiceConfig{CleanupInterval: cfg.CleanupInterval},
	)
	a.Queue = jobs.NewQueue("exports", a.ExportJobs.Handle, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     a.Logger,
		OnGiveUp:   a.ExportJobs.Abandon,
	})
	a.ExportJobs.SetQueue(a.Queue)
	return nil
}

// SeedSample loads the demonstration records when the store is empty.
func (a *App) SeedSample(ctx context.Context) (int, error) {
	seeded, err := a.Requests.SeedSample(ctx)
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		a.Logger.Info("seeded sample requests", zap.Int("count", seeded))
	}
	return seeded, nil
}

// EnsureAdmin creates or refreshes the bootstrap coordinator account.
func (a *App) EnsureAdmin(ctx context.Context) error {
	if a.Auth == nil {
		return errors.New("authentication disabled")
	}
	_, err := a.Auth.EnsureAccount(ctx, a.Config.Auth.AdminEmail, a.Config.Auth.AdminPassword, "Privacy Coordinator", models.RoleCoordinator)
	return err
}

// Ping checks the external backends that are configured.
func (a *App) Ping(ctx context.Context) map[string]error {
	results := map[string]error{}
	if a.DB != nil {
		results["postgres"] = a.DB.PingContext(ctx)
	}
	if a.CacheRepo != nil {
		results["redis"] = a.CacheRepo.Ping(ctx)
	}
	return results
}

// Close releases backend connections.
func (a *App) Close() {
	if a.CacheRepo != nil {
		if err := a.CacheRepo.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
