package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/analyze"
	"procurement-backend/internal/classify"
	"procurement-backend/internal/documents"
	"procurement-backend/internal/services/health"
	"procurement-backend/internal/shared/config"
	"procurement-backend/internal/shared/server"
	"procurement-backend/internal/shared/storage/db"
	"procurement-backend/internal/shared/storage/object"
	localstore "procurement-backend/internal/shared/storage/object/local"
	s3store "procurement-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	Health           *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo documents.Repo
	if sqlDB != nil {
		repo = documents.NewPGRepo(sqlDB)
	} else {
		repo = documents.NewMemoryRepo()
	}

	svc := &documents.Service{
		Store:          store,
		Repo:           repo,
		Classifier:     classify.NewHeuristic(),
		Analyzer:       analyze.NewEngine(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	app := &App{
		Config:           cfg,
		DB:               sqlDB,
		Store:            store,
		DocumentsRepo:    repo,
		DocumentsService: svc,
		DocumentsHandler: documents.NewHandler(svc),
		Health:           health.NewService(sqlDB),
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.DocumentsHandler,
		Health:          app.Health,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory registry")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory registry: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.UploadDir)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
