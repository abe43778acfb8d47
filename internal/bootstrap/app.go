package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/analysis"
	"compliance-backend/internal/feedback"
	"compliance-backend/internal/integrations"
	"compliance-backend/internal/integrations/httpapi"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/llm/anthropic"
	"compliance-backend/internal/llm/ollama"
	"compliance-backend/internal/llm/openai"
	"compliance-backend/internal/queue"
	"compliance-backend/internal/recommendations"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/server"
	"compliance-backend/internal/shared/storage/db"
	"compliance-backend/internal/shared/storage/kv"
	"compliance-backend/internal/shared/storage/object"
	localstore "compliance-backend/internal/shared/storage/object/local"
	s3store "compliance-backend/internal/shared/storage/object/s3"
)

const snapshotPrefix = "snapshots"

// App holds shared dependencies for the API, worker and CLI binaries.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	KV     kv.Store
	Queue  queue.Client

	Gateway         *llm.Gateway
	ConfigRepo      *llm.ConfigRepo
	Recommendations *recommendations.Service
	Analysis        *analysis.Service
	Actions         *actions.Service
	Executor        *actions.Executor
	Batches         *actions.BatchExecutor
	BatchRepo       *actions.BatchRepo
	Feedback        *feedback.Service
	Integrations    integrations.Set
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	store, sqlDB, err := buildKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	set, err := buildIntegrations(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:       cfg,
		DB:           sqlDB,
		KV:           store,
		Queue:        queueClient,
		Integrations: set,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:                 cfg,
		RecommendationsHandler: recommendations.NewHandler(app.Recommendations),
		AnalysisHandler:        analysis.NewHandler(app.Analysis),
		ActionsHandler:         actions.NewHandler(app.Actions, app.Executor, app.Batches, app.BatchRepo, app.Queue),
		FeedbackHandler:        feedback.NewHandler(app.Feedback),
		ConfigHandler:          llm.NewHandler(app.ConfigRepo),
	})
	return app, nil
}

// RunBatch executes a queued batch and stores its record.
func (a *App) RunBatch(ctx context.Context, batchID string, req actions.BatchRequest) (actions.BatchResult, error) {
	return a.BatchRepo.Run(ctx, a.Batches, batchID, req)
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildKV(ctx context.Context, cfg config.Config) (kv.Store, *sql.DB, error) {
	switch cfg.StoreBackend {
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: database connect failed; using in-memory store: %v", err)
				return kv.NewMemoryStore(), nil, nil
			}
			return nil, nil, err
		}
		return sqlStore(ctx, sqlDB, db.DialectPostgres)
	case "sqlite":
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlStore(ctx, sqlDB, db.DialectSQLite)
	case "object":
		objects, err := buildObjectStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewSnapshotStore(objects, snapshotPrefix), nil, nil
	default:
		log.Printf("bootstrap: using in-memory store")
		return kv.NewMemoryStore(), nil, nil
	}
}

func sqlStore(ctx context.Context, sqlDB *sql.DB, dialect string) (kv.Store, *sql.DB, error) {
	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := kv.NewSQLStore(sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return store, sqlDB, nil
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.BatchQueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.BatchQueueURL, cfg.AWSRegion)
}

func buildIntegrations(ctx context.Context, cfg config.Config) (integrations.Set, error) {
	var set integrations.Set

	calCfg := integrationConfig(cfg.Calendar)
	cal, err := integrationClient(ctx, "calendar", calCfg)
	if err != nil {
		return set, err
	}
	if cal != nil {
		set.Calendar = cal
	}
	set.CalendarConfig = calCfg

	emailCfg := integrationConfig(cfg.Email)
	email, err := integrationClient(ctx, "email", emailCfg)
	if err != nil {
		return set, err
	}
	if email != nil {
		set.Email = email
	}
	set.EmailConfig = emailCfg

	tasksCfg := integrationConfig(cfg.Tasks)
	tasks, err := integrationClient(ctx, "tasks", tasksCfg)
	if err != nil {
		return set, err
	}
	if tasks != nil {
		set.Tasks = tasks
	}
	set.TasksConfig = tasksCfg
	return set, nil
}

// integrationClient returns nil for disabled integrations. An enabled one
// without an endpoint is a configuration error.
func integrationClient(ctx context.Context, name string, cfg integrations.Config) (*httpapi.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := httpapi.New(ctx, cfg, nil)
	if errors.Is(err, httpapi.ErrNoEndpoint) {
		return nil, fmt.Errorf("%s integration enabled without endpoint", name)
	}
	return client, err
}

func integrationConfig(c config.IntegrationConfig) integrations.Config {
	return integrations.Config{
		Enabled:         c.Enabled,
		Provider:        c.Provider,
		Endpoint:        c.Endpoint,
		DefaultCalendar: c.DefaultCalendar,
		DefaultProject:  c.DefaultProject,
		ClientID:        c.ClientID,
		ClientSecret:    c.ClientSecret,
		TokenURL:        c.TokenURL,
	}
}

// DefaultProviderConfig builds the fallback provider record from AI_* settings.
func DefaultProviderConfig(cfg config.Config) llm.Config {
	return llm.Config{
		ID:          "default",
		Provider:    llm.ProviderKind(cfg.AIProvider),
		Model:       cfg.AIModel,
		APIKey:      cfg.AIAPIKey,
		APIEndpoint: cfg.AIAPIEndpoint,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
		Enabled:     true,
	}
}

// NewGateway wires the three provider adapters behind one gateway.
func NewGateway(cfg config.Config, source llm.ConfigSource) *llm.Gateway {
	httpClient := &http.Client{}
	return llm.NewGateway(source, DefaultProviderConfig(cfg), cfg.AITimeout, map[llm.ProviderKind]llm.ProviderClient{
		llm.ProviderOpenAI:    openai.NewClient(httpClient),
		llm.ProviderAnthropic: anthropic.NewClient(httpClient),
		llm.ProviderOllama:    ollama.NewClient(httpClient),
	})
}

func buildServices(app *App) {
	app.ConfigRepo = llm.NewConfigRepo(app.KV)
	app.Gateway = NewGateway(app.Config, app.ConfigRepo)

	cache := recommendations.NewCache(app.KV, app.Config.RecommendationCacheTTL, nil)
	app.Recommendations = recommendations.NewService(app.Gateway, cache)
	app.Analysis = analysis.NewService(app.Gateway)

	store := actions.NewStore(app.KV, nil)
	app.Feedback = feedback.NewService(app.KV, store, feedback.LogSink{})
	app.Actions = actions.NewService(store, app.Analysis)
	app.Executor = actions.NewExecutor(store, app.Integrations, app.Feedback)
	app.Batches = actions.NewBatchExecutor(app.Executor)
	app.BatchRepo = actions.NewBatchRepo(app.KV)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
