package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	googleauth "resume-analyzer/internal/auth"
	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/storage/db"
	"resume-analyzer/internal/shared/storage/object"
	localstore "resume-analyzer/internal/shared/storage/object/local"
	s3store "resume-analyzer/internal/shared/storage/object/s3"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/users"
)

// App holds shared dependencies and the configured router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Tokens *auth.Tokens

	UsersService    *users.Service
	ResumesService  *resumes.Service
	AnalysesService *analyses.Service
	Gateway         *llm.Gateway
}

// Options lets callers swap the AI completer, mainly for tests.
type Options struct {
	Completer llm.Completer
}

// Build prepares dependencies and wires routes. With no DATABASE_URL in dev, memory repositories are used.
func Build(ctx context.Context, cfg config.Config, opts ...Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, cfg.Env)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, uploadsDir, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	completer := o.Completer
	if completer == nil {
		completer, err = buildCompleter(ctx, cfg)
		if err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	var (
		userRepo     users.Repo
		resumeRepo   resumes.Repo
		analysisRepo analyses.Repo
	)
	if sqlDB != nil {
		userRepo = &users.PGRepo{DB: sqlDB}
		resumeRepo = &resumes.PGRepo{DB: sqlDB}
		analysisRepo = &analyses.PGRepo{DB: sqlDB}
	} else {
		memResumes := resumes.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		resumeRepo = memResumes
		analysisRepo = analyses.NewMemoryRepo(memResumes)
	}

	gateway := llm.NewGateway(completer, llm.GatewayOptions{
		Timeout:     cfg.LLMTimeout,
		Budget:      cfg.LLMBudget,
		MaxAttempts: cfg.LLMMaxRetries,
	})
	userSvc := users.NewService(userRepo, tokens)
	resumeSvc := resumes.NewService(resumeRepo, store, extract.NewPDF(), cfg.MaxUploadBytes)
	analysisSvc := analyses.NewService(analysisRepo, resumeSvc, gateway)

	var google *googleauth.GoogleService
	googleCfg := googleauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		UIRedirect:   cfg.UIRedirectURL,
	}
	if googleCfg.Enabled() {
		google = googleauth.NewGoogleService(googleCfg, userSvc)
	}

	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		Tokens:          tokens,
		UsersService:    userSvc,
		ResumesService:  resumeSvc,
		AnalysesService: analysisSvc,
		Gateway:         gateway,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Tokens:          tokens,
		Health:          health.NewService(pinger),
		UserHandler:     users.NewHandler(userSvc),
		ResumeHandler:   resumes.NewHandler(resumeSvc),
		AnalysisHandler: analyses.NewHandler(analysisSvc),
		GoogleAuth:      google,
		UploadsDir:      uploadsDir,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"database":     sqlDB != nil,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLMProvider,
		"google_auth":  google != nil,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "connect failed", "error": err.Error()})
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

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, string, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, "", errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store := localstore.New(cfg.LocalStoreDir, localstore.DefaultURLPrefix)
		return store, store.BaseDir(), nil
	}
}

// buildCompleter returns a nil Completer when no provider is usable outside production.
func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	var (
		completer llm.Completer
		err       error
	)
	switch cfg.LLMProvider {
	case "none":
		return nil, nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
			var client *gemini.Client
			client, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
			if err == nil {
				completer = client
			}
		}
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
			var client *openai.Client
			client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
			if err == nil {
				completer = client
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("build %s client: %w", cfg.LLMProvider, err)
	}
	if completer == nil {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("%s API key is required in production", cfg.LLMProvider)
		}
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "reason": "missing api key"})
	}
	return completer, nil
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil {
		sqlDB.Close()
	}
}
