// Package app assembles the meal planner from its configuration: database,
// repositories, image storage and the optional Gemini and Telegram
// integrations.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"meal-planner/internal/auth"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/household"
	"meal-planner/internal/httpapi"
	"meal-planner/internal/images"
	"meal-planner/internal/llm"
	"meal-planner/internal/meal"
	"meal-planner/internal/metrics"
	"meal-planner/internal/pantry"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
	"meal-planner/internal/tags"
	"meal-planner/internal/telegram"
)

const tagCacheTTL = 5 * time.Minute

// App holds the application's dependencies.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *database.DB
	metrics *metrics.Metrics

	auth       *auth.Service
	households *household.Repository
	recipes    *recipe.Repository
	meals      *meal.Repository
	plans      *planner.PlanRepository
	pantries   *pantry.Repository
	shopping   *shopping.Service
	tags       *tags.Cache
	images     *images.Uploader

	clipper *clipper.Clipper
	gemini  *llm.GeminiClient
	sharer  *telegram.Sharer
}

// New opens the database, applying pending migrations, and builds every
// component cfg enables.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger, db: db, metrics: metrics.New()}

	store, err := openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.images = images.NewUploader(store, cfg.BlobPublicURL)

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		a.gemini, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.DefaultModel)
		if err != nil {
			a.Close()
			return nil, err
		}
		textGen = a.gemini
	} else {
		logger.Info("GEMINI_API_KEY not set; recipe import limited to JSON-LD pages")
	}
	a.clipper = clipper.NewClipper(textGen, logger.Named("clipper"))

	if cfg.TelegramBotToken != "" {
		a.sharer, err = telegram.NewSharer(cfg.TelegramBotToken, logger.Named("telegram"))
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	sqlDB := db.SQL
	a.auth = auth.NewService(auth.NewUserRepository(sqlDB), auth.NewSessionRepository(sqlDB),
		auth.NewTokenIssuer(cfg.SessionSecret), cfg.SessionTTL, logger.Named("auth"))
	a.households = household.NewRepository(sqlDB, cfg.JoinCodeTTL)
	a.recipes = recipe.NewRepository(sqlDB)
	a.meals = meal.NewRepository(sqlDB)
	a.plans = planner.NewPlanRepository(sqlDB)
	a.pantries = pantry.NewRepository(sqlDB)
	a.shopping = shopping.NewService(a.plans, a.pantries, shopping.NewRepository(sqlDB), logger.Named("shopping"))
	a.tags = tags.NewCache(tags.NewRepository(sqlDB), tagCacheTTL)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (images.Store, error) {
	if cfg.BlobDriver == "s3" {
		return images.NewS3Store(ctx, images.S3Config{
			Region:    cfg.BlobS3Region,
			Bucket:    cfg.BlobS3Bucket,
			Endpoint:  cfg.BlobS3Endpoint,
			PathStyle: cfg.BlobS3PathStyle,
		})
	}
	return images.NewFSStore(cfg.BlobFSPath)
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	deps := httpapi.Deps{
		Auth:        a.auth,
		Households:  a.households,
		Recipes:     a.recipes,
		Meals:       a.meals,
		Plans:       a.plans,
		Pantries:    a.pantries,
		Shopping:    a.shopping,
		Tags:        a.tags,
		Images:      a.images,
		Clipper:     a.clipper,
		Metrics:     a.metrics,
		Health:      a.Health,
		Logger:      a.logger.Named("http"),
		CORSOrigins: a.cfg.CORSOrigins,
	}
	if a.sharer != nil {
		deps.Sharer = a.sharer
	}
	return httpapi.New(deps).Routes()
}

// Health pings the database and reports runtime and storage figures.
func (a *App) Health(ctx context.Context) (metrics.SysHealth, error) {
	if err := a.db.SQL.PingContext(ctx); err != nil {
		return metrics.SysHealth{}, fmt.Errorf("failed to ping database: %w", err)
	}
	var imageDir string
	if a.cfg.BlobDriver == "fs" {
		imageDir = a.cfg.BlobFSPath
	}
	h := metrics.GetSysHealth(a.cfg.DatabasePath, imageDir)
	version, err := a.db.SchemaVersion(ctx)
	if err != nil {
		return h, err
	}
	h.SchemaVersion = version
	return h, nil
}

// ImportRecipe clips the page at url and stores the draft as a new recipe.
func (a *App) ImportRecipe(ctx context.Context, url string) (*recipe.Recipe, error) {
	res, err := a.clipper.ClipURL(ctx, url)
	source := "unknown"
	if res != nil {
		source = res.Source
		if res.Usage != nil {
			a.metrics.LLMUsage(res.Usage.Model, res.Usage.PromptTokens, res.Usage.CompletionTokens)
		}
	}
	a.metrics.RecipeImport(source, err)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", url, err)
	}

	rec, err := a.recipes.Create(ctx, res.Recipe)
	if err != nil {
		return nil, fmt.Errorf("failed to save imported recipe: %w", err)
	}
	a.tags.Purge()
	a.logger.Info("recipe imported",
		zap.String("url", url),
		zap.String("slug", rec.Slug),
		zap.String("source", source))
	return rec, nil
}

// Cleanup deletes expired sessions and join codes.
func (a *App) Cleanup(ctx context.Context) error {
	_, err := a.auth.CleanupExpired(ctx)
	return errors.Join(err, a.households.CleanupExpiredCodes(ctx))
}

// SchemaVersion reports the applied migration version.
func (a *App) SchemaVersion(ctx context.Context) (uint, error) {
	return a.db.SchemaVersion(ctx)
}

// Close releases the model client and the database.
func (a *App) Close() error {
	var errs []error
	if a.gemini != nil {
		errs = append(errs, a.gemini.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
