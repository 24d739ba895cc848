package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"robopress/internal/config"
	"robopress/internal/domain"
	"robopress/internal/httpapi"
	"robopress/internal/infrastructure/llm"
	"robopress/internal/infrastructure/roblox"
	"robopress/internal/infrastructure/scheduler"
	"robopress/internal/infrastructure/storage"
	"robopress/internal/logging"
	"robopress/internal/ports"
	"robopress/internal/thumbcache"
	"robopress/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	pipeline   *usecase.Pipeline
	state      *usecase.State
	store      *storage.FileStore
	history    *storage.HistoryStore
	scheduler  ports.Scheduler
	httpServer *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	client := roblox.NewClient(cfg.Roblox, baseLogger.With("component", "roblox"))

	store, err := storage.NewFileStore(cfg.Storage.DataDir, baseLogger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}

	var history *storage.HistoryStore
	var recorder ports.RunRecorder
	if cfg.Storage.HistoryPath != "" {
		history, err = storage.NewHistoryStore(cfg.Storage.HistoryPath)
		if err != nil {
			baseLogger.Warn("run history disabled", "error", err)
		} else {
			recorder = history
		}
	}

	var generator ports.ArticleGenerator
	if cfg.OpenAI.APIKey != "" {
		generator = llm.NewOpenAIGenerator(cfg.OpenAI, baseLogger.With("component", "llm"))
	} else {
		baseLogger.Warn("no OpenAI API key configured, editions will use fallback articles")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Explore:        client,
		Catalog:        client,
		Generator:      generator,
		Store:          store,
		Recorder:       recorder,
		Logger:         baseLogger.With("component", "pipeline"),
		BatchLimit:     cfg.Roblox.BatchLimit,
		FavConcurrency: cfg.Roblox.FavConcurrency,
	})

	state := usecase.NewState()
	cache := thumbcache.New(time.Duration(cfg.Thumbnails.TTLMinutes)*time.Minute, cfg.Thumbnails.Capacity)
	api := httpapi.NewServer(state, client, cache, baseLogger.With("component", "http"))

	weekly := scheduler.NewWeeklyScheduler(
		cfg.Scheduler.WeekdayValue(),
		cfg.Scheduler.Hour,
		cfg.Scheduler.Minute,
		cfg.Scheduler.Location(),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		state:     state,
		store:     store,
		history:   history,
		scheduler: weekly,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run seeds the in-memory state from disk, starts the weekly scheduler (which
// also triggers the eager startup run) and serves HTTP until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	a.seedState()

	if err := a.scheduler.Start(ctx, func(t time.Time) { a.refresh(ctx, t) }); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.scheduler.Stop(shutdownCtx)
	if a.history != nil {
		_ = a.history.Close()
	}

	return a.httpServer.Shutdown(shutdownCtx)
}

// seedState loads the last written edition so the API serves immediately
// after a restart, before the first refresh finishes.
func (a *Application) seedState() {
	latest, err := a.store.Latest()
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			a.logger.Info("no previous edition on disk")
			return
		}
		a.logger.Warn("loading latest edition failed", "error", err)
		a.state.SetError(err)
		return
	}

	previous, err := a.store.Previous(domain.DateKey(latest.GeneratedAt))
	if err != nil {
		a.logger.Warn("loading previous edition failed", "error", err)
		previous = nil
	}

	a.state.SetEdition(latest, previous)
}

func (a *Application) refresh(ctx context.Context, trigger time.Time) {
	snap, err := a.pipeline.Refresh(ctx, trigger)
	if err != nil {
		if errors.Is(err, usecase.ErrRefreshInFlight) {
			a.logger.Warn("refresh skipped, previous run still in flight")
			return
		}
		a.state.SetError(err)
		return
	}

	previous, perr := a.store.Previous(domain.DateKey(snap.GeneratedAt))
	if perr != nil {
		a.logger.Warn("loading previous edition failed", "error", perr)
		previous = nil
	}

	a.state.SetEdition(snap, previous)
}
