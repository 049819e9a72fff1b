package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"ffmpeg-architect/internal/advisor"
	"ffmpeg-architect/internal/config"
	"ffmpeg-architect/internal/diagnostics"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/execution"
	"ffmpeg-architect/internal/ffmpeg"
	"ffmpeg-architect/internal/jobs"
	"ffmpeg-architect/internal/logging"
	"ffmpeg-architect/internal/session"
	"ffmpeg-architect/internal/store"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// ErrHostUnavailable is returned by operations that need the desktop host
// when it has not started (or has shut down).
var ErrHostUnavailable = errors.New("host integration unavailable")

// Runtime event names pushed to the frontend.
const (
	EventRun      = "run:event"
	EventProgress = "run:progress"
	EventHistory  = "history:updated"
)

// App wires configuration, session state, execution, and UI runtime callbacks.
type App struct {
	Settings      domain.Settings
	SettingsStore config.Store
	Store         *store.Store
	Session       *session.Session
	Jobs          *jobs.Manager
	FFmpeg        *ffmpeg.Client
	Advisor       *advisor.Service
	Orchestrator  *execution.Orchestrator
	Diagnostics   domain.DiagnosticReport

	logger    hclog.Logger
	assets    fs.FS
	checker   *diagnostics.Checker
	lock      *InstanceLock
	logCloser io.Closer

	mu          sync.Mutex
	activeRunID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
	encoders    domain.Capabilities
	version     string
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	settingsStore := config.NewTOMLStore(config.DefaultPath())
	settings, err := settingsStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	lock, err := AcquireLock(settings.DataDir)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.OpenFile("ffmpeg-architect", settings.LogLevel, settings.DataDir)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	ctx := context.Background()
	records, err := store.Open(ctx, settings.DataDir)
	if err != nil {
		_ = logCloser.Close()
		_ = lock.Release()
		return nil, fmt.Errorf("open record store: %w", err)
	}

	app, err := assemble(ctx, settings, settingsStore, records, ffmpeg.NewExecRunner(), logger)
	if err != nil {
		_ = records.Close()
		_ = logCloser.Close()
		_ = lock.Release()
		return nil, err
	}
	app.assets = assets
	app.lock = lock
	app.logCloser = logCloser
	app.Diagnostics = app.runDiagnostics(ctx)
	return app, nil
}

// assemble wires every collaborator around an open record store.
func assemble(
	ctx context.Context,
	settings domain.Settings,
	settingsStore config.Store,
	records *store.Store,
	runner ffmpeg.Runner,
	logger hclog.Logger,
) (*App, error) {
	if err := records.SeedDefaults(ctx); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	runtimeSettings, err := records.SettingsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load runtime settings: %w", err)
	}

	client := ffmpeg.NewClient(runner, logger.Named("ffmpeg"))
	client.SetPaths(runtimeSettings[domain.SettingFFmpegPath], runtimeSettings[domain.SettingFFprobePath])

	gemini := advisor.NewGeminiClient(advisor.GeminiConfig{
		APIKey:         settings.GeminiAPIKey,
		BaseURL:        settings.GeminiBaseURL,
		Model:          settings.GeminiModel,
		TimeoutSeconds: settings.RequestTimeoutSeconds,
	})
	ollama := advisor.NewOllamaClient(settings.RequestTimeoutSeconds)

	return &App{
		Settings:      settings,
		SettingsStore: settingsStore,
		Store:         records,
		Session:       session.New(initialConfiguration(settings, runtimeSettings)),
		Jobs:          jobs.NewManager(),
		FFmpeg:        client,
		Advisor:       advisor.NewService(gemini, ollama, logger.Named("advisor")),
		Orchestrator:  execution.NewOrchestrator(client, client, records, logger.Named("execution")),
		logger:        logger,
		checker:       diagnostics.NewChecker(ollama),
		events:        jobs.NewEventBus(1000),
	}, nil
}

// initialConfiguration mirrors persisted settings into the passthrough fields.
func initialConfiguration(settings domain.Settings, runtimeSettings map[string]string) domain.Configuration {
	cfg := domain.DefaultConfiguration()
	cfg.Language = settings.Language
	if v := runtimeSettings[domain.SettingAISource]; v != "" {
		cfg.AISource = domain.AISource(v)
	}
	if v := runtimeSettings[domain.SettingOllamaServer]; v != "" {
		cfg.OllamaServer = v
	} else if servers := advisor.ParseServers(runtimeSettings[domain.SettingOllamaServers]); len(servers) > 0 {
		cfg.OllamaServer = servers[0]
	}
	if v := runtimeSettings[domain.SettingOllamaModel]; v != "" {
		cfg.OllamaModel = v
	}
	return cfg
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	defer a.Close()

	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend/dist"))
	}

	return wails.Run(&options.App{
		Title:       "FFmpeg Command Architect",
		Width:       1280,
		Height:      840,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown cancels any active run and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	cancel := a.cancel
	a.runtimeCtx = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close releases the record store, log file, and instance lock.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.logger.Warn("close record store", "error", err)
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
	if err := a.lock.Release(); err != nil {
		a.logger.Warn("release instance lock", "error", err)
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, ErrHostUnavailable
	}
	return a.runtimeCtx, nil
}

// emit pushes a runtime event when the host is attached.
func (a *App) emit(name string, payload any) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)
	if published.Type == jobs.EventTypeProgress {
		a.emit(EventProgress, published)
		return
	}
	a.emit(EventRun, published)
}
