package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"ffmpeg-architect/internal/advisor"
	"ffmpeg-architect/internal/config"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/ffmpeg"
	"ffmpeg-architect/internal/jobs"
	"ffmpeg-architect/internal/progress"
	"ffmpeg-architect/internal/store"
)

// fakeSettings returns deterministic settings for App tests.
type fakeSettings struct {
	settings domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeSettings) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save is a no-op for tests.
func (s *fakeSettings) Save(domain.Settings) error {
	return nil
}

// fakeRunner answers ffprobe with a failure and delegates ffmpeg calls.
type fakeRunner struct {
	mu    sync.Mutex
	names []string
	run   func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error)
}

// Run records the executable and delegates to injected behavior.
func (r *fakeRunner) Run(ctx context.Context, name string, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()

	if filepath.Base(name) == ffmpeg.DefaultFFprobePath {
		return ffmpeg.Result{Command: name, Args: args, ExitCode: 1}, nil
	}
	if r.run == nil {
		return ffmpeg.Result{Command: name, Args: args}, nil
	}
	return r.run(ctx, args, onStderr)
}

func (r *fakeRunner) calledWith(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

func newTestApp(t *testing.T, runner ffmpeg.Runner) *App {
	t.Helper()

	settings := config.DefaultSettings()
	settings.DataDir = t.TempDir()
	settings.GeminiAPIKey = ""

	ctx := context.Background()
	records, err := store.Open(ctx, settings.DataDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = records.Close() })

	app, err := assemble(ctx, settings, &fakeSettings{settings: settings}, records, runner, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return app
}

func setInputs(t *testing.T, app *App, inputs ...string) {
	t.Helper()
	if _, err := app.UpdateConfiguration(map[string]any{"inputFiles": inputs}); err != nil {
		t.Fatalf("update configuration: %v", err)
	}
}

// TestExecuteEnforcesSingleActiveRun checks the single-run guard and cancel.
func TestExecuteEnforcesSingleActiveRun(t *testing.T) {
	app := newTestApp(t, &fakeRunner{run: func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		<-ctx.Done()
		return ffmpeg.Result{ExitCode: -1}, ctx.Err()
	}})
	setInputs(t, app, "in.mp4")

	if _, err := app.Execute(); err != nil {
		t.Fatalf("start first run: %v", err)
	}
	if _, err := app.Execute(); !errors.Is(err, jobs.ErrRunAlreadyActive) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrRunAlreadyActive)
	}

	if err := app.CancelExecution(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.RunStatusCancelled)
	waitForIdleHandle(t, app)

	if err := app.CancelExecution(); !errors.Is(err, jobs.ErrNoActiveRun) {
		t.Fatalf("cancel without run error = %v, want %v", err, jobs.ErrNoActiveRun)
	}
}

// TestCancelThenRestartWaitsForStop checks a cancelled run blocks new runs
// until its ffmpeg process exits, and never touches its successor.
func TestCancelThenRestartWaitsForStop(t *testing.T) {
	var calls, active, maxActive int32
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	app := newTestApp(t, &fakeRunner{run: func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		n := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if n <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, n) {
				break
			}
		}
		call := atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		if call == 1 {
			// Slow to exit: stderr keeps flowing after cancel.
			<-release
			onStderr("frame=  99 fps=0.0 q=28.0 size=     256kB time=00:00:09.00 bitrate= 419.4kbits/s speed=10x")
			return ffmpeg.Result{ExitCode: -1}, context.Canceled
		}
		return ffmpeg.Result{}, nil
	}})
	setInputs(t, app, "in.mp4")

	first, err := app.Execute()
	if err != nil {
		t.Fatalf("start first run: %v", err)
	}
	<-started
	if err := app.CancelExecution(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := app.Execute(); !errors.Is(err, jobs.ErrRunAlreadyActive) {
		t.Fatalf("execute while stopping error = %v, want %v", err, jobs.ErrRunAlreadyActive)
	}
	current := app.CurrentRun()
	if current.ID != first.ID || current.Status != domain.RunStatusRunning || !current.Cancelling {
		t.Fatalf("run while stopping = %+v, want first run running and cancelling", current)
	}

	close(release)
	waitForStatus(t, app, domain.RunStatusCancelled)
	waitForIdleHandle(t, app)

	second, err := app.Execute()
	if err != nil {
		t.Fatalf("start second run: %v", err)
	}
	waitForStatus(t, app, domain.RunStatusSuccess)
	waitForIdleHandle(t, app)

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Fatalf("max concurrent ffmpeg invocations = %d, want 1", got)
	}
	current = app.CurrentRun()
	if current.ID != second.ID || current.Progress.Percent != 100 {
		t.Fatalf("final run = %+v, want second run at 100%%", current)
	}
}

// TestExecutePublishesProgressAndResultEvents checks event flow on success.
func TestExecutePublishesProgressAndResultEvents(t *testing.T) {
	app := newTestApp(t, &fakeRunner{run: func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		onStderr("frame=  10 fps=0.0 q=28.0 size=     256kB time=00:00:05.00 bitrate= 419.4kbits/s speed=10x")
		return ffmpeg.Result{Command: "ffmpeg", Args: args}, nil
	}})
	setInputs(t, app, "in.mp4")

	run, err := app.Execute()
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	waitForStatus(t, app, domain.RunStatusSuccess)
	waitForIdleHandle(t, app)

	events := app.RunEvents(0)
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if events[0].Type != jobs.EventTypeStatus || events[0].Status != domain.RunStatusRunning {
		t.Fatalf("first event = %+v, want running status", events[0])
	}

	hasProgress := false
	hasResult := false
	for _, event := range events {
		if event.RunID != run.ID {
			t.Fatalf("event run id = %q, want %q", event.RunID, run.ID)
		}
		switch event.Type {
		case jobs.EventTypeProgress:
			hasProgress = true
		case jobs.EventTypeResult:
			hasResult = true
			if event.Progress == nil || event.Progress.Percent != 100 {
				t.Fatalf("result progress = %+v, want 100%%", event.Progress)
			}
		}
	}
	if !hasProgress || !hasResult {
		t.Fatalf("progress=%v result=%v, want both", hasProgress, hasResult)
	}

	history, err := app.GetHistory()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != domain.RecordStatusSuccess || history[0].RunID != run.ID {
		t.Fatalf("history = %+v, want one success record", history)
	}
}

// TestExecuteFailurePublishesErrorEvent checks the failure category reaches events.
func TestExecuteFailurePublishesErrorEvent(t *testing.T) {
	app := newTestApp(t, &fakeRunner{run: func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		return ffmpeg.Result{ExitCode: 1, Stderr: "output.mp4: Permission denied\n"}, nil
	}})
	setInputs(t, app, "in.mp4")

	if _, err := app.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	waitForStatus(t, app, domain.RunStatusFailed)
	waitForIdleHandle(t, app)

	var errorEvent *jobs.Event
	for _, event := range app.RunEvents(0) {
		if event.Type == jobs.EventTypeError {
			e := event
			errorEvent = &e
		}
	}
	if errorEvent == nil {
		t.Fatal("expected error event")
	}
	if errorEvent.Category != string(progress.CategoryPermissionDenied) {
		t.Fatalf("category = %q, want %q", errorEvent.Category, progress.CategoryPermissionDenied)
	}
	if errorEvent.Message == "" {
		t.Fatal("expected localized message")
	}
	if app.CurrentRun().Error == "" {
		t.Fatal("expected run error text")
	}
}

// TestExecuteBatchRecordsEveryFile checks one record per batch invocation.
func TestExecuteBatchRecordsEveryFile(t *testing.T) {
	var mu sync.Mutex
	var outputs []string
	app := newTestApp(t, &fakeRunner{run: func(ctx context.Context, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		mu.Lock()
		outputs = append(outputs, args[len(args)-1])
		mu.Unlock()
		return ffmpeg.Result{}, nil
	}})
	setInputs(t, app, "a.mp4", "", "b.mp4")

	if _, err := app.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	waitForStatus(t, app, domain.RunStatusSuccess)
	waitForIdleHandle(t, app)

	mu.Lock()
	defer mu.Unlock()
	if len(outputs) != 2 || outputs[0] != "output_1.mp4" || outputs[1] != "output_2.mp4" {
		t.Fatalf("outputs = %v, want [output_1.mp4 output_2.mp4]", outputs)
	}
	history, err := app.GetHistory()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
}

// TestDialogsRequireHost checks dialog operations without a runtime context.
func TestDialogsRequireHost(t *testing.T) {
	app := newTestApp(t, &fakeRunner{})

	if _, err := app.PickInputFiles(true); !errors.Is(err, ErrHostUnavailable) {
		t.Fatalf("PickInputFiles error = %v, want %v", err, ErrHostUnavailable)
	}
	if _, err := app.PickOutputFile(); !errors.Is(err, ErrHostUnavailable) {
		t.Fatalf("PickOutputFile error = %v, want %v", err, ErrHostUnavailable)
	}
}

// TestPresetRoundTripIsUndoable checks save, list, and load through the store.
func TestPresetRoundTripIsUndoable(t *testing.T) {
	app := newTestApp(t, &fakeRunner{})
	if _, err := app.UpdateConfiguration(map[string]any{"outputFile": "web.webm", "videoCodec": "libvpx-vp9"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	preset, err := app.SavePreset("  Web  ")
	if err != nil {
		t.Fatalf("save preset: %v", err)
	}
	if preset.Name != "Web" {
		t.Fatalf("preset name = %q, want Web", preset.Name)
	}

	app.Reset()
	if got := app.GetState().Configuration.OutputFile; got != domain.DefaultOutputFile {
		t.Fatalf("output after reset = %q", got)
	}

	presets, err := app.GetPresets()
	if err != nil || len(presets) != 1 {
		t.Fatalf("presets = %v, err = %v", presets, err)
	}
	view, err := app.LoadPreset(presets[0].ID)
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	if view.Configuration.VideoCodec != "libvpx-vp9" || view.Configuration.OutputFile != "web.webm" {
		t.Fatalf("loaded configuration = %+v", view.Configuration)
	}
	if !view.Preview.CanUndo {
		t.Fatal("expected preset load to be undoable")
	}

	if _, err := app.LoadPreset(9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing preset error = %v, want %v", err, store.ErrNotFound)
	}
}

// TestUpdateSettingSwitchesToolPaths checks tool path changes reach the client.
func TestUpdateSettingSwitchesToolPaths(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(t, runner)

	rows, err := app.UpdateSetting(domain.SettingFFmpegPath, " /opt/ffmpeg/bin/ffmpeg ")
	if err != nil {
		t.Fatalf("update setting: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.Key == domain.SettingFFmpegPath && row.Value == "/opt/ffmpeg/bin/ffmpeg" {
			found = true
		}
	}
	if !found {
		t.Fatalf("settings rows = %+v, want updated ffmpegPath", rows)
	}

	_ = app.GetFFmpegVersion()
	if !runner.calledWith("/opt/ffmpeg/bin/ffmpeg") {
		t.Fatal("expected version check to use the new path")
	}
}

// TestUpdateConfigurationPersistsBackendSelection checks AI passthrough settings.
func TestUpdateConfigurationPersistsBackendSelection(t *testing.T) {
	app := newTestApp(t, &fakeRunner{})

	if _, err := app.UpdateConfiguration(map[string]any{
		"aiSource":    "ollama",
		"ollamaModel": "llama3",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	settings, err := app.Store.SettingsMap(context.Background())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings[domain.SettingAISource] != "ollama" || settings[domain.SettingOllamaModel] != "llama3" {
		t.Fatalf("settings = %v", settings)
	}

	cfg := initialConfiguration(app.Settings, settings)
	if cfg.AISource != domain.AISourceOllama || cfg.OllamaModel != "llama3" {
		t.Fatalf("initial configuration = %+v", cfg)
	}
}

// TestHistoryMovesPersistBackendSelection checks undo, redo, reset, and
// preset loads keep the backend settings in step with the configuration.
func TestHistoryMovesPersistBackendSelection(t *testing.T) {
	app := newTestApp(t, &fakeRunner{})
	ctx := context.Background()

	settingValue := func(key string) string {
		t.Helper()
		settings, err := app.Store.SettingsMap(ctx)
		if err != nil {
			t.Fatalf("settings: %v", err)
		}
		return settings[key]
	}

	if _, err := app.UpdateConfiguration(map[string]any{"aiSource": "ollama", "ollamaModel": "llama3"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	view := app.Undo()
	if view.Configuration.AISource != domain.AISourceGemini {
		t.Fatalf("source after undo = %q", view.Configuration.AISource)
	}
	if got := settingValue(domain.SettingAISource); got != string(domain.AISourceGemini) {
		t.Fatalf("aiSource setting after undo = %q, want gemini", got)
	}
	if got := settingValue(domain.SettingOllamaModel); got != "" {
		t.Fatalf("ollamaModel setting after undo = %q, want empty", got)
	}

	app.Redo()
	if got := settingValue(domain.SettingAISource); got != string(domain.AISourceOllama) {
		t.Fatalf("aiSource setting after redo = %q, want ollama", got)
	}

	preset := domain.DefaultConfiguration()
	preset.OllamaModel = "qwen2"
	saved, err := app.Store.SavePreset(ctx, "qwen", preset)
	if err != nil {
		t.Fatalf("save preset: %v", err)
	}
	if _, err := app.LoadPreset(saved.ID); err != nil {
		t.Fatalf("load preset: %v", err)
	}
	if got := settingValue(domain.SettingOllamaModel); got != "qwen2" {
		t.Fatalf("ollamaModel setting after preset = %q, want qwen2", got)
	}
	if got := settingValue(domain.SettingAISource); got != string(domain.AISourceGemini) {
		t.Fatalf("aiSource setting after preset = %q, want gemini", got)
	}
}

// TestAskAIWithoutKeyFallsBack checks backend failures never surface as errors.
func TestAskAIWithoutKeyFallsBack(t *testing.T) {
	app := newTestApp(t, &fakeRunner{})

	advice, err := app.AskAI("make it smaller")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if advice.Command != advisor.FallbackCommand {
		t.Fatalf("command = %q, want fallback", advice.Command)
	}

	view, err := app.ApplyAIAdvice(true)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !view.Configuration.AIOverride || view.Configuration.AICommand != advisor.FallbackCommand {
		t.Fatalf("configuration = %+v, want override with fallback command", view.Configuration)
	}

	if _, err := app.AskAI("   "); !errors.Is(err, advisor.ErrEmptyPrompt) {
		t.Fatalf("empty prompt error = %v, want %v", err, advisor.ErrEmptyPrompt)
	}
}

// waitForStatus polls the manager until the run reaches want.
func waitForStatus(t *testing.T, app *App, want domain.RunStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentRun().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", app.CurrentRun().Status, want)
}

// waitForIdleHandle waits for the background run goroutine to finish.
func waitForIdleHandle(t *testing.T, app *App) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		app.mu.Lock()
		idle := app.activeRunID == ""
		app.mu.Unlock()
		if idle {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run goroutine did not finish")
}
