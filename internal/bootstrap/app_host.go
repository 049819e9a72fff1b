package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"ffmpeg-architect/internal/advisor"
	"ffmpeg-architect/internal/diagnostics"
	"ffmpeg-architect/internal/domain"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var mediaDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Media files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.flv;*.ts;*.m4v;*.mp3;*.wav;*.m4a;*.flac;*.aac;*.ogg;*.opus",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// PickInputFiles opens a native file dialog for one or more media files.
func (a *App) PickInputFiles(multiple bool) ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	opts := wailsruntime.OpenDialogOptions{
		Title:   "Select input media",
		Filters: mediaDialogFilter,
	}
	if multiple {
		paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, opts)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(paths))
		for _, path := range paths {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	}

	path, err := wailsruntime.OpenFileDialog(ctx, opts)
	if err != nil {
		return nil, err
	}
	if path = strings.TrimSpace(path); path == "" {
		return []string{}, nil
	}
	return []string{path}, nil
}

// PickOutputFile opens a native save dialog seeded with the current output.
func (a *App) PickOutputFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	current := a.Session.State().OutputFile
	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:            "Select output file",
		DefaultDirectory: filepath.Dir(current),
		DefaultFilename:  filepath.Base(current),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the folder containing path (or the current output).
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Session.State().OutputFile
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := abs
	if !info.IsDir() {
		openPath = filepath.Dir(abs)
	}
	return openInFileManager(openPath)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reruns startup checks with the current settings.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	report := a.runDiagnostics(context.Background())
	a.mu.Lock()
	a.Diagnostics = report
	a.version = ""
	a.mu.Unlock()
	return report
}

func (a *App) runDiagnostics(ctx context.Context) domain.DiagnosticReport {
	servers := []string{}
	if settings, err := a.Store.SettingsMap(ctx); err == nil {
		servers = advisor.ParseServers(settings[domain.SettingOllamaServers])
	} else {
		a.logger.Warn("load settings for diagnostics", "error", err)
	}

	report := a.checker.Run(ctx, diagnostics.Input{
		DataDir:       a.Settings.DataDir,
		FFmpegPath:    a.FFmpeg.FFmpegPath(),
		FFprobePath:   a.FFmpeg.FFprobePath(),
		OllamaServers: servers,
		HasGeminiKey:  a.Settings.GeminiAPIKey != "",
	})
	report.FFmpegVersion = a.FFmpeg.Version(ctx)
	return report
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
