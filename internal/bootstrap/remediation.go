package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"ffmpeg-architect/internal/domain"
)

const installCommandTimeout = 45 * time.Minute

type installOption struct {
	manager  string
	commands [][]string
}

// ffmpegInstallOptions lists package manager recipes per OS, tried in order.
var ffmpegInstallOptions = map[string][]installOption{
	"windows": {
		{manager: "winget", commands: [][]string{{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
		{manager: "choco", commands: [][]string{{"choco", "install", "ffmpeg", "-y"}}},
		{manager: "scoop", commands: [][]string{{"scoop", "install", "ffmpeg"}}},
	},
	"darwin": {
		{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
	},
	"linux": {
		{manager: "apt-get", commands: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "ffmpeg"}}},
		{manager: "dnf", commands: [][]string{{"dnf", "install", "-y", "ffmpeg"}}},
		{manager: "pacman", commands: [][]string{{"pacman", "-Sy", "--noconfirm", "ffmpeg"}}},
		{manager: "zypper", commands: [][]string{{"zypper", "install", "-y", "ffmpeg"}}},
		{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
	},
}

// installer runs package manager commands; fields are swapped in tests.
type installer struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func newInstaller() *installer {
	return &installer{goos: goruntime.GOOS, lookPath: exec.LookPath, run: runCommand}
}

// InstallOrFixDiagnostic applies a remediation for one diagnostic item and
// returns the refreshed report.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	return a.fixDiagnostic(itemID, newInstaller())
}

func (a *App) fixDiagnostic(itemID string, inst *installer) (domain.DiagnosticReport, error) {
	var fixErr error
	switch id := strings.TrimSpace(itemID); id {
	case "":
		return a.GetDiagnostics(), fmt.Errorf("diagnostic item id is required")
	case "tool_ffmpeg", "tool_ffprobe":
		fixErr = inst.installFFmpeg()
	case "data_dir":
		fixErr = os.MkdirAll(a.Settings.DataDir, 0o755)
	default:
		return a.GetDiagnostics(), fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.RefreshDiagnostics()
	return report, fixErr
}

func (i *installer) installFFmpeg() error {
	options, ok := ffmpegInstallOptions[i.goos]
	if !ok {
		options = ffmpegInstallOptions["linux"]
	}
	if err := i.runFirstSuccessful(options); err != nil {
		return fmt.Errorf("install ffmpeg/ffprobe: %w", err)
	}
	if err := i.requireTools("ffmpeg", "ffprobe"); err != nil {
		return fmt.Errorf("verify ffmpeg/ffprobe on PATH: %w", err)
	}
	return nil
}

func (i *installer) runFirstSuccessful(options []installOption) error {
	failures := make([]string, 0, len(options))
	found := false

	for _, option := range options {
		if !i.available(option.manager) {
			continue
		}
		found = true
		err := i.runAll(option.commands)
		if err == nil {
			return nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", option.manager, err))
	}

	if !found {
		return fmt.Errorf("no supported package manager found for %s", i.goos)
	}
	return errors.New(strings.Join(failures, " | "))
}

func (i *installer) runAll(commands [][]string) error {
	for _, command := range commands {
		if err := i.runElevated(command); err != nil {
			return err
		}
	}
	return nil
}

// runElevated retries system package managers through pkexec or sudo -n on Linux.
func (i *installer) runElevated(command []string) error {
	candidates := [][]string{command}
	if i.goos == "linux" && requiresElevation(command[0]) {
		if i.available("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
		if i.available("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
	}

	attempts := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
		err := i.run(ctx, candidate[0], candidate[1:]...)
		cancel()
		if err == nil {
			return nil
		}
		attempts = append(attempts, err.Error())
	}
	return errors.New(strings.Join(attempts, " | "))
}

func (i *installer) available(name string) bool {
	_, err := i.lookPath(name)
	return err == nil
}

func (i *installer) requireTools(names ...string) error {
	missing := make([]string, 0, len(names))
	for _, name := range names {
		if !i.available(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return nil
	}

	display := strings.Join(append([]string{name}, args...), " ")
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", display, installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", display, err)
	}
	return fmt.Errorf("%s failed: %w (%s)", display, err, trimmed)
}
