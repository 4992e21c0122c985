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

	"alchemist/internal/domain"
)

const installCommandTimeout = 45 * time.Minute

type installOption struct {
	manager  string
	commands [][]string
}

// toolInstaller runs package-manager installs. Its hooks are swapped in tests.
type toolInstaller struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(name string, args ...string) error
	mkdirAll func(string, os.FileMode) error
}

func newToolInstaller() *toolInstaller {
	return &toolInstaller{
		goos:     goruntime.GOOS,
		lookPath: exec.LookPath,
		run:      runCommand,
		mkdirAll: os.MkdirAll,
	}
}

// InstallOrFixDiagnostic applies an OS-specific remediation for one failed
// diagnostic item and returns the refreshed report.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	var fixErr error
	switch id {
	case "tool_" + domain.ToolFFmpeg:
		fixErr = a.installer.install(domain.ToolFFmpeg)
	case "tool_" + domain.ToolFFmpeg2Theora:
		fixErr = a.installer.install(domain.ToolFFmpeg2Theora)
	case "tool_" + domain.ToolQTExport:
		fixErr = fmt.Errorf("qt_export cannot be installed automatically; FFmpeg fallbacks are used instead")
	case "pass_log_dir":
		fixErr = a.installer.ensureDir(a.Runtime.Execution.PassLogDir)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if fixErr != nil {
		a.logger.Warn().Err(fixErr).Str("item", id).Msg("diagnostic fix failed")
	} else {
		a.logger.Info().Str("item", id).Msg("diagnostic fixed")
	}
	return a.RefreshDiagnostics(), fixErr
}

// install tries each package manager available on the host until one succeeds.
func (t *toolInstaller) install(tool string) error {
	if err := t.runFirstSuccessfulInstall(installOptions(tool, t.goos)); err != nil {
		return fmt.Errorf("install %s: %w", tool, err)
	}
	if _, err := t.lookPath(tool); err != nil {
		return fmt.Errorf("verify %s on PATH: %w", tool, err)
	}
	return nil
}

func (t *toolInstaller) ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("two-pass log directory is not configured")
	}
	if err := t.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create two-pass log directory %s: %w", dir, err)
	}
	return nil
}

// installOptions lists package-manager recipes for tool on goos, in order
// of preference.
func installOptions(tool, goos string) []installOption {
	switch goos {
	case "windows":
		if tool == domain.ToolFFmpeg2Theora {
			return []installOption{
				{manager: "choco", commands: [][]string{{"choco", "install", "ffmpeg2theora", "-y"}}},
			}
		}
		return []installOption{
			{manager: "winget", commands: [][]string{
				{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"},
			}},
			{manager: "choco", commands: [][]string{{"choco", "install", "ffmpeg", "-y"}}},
			{manager: "scoop", commands: [][]string{{"scoop", "install", "ffmpeg"}}},
		}
	case "darwin":
		return []installOption{
			{manager: "brew", commands: [][]string{{"brew", "install", tool}}},
			{manager: "port", commands: [][]string{{"port", "install", tool}}},
		}
	default:
		return []installOption{
			{manager: "apt-get", commands: [][]string{
				{"apt-get", "update"},
				{"apt-get", "install", "-y", tool},
			}},
			{manager: "dnf", commands: [][]string{{"dnf", "install", "-y", tool}}},
			{manager: "pacman", commands: [][]string{{"pacman", "-Sy", "--noconfirm", tool}}},
			{manager: "zypper", commands: [][]string{{"zypper", "install", "-y", tool}}},
			{manager: "brew", commands: [][]string{{"brew", "install", tool}}},
		}
	}
}

func (t *toolInstaller) runFirstSuccessfulInstall(options []installOption) error {
	if len(options) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", t.goos)
	}

	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false

	for _, option := range options {
		if !t.commandAvailable(option.manager) {
			continue
		}
		atLeastOneManager = true
		err := t.runInstallCommands(option.commands)
		if err == nil {
			return nil
		}
		errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", t.goos)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func (t *toolInstaller) runInstallCommands(commands [][]string) error {
	for _, command := range commands {
		if err := t.runWithPossibleElevation(command); err != nil {
			return err
		}
	}
	return nil
}

func (t *toolInstaller) runWithPossibleElevation(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	candidates := [][]string{command}
	if t.goos == "linux" && requiresElevation(command[0]) {
		if t.commandAvailable("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
		if t.commandAvailable("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
	}

	attemptErrors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		err := t.run(candidate[0], candidate[1:]...)
		if err == nil {
			return nil
		}
		attemptErrors = append(attemptErrors, err.Error())
	}
	return errors.New(strings.Join(attemptErrors, " | "))
}

func (t *toolInstaller) commandAvailable(name string) bool {
	_, err := t.lookPath(name)
	return err == nil
}

func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}
