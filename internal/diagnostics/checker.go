package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"alchemist/internal/domain"
)

// installHints maps tool names to the command suggested when they are missing.
var installHints = map[string]string{
	domain.ToolFFmpeg:        "brew install ffmpeg",
	domain.ToolFFmpeg2Theora: "brew install ffmpeg2theora",
	domain.ToolQTExport:      "qt_tools only runs on legacy macOS with QuickTime 7; FFmpeg fallbacks are used otherwise.",
}

// Checker validates external tools and the writable paths a batch needs.
type Checker struct {
	resolver   *Resolver
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	stat       func(string) (os.FileInfo, error)
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(resolver *Resolver) *Checker {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Checker{
		resolver:   resolver,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		stat:       os.Stat,
	}
}

// Paths lists the directories checked alongside the tools.
type Paths struct {
	PassLogDir string
	PresetDir  string
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(prefs domain.Preferences, paths Paths) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(prefs.FFmpegDir, domain.ToolFFmpeg, false),
		c.checkTool(prefs.TheoraDir, domain.ToolFFmpeg2Theora, false),
		c.checkTool(prefs.QTExportDir, domain.ToolQTExport, true),
		c.checkPassLogDir(paths.PassLogDir),
		c.checkPresetDir(paths.PresetDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool resolves one tool. Optional tools downgrade a miss to a warning.
func (c *Checker) checkTool(dir, name string, optional bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_" + name,
		Name: name,
	}

	path, ok := c.resolver.Resolve(dir, name)
	if ok {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Found at %s", path)
		item.Path = path
		return item
	}

	item.Status = domain.DiagnosticStatusFail
	if optional {
		item.Status = domain.DiagnosticStatusWarn
	}
	if configured := displayDir(dir); configured != "" {
		item.Message = fmt.Sprintf("%s not found in %s or on PATH", name, configured)
	} else {
		item.Message = fmt.Sprintf("%s not found on PATH", name)
	}
	item.Hint = installHints[name]
	return item
}

// checkPassLogDir validates the two-pass statistics directory is writable.
func (c *Checker) checkPassLogDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "pass_log_dir",
		Name: "Two-pass log directory",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Two-pass log directory is empty."
		item.Hint = "Set execution.pass_log_dir in config.toml."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create two-pass log directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Two-pass log directory is not writable: %s", dir)
		item.Hint = "Choose a writable directory for encoder statistics."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	item.Path = dir
	return item
}

// checkPresetDir reports whether qt_export settings files can be found.
func (c *Checker) checkPresetDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "preset_dir",
		Name: "qt_export presets",
		Path: dir,
	}

	info, err := c.stat(dir)
	switch {
	case err == nil && info.IsDir():
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Preset directory: %s", dir)
	case err != nil && !IsNotExist(err):
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Cannot access preset directory: %s", dir)
	default:
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Preset directory missing: %s", dir)
		item.Hint = "Legacy QuickTime modes will use FFmpeg fallbacks."
	}
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	resolver *Resolver,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	stat func(string) (os.FileInfo, error),
) *Checker {
	return &Checker{
		resolver:   resolver,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		stat:       stat,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
