package diagnostics

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"alchemist/internal/domain"
)

// Resolver locates tool executables, preferring a user-configured directory
// over the process search path.
type Resolver struct {
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

// NewResolver builds a resolver using real OS dependencies.
func NewResolver() *Resolver {
	return &Resolver{
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
}

// NewResolverForTests creates a resolver with injectable dependencies.
func NewResolverForTests(lookPath func(string) (string, error), stat func(string) (os.FileInfo, error)) *Resolver {
	return &Resolver{lookPath: lookPath, stat: stat}
}

// Resolve returns the executable for toolName: configuredDir/toolName when it
// is an executable file, otherwise whatever the search path yields.
func (r *Resolver) Resolve(configuredDir, toolName string) (string, bool) {
	if candidate := Candidate(configuredDir, toolName); candidate != "" {
		if info, err := r.stat(candidate); err == nil && isExecutable(info) {
			return candidate, true
		}
	}

	found, err := r.lookPath(toolName)
	if err != nil || found == "" {
		return "", false
	}
	return found, true
}

// ResolveTool wraps Resolve into a domain record.
func (r *Resolver) ResolveTool(configuredDir, toolName string) domain.ResolvedTool {
	path, ok := r.Resolve(configuredDir, toolName)
	return domain.ResolvedTool{
		Name:          toolName,
		ConfiguredDir: displayDir(configuredDir),
		Path:          path,
		Available:     ok,
	}
}

// ResolveAll resolves every tool kind once using the configured directories.
func (r *Resolver) ResolveAll(prefs domain.Preferences) domain.ToolSet {
	return domain.ToolSet{
		FFmpeg:        r.ResolveTool(prefs.FFmpegDir, domain.ToolFFmpeg),
		FFmpeg2Theora: r.ResolveTool(prefs.TheoraDir, domain.ToolFFmpeg2Theora),
		QTExport:      r.ResolveTool(prefs.QTExportDir, domain.ToolQTExport),
	}
}

// CheckTool answers the UI's tool probe. On failure the configured candidate
// path is echoed back so the user can see where the tool was expected.
func (r *Resolver) CheckTool(configuredDir, toolName string) domain.ToolCheck {
	if path, ok := r.Resolve(configuredDir, toolName); ok {
		return domain.ToolCheck{OK: true, Path: path}
	}
	return domain.ToolCheck{OK: false, Path: Candidate(configuredDir, toolName)}
}

// Candidate joins a configured directory and tool name. The trailing
// separator on the directory is optional; an empty directory yields "".
func Candidate(configuredDir, toolName string) string {
	dir := strings.TrimSpace(configuredDir)
	if dir == "" || strings.TrimSpace(toolName) == "" {
		return ""
	}
	return filepath.Join(dir, executableName(toolName))
}

func displayDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	return strings.TrimRight(dir, `/\`) + string(filepath.Separator)
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
