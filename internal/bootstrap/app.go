package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"alchemist/internal/batch"
	"alchemist/internal/catalog"
	"alchemist/internal/compiler"
	"alchemist/internal/config"
	"alchemist/internal/diagnostics"
	"alchemist/internal/domain"
	"alchemist/internal/executor"
	"alchemist/internal/jobs"
	"alchemist/internal/logging"
	"alchemist/internal/notify"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventBatchProgress is the Wails event carrying every jobs.Event.
const EventBatchProgress = "batch:event"

// App wires preferences, diagnostics, the batch orchestrator and the UI runtime.
type App struct {
	Store       config.PrefsStore
	Runtime     config.Runtime
	Diagnostics domain.DiagnosticReport

	orchestrator *batch.Orchestrator
	resolver     *diagnostics.Resolver
	checker      *diagnostics.Checker
	surface      *notify.Surface
	installer    *toolInstaller
	assets       fs.FS
	logger       zerolog.Logger

	mu sync.Mutex
}

// Deps lets callers replace the collaborators New would build.
type Deps struct {
	Store    config.PrefsStore
	Runtime  config.Runtime
	Resolver *diagnostics.Resolver
	Checker  *diagnostics.Checker
	Runner   executor.Runner
	Surface  *notify.Surface
	Assets   fs.FS
}

// New builds the application with persisted preferences and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	runtimeCfg, _, err := config.LoadRuntime("")
	if err != nil {
		return nil, fmt.Errorf("load runtime config: %w", err)
	}
	logging.Configure(logging.Config{
		Level:  runtimeCfg.Logging.Level,
		Format: runtimeCfg.Logging.Format,
	})

	return NewWithDeps(Deps{
		Store:   config.NewJSONPrefsStore(config.DefaultPrefsPath()),
		Runtime: runtimeCfg,
		Runner:  &executor.ExecRunner{},
		Surface: notify.NewSurface(),
		Assets:  assets,
	}), nil
}

// NewWithDeps assembles an App from explicit collaborators. Nil fields get
// production defaults.
func NewWithDeps(deps Deps) *App {
	if deps.Store == nil {
		deps.Store = config.NewJSONPrefsStore(config.DefaultPrefsPath())
	}
	if deps.Resolver == nil {
		deps.Resolver = diagnostics.NewResolver()
	}
	if deps.Checker == nil {
		deps.Checker = diagnostics.NewChecker(deps.Resolver)
	}
	if deps.Runner == nil {
		deps.Runner = &executor.ExecRunner{}
	}
	if deps.Surface == nil {
		deps.Surface = notify.NewSurface()
	}
	if deps.Runtime == (config.Runtime{}) {
		deps.Runtime = config.DefaultRuntime()
	}

	events := jobs.NewEventBus(deps.Runtime.Events.History)
	orch := batch.New(batch.Options{
		Resolver: deps.Resolver,
		Compiler: compiler.New(compiler.Options{
			PassLogDir: deps.Runtime.Execution.PassLogDir,
			PresetDir:  deps.Runtime.Execution.PresetDir,
		}),
		Executor:   executor.New(deps.Runner, deps.Runtime.InvocationTimeout()),
		Events:     events,
		PassLogDir: deps.Runtime.Execution.PassLogDir,
	})

	a := &App{
		Store:        deps.Store,
		Runtime:      deps.Runtime,
		orchestrator: orch,
		resolver:     deps.Resolver,
		checker:      deps.Checker,
		surface:      deps.Surface,
		installer:    newToolInstaller(),
		assets:       deps.Assets,
		logger:       logging.WithComponent("bootstrap"),
	}

	events.Subscribe(func(event jobs.Event) {
		_ = a.surface.Publish(EventBatchProgress, event)
	})

	a.runChecks(a.loadPrefs())
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Alchemist",
		Width:       720,
		Height:      560,
		AssetServer: assetOptions,
		DragAndDrop: &options.DragAndDrop{EnableFileDrop: true},
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup attaches the Wails runtime context so completion events can be pushed.
func (a *App) Startup(ctx context.Context) {
	a.surface.Attach(ctx)
}

// Orchestrator exposes the batch orchestrator.
func (a *App) Orchestrator() *batch.Orchestrator {
	return a.orchestrator
}

// LoadPrefs returns the persisted preferences merged over defaults. An
// unreadable file yields the defaults.
func (a *App) LoadPrefs() map[string]any {
	prefs, err := a.Store.Load()
	if err != nil {
		a.logger.Warn().Err(err).Msg("load preferences")
	}
	return prefs
}

// SavePrefs persists prefs and reruns diagnostics against the new tool locations.
func (a *App) SavePrefs(prefs map[string]any) (domain.DiagnosticReport, error) {
	if _, err := config.ParsePreferences(prefs); err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("validate preferences: %w", err)
	}
	if err := a.Store.Save(prefs); err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("save preferences: %w", err)
	}
	return a.RefreshDiagnostics(), nil
}

// ErasePrefs deletes the preferences file; the next load yields defaults.
func (a *App) ErasePrefs() error {
	if err := a.Store.Erase(); err != nil {
		return fmt.Errorf("erase preferences: %w", err)
	}
	a.logger.Info().Msg("preferences erased")
	return nil
}

// CheckTool reports whether name is usable from loc or the search path.
func (a *App) CheckTool(loc, name string) domain.ToolCheck {
	return a.resolver.CheckTool(loc, name)
}

// GetModes returns the conversion mode catalog.
func (a *App) GetModes() []domain.ConversionMode {
	return catalog.Modes()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads preferences and reruns dependency checks.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	return a.runChecks(a.loadPrefs())
}

// ProcessFiles compiles a drop and dispatches it. The completion event
// arrives later as encoding:complete.
func (a *App) ProcessFiles(files []string, prefs map[string]any) domain.BatchResult {
	return a.orchestrator.ProcessFiles(files, prefs, a.surface.Bridge())
}

// CancelBatch stops a batch from starting further jobs.
func (a *App) CancelBatch(batchID string) error {
	return a.orchestrator.Registry().Cancel(strings.TrimSpace(batchID))
}

// GetBatch returns the progress snapshot of one batch.
func (a *App) GetBatch(batchID string) (domain.Batch, error) {
	b, ok := a.orchestrator.Registry().Get(strings.TrimSpace(batchID))
	if !ok {
		return domain.Batch{}, fmt.Errorf("%w: %s", jobs.ErrUnknownBatch, batchID)
	}
	return b, nil
}

// BatchEvents returns all events with sequence greater than sinceSeq.
func (a *App) BatchEvents(sinceSeq int64) []jobs.Event {
	return a.orchestrator.Events().Since(sinceSeq)
}

// OpenURL opens an external link in the system browser.
func (a *App) OpenURL(url string) error {
	ctx := a.surface.Context()
	if ctx == nil {
		return fmt.Errorf("runtime context is not initialized")
	}
	wailsruntime.BrowserOpenURL(ctx, url)
	return nil
}

// OpenOutputFolder reveals the directory holding path in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// Shutdown detaches the surface. Batches still running keep going and
// their completion events are dropped.
func (a *App) Shutdown(context.Context) {
	a.surface.Detach()
	if active := a.orchestrator.Registry().Active(); active > 0 {
		a.logger.Info().Int("active_batches", active).Msg("window closed with batches in flight")
	}
}

// loadPrefs never fails: unreadable or invalid preferences fall back to
// the defaults so diagnostics always run.
func (a *App) loadPrefs() domain.Preferences {
	raw, err := a.Store.Load()
	if err != nil {
		a.logger.Warn().Err(err).Msg("preferences unreadable, using defaults")
	}
	prefs, err := config.ParsePreferences(raw)
	if err != nil {
		a.logger.Warn().Err(err).Msg("preferences invalid, using defaults")
		prefs, _ = config.ParsePreferences(config.DefaultPrefs())
	}
	return prefs
}

func (a *App) runChecks(prefs domain.Preferences) domain.DiagnosticReport {
	report := a.checker.Run(prefs, diagnostics.Paths{
		PassLogDir: a.Runtime.Execution.PassLogDir,
		PresetDir:  a.Runtime.Execution.PresetDir,
	})

	a.mu.Lock()
	a.Diagnostics = report
	a.mu.Unlock()
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
