package main

import (
	"io"
	"strings"
	"sync"

	"alchemist/internal/batch"
	"alchemist/internal/compiler"
	"alchemist/internal/config"
	"alchemist/internal/diagnostics"
	"alchemist/internal/domain"
	"alchemist/internal/executor"
	"alchemist/internal/logging"
)

type commandContext struct {
	configFlag   string
	prefsFlag    string
	logLevelFlag string

	// runner and resolver replace the OS-backed defaults when set.
	runner   executor.Runner
	resolver *diagnostics.Resolver

	runtimeOnce sync.Once
	runtime     config.Runtime
	runtimeErr  error
}

func (c *commandContext) ensureRuntime(logOutput io.Writer) (config.Runtime, error) {
	c.runtimeOnce.Do(func() {
		cfg, _, err := config.LoadRuntime(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.runtimeErr = err
			return
		}
		level := cfg.Logging.Level
		if override := strings.TrimSpace(c.logLevelFlag); override != "" {
			level = override
		}
		logging.Configure(logging.Config{
			Level:  level,
			Format: cfg.Logging.Format,
			Output: logOutput,
		})
		c.runtime = cfg
	})
	return c.runtime, c.runtimeErr
}

func (c *commandContext) store() *config.JSONPrefsStore {
	path := strings.TrimSpace(c.prefsFlag)
	if path == "" {
		path = config.DefaultPrefsPath()
	}
	return config.NewJSONPrefsStore(path)
}

func (c *commandContext) toolResolver() *diagnostics.Resolver {
	if c.resolver != nil {
		return c.resolver
	}
	return diagnostics.NewResolver()
}

// preferences loads the saved preferences; an unreadable file yields the
// defaults with a warning.
func (c *commandContext) preferences() (map[string]any, domain.Preferences) {
	logger := logging.WithComponent("cli")
	raw, err := c.store().Load()
	if err != nil {
		logger.Warn().Err(err).Msg("preferences unreadable, using defaults")
	}
	prefs, err := config.ParsePreferences(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("preferences invalid, using defaults")
		raw = config.DefaultPrefs()
		prefs, _ = config.ParsePreferences(raw)
	}
	return raw, prefs
}

func (c *commandContext) orchestrator() *batch.Orchestrator {
	runner := c.runner
	if runner == nil {
		runner = &executor.ExecRunner{}
	}
	return batch.New(batch.Options{
		Resolver: c.toolResolver(),
		Compiler: compiler.New(compiler.Options{
			PassLogDir: c.runtime.Execution.PassLogDir,
			PresetDir:  c.runtime.Execution.PresetDir,
		}),
		Executor:   executor.New(runner, c.runtime.InvocationTimeout()),
		PassLogDir: c.runtime.Execution.PassLogDir,
	})
}

func (c *commandContext) checker() *diagnostics.Checker {
	return diagnostics.NewChecker(c.toolResolver())
}

func (c *commandContext) paths() diagnostics.Paths {
	return diagnostics.Paths{
		PassLogDir: c.runtime.Execution.PassLogDir,
		PresetDir:  c.runtime.Execution.PresetDir,
	}
}
