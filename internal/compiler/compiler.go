// Package compiler expands a validated file drop and a conversion mode into
// the ordered list of external invocations that produce every output.
package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"alchemist/internal/catalog"
	"alchemist/internal/domain"
	"alchemist/internal/pathnorm"
)

// FallbackNote annotates outputs rebuilt on ffmpeg because qt_export is missing.
const FallbackNote = "qt_export not found — using FFmpeg fallback"

// Options carries the filesystem locations compiled into invocations.
type Options struct {
	// PassLogDir holds the statistics files shared by two-pass invocations.
	PassLogDir string
	// PresetDir holds the qt_export settings files.
	PresetDir string
}

// Compiler turns paths × mode outputs into jobs.
type Compiler struct {
	opts Options
	stat func(string) (os.FileInfo, error)
	mode func(int) (domain.ConversionMode, bool)
}

// New builds a compiler over the built-in mode catalog.
func New(opts Options) *Compiler {
	return &Compiler{
		opts: normalizeOptions(opts),
		stat: os.Stat,
		mode: catalog.Mode,
	}
}

// NewForTests creates a compiler with injectable filesystem and catalog lookups.
func NewForTests(opts Options, stat func(string) (os.FileInfo, error), mode func(int) (domain.ConversionMode, bool)) *Compiler {
	if mode == nil {
		mode = catalog.Mode
	}
	return &Compiler{
		opts: normalizeOptions(opts),
		stat: stat,
		mode: mode,
	}
}

// PassLogDir returns the directory two-pass statistics are written to.
func (c *Compiler) PassLogDir() string {
	return c.opts.PassLogDir
}

// Compile validates the drop, checks tool requirements and expands jobs.
// The returned BatchResult is populated on both success and failure; on
// failure err is a *Error and no jobs are returned.
func (c *Compiler) Compile(paths []string, modeIndex int, tools domain.ToolSet) ([]domain.Job, domain.BatchResult, error) {
	if err := c.preflight(paths); err != nil {
		return nil, failure(err), err
	}

	mode, ok := c.mode(modeIndex)
	if !ok {
		err := &Error{Kind: ErrInvalidMode, Message: "Invalid conversion mode."}
		return nil, failure(err), err
	}

	if err := checkRequirements(mode, tools); err != nil {
		return nil, failure(err), err
	}

	sorted := pathnorm.SortAlphanumeric(paths)
	jobs := make([]domain.Job, 0, len(sorted)*len(mode.Outputs))
	for _, path := range sorted {
		for _, out := range mode.Outputs {
			jobs = append(jobs, c.expand(path, out, tools))
		}
	}

	if len(jobs) == 0 {
		err := &Error{Kind: ErrNoJobs, Message: "No jobs were generated."}
		return nil, failure(err), err
	}

	return jobs, domain.BatchResult{
		OK:        true,
		Message:   summary(len(sorted), len(mode.Outputs), len(jobs)),
		Label:     mode.Label,
		Commands:  RenderCommands(jobs),
		JobsTotal: len(jobs),
	}, nil
}

// preflight rejects empty drops, non-media extensions and missing files.
func (c *Compiler) preflight(paths []string) error {
	if len(paths) == 0 {
		return &Error{Kind: ErrNoFiles, Message: "No files received."}
	}

	for _, path := range paths {
		name := filepath.Base(path)
		if !catalog.IsSupported(path) {
			return &Error{
				Kind: ErrUnsupportedType,
				Message: fmt.Sprintf(
					"Unsupported file type: %s\n\nAlchemist only accepts video files\n(%s).",
					name, strings.Join(catalog.ExtensionList(), ", "),
				),
				WrongType: true,
			}
		}
		info, err := c.stat(path)
		if err != nil || info.IsDir() {
			return &Error{Kind: ErrFileNotFound, Message: fmt.Sprintf("File not found:\n%s", name)}
		}
	}
	return nil
}

// checkRequirements fails when a strictly-required tool is unresolved. The
// legacy exporter degrades to ffmpeg, which then becomes required itself.
func checkRequirements(mode domain.ConversionMode, tools domain.ToolSet) error {
	needFFmpeg, needTheora := false, false
	for _, out := range mode.Outputs {
		switch out.Kind {
		case domain.ToolKindSinglePass, domain.ToolKindTwoPass:
			needFFmpeg = true
		case domain.ToolKindTheora:
			needTheora = true
		case domain.ToolKindLegacyPreset:
			if !tools.QTExport.Available {
				needFFmpeg = true
			}
		}
	}

	if needFFmpeg && !tools.FFmpeg.Available {
		return missingTool("FFmpeg", tools.FFmpeg, "brew install ffmpeg")
	}
	if needTheora && !tools.FFmpeg2Theora.Available {
		return missingTool("ffmpeg2theora", tools.FFmpeg2Theora, "brew install ffmpeg2theora")
	}
	return nil
}

func missingTool(display string, tool domain.ResolvedTool, install string) error {
	configured := tool.ConfiguredDir
	if configured == "" {
		configured = "(not set)"
	}
	return &Error{
		Kind: ErrToolMissing,
		Message: fmt.Sprintf(
			"%s not found.\nConfigured path: %s\n\nInstall via: %s",
			display, configured, install,
		),
	}
}

// expand builds the job for one input/output pairing.
func (c *Compiler) expand(input string, out domain.OutputSpec, tools domain.ToolSet) domain.Job {
	stem := Stem(input)
	dest := Destination(input, out.Suffix)
	job := domain.Job{
		Kind:   out.Kind,
		Input:  input,
		Output: dest,
		Note:   out.Note,
	}

	switch out.Kind {
	case domain.ToolKindTwoPass:
		logPath := filepath.Join(c.opts.PassLogDir, stem+out.Suffix)
		pass1 := passInvocation(tools.FFmpeg.Path, input, 1, logPath, out.Flags, dest)
		pass2 := passInvocation(tools.FFmpeg.Path, input, 2, logPath, out.Flags, dest)
		job.Primary = pass1
		job.Secondary = &pass2
		job.Multipass = true

	case domain.ToolKindTheora:
		args := make([]string, 0, len(out.Flags)+3)
		args = append(args, out.Flags...)
		args = append(args, "-o", dest, input)
		job.Primary = domain.Invocation{Path: tools.FFmpeg2Theora.Path, Args: args}

	case domain.ToolKindLegacyPreset:
		if tools.QTExport.Available {
			job.Primary = domain.Invocation{
				Path: tools.QTExport.Path,
				Args: []string{
					"--loadsettings=" + filepath.Join(c.opts.PresetDir, out.Preset),
					input,
					dest,
				},
			}
			break
		}
		job.Primary = ffmpegInvocation(tools.FFmpeg.Path, input, out.FallbackFlags, dest)
		if job.Note == "" {
			job.Note = FallbackNote
		}

	default:
		job.Primary = ffmpegInvocation(tools.FFmpeg.Path, input, out.Flags, dest)
	}

	return job
}

func ffmpegInvocation(ffmpeg, input string, flags []string, dest string) domain.Invocation {
	args := make([]string, 0, len(flags)+4)
	args = append(args, "-i", input)
	args = append(args, flags...)
	args = append(args, dest, "-y")
	return domain.Invocation{Path: ffmpeg, Args: args}
}

func passInvocation(ffmpeg, input string, pass int, logPath string, flags []string, dest string) domain.Invocation {
	args := make([]string, 0, len(flags)+8)
	args = append(args, "-i", input, "-pass", strconv.Itoa(pass), "-passlogfile", logPath)
	args = append(args, flags...)
	args = append(args, dest, "-y")
	return domain.Invocation{Path: ffmpeg, Args: args}
}

// Stem returns the input basename without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Destination places stem+suffix next to the input.
func Destination(input, suffix string) string {
	return filepath.Join(filepath.Dir(input), Stem(input)+suffix)
}

// RenderCommands renders every invocation of every job in execution order.
func RenderCommands(jobs []domain.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		for _, inv := range job.Invocations() {
			out = append(out, inv.String())
		}
	}
	return out
}

func failure(err error) domain.BatchResult {
	result := domain.BatchResult{OK: false, Message: err.Error(), Commands: []string{}}
	var cerr *Error
	if errors.As(err, &cerr) {
		result.WrongType = cerr.WrongType
	}
	return result
}

func summary(files, outputs, jobs int) string {
	return fmt.Sprintf(
		"Encoding started:\n%d %s × %d %s = %d %s",
		files, plural(files, "file"),
		outputs, plural(outputs, "output"),
		jobs, plural(jobs, "job"),
	)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func normalizeOptions(opts Options) Options {
	if strings.TrimSpace(opts.PassLogDir) == "" {
		opts.PassLogDir = filepath.Join(os.TempDir(), "alchemist-passlogs")
	}
	return opts
}
