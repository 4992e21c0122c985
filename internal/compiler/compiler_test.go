package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alchemist/internal/catalog"
	"alchemist/internal/domain"
)

const (
	modeProRes = 0
	modeAIC    = 3
	modeHTML5  = 4
	modeMobile = 6
)

func allTools() domain.ToolSet {
	return domain.ToolSet{
		FFmpeg:        domain.ResolvedTool{Name: "ffmpeg", Path: "/opt/homebrew/bin/ffmpeg", Available: true, ConfiguredDir: "/opt/homebrew/bin/"},
		FFmpeg2Theora: domain.ResolvedTool{Name: "ffmpeg2theora", Path: "/opt/homebrew/bin/ffmpeg2theora", Available: true, ConfiguredDir: "/opt/homebrew/bin/"},
		QTExport:      domain.ResolvedTool{Name: "qt_export", Path: "/opt/local/bin/qt_export", Available: true, ConfiguredDir: "/opt/local/bin/"},
	}
}

func withoutQT(tools domain.ToolSet) domain.ToolSet {
	tools.QTExport = domain.ResolvedTool{Name: "qt_export", ConfiguredDir: "/opt/local/bin/"}
	return tools
}

// touch creates empty media files and returns their paths.
func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("media"), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	return New(Options{PassLogDir: "/var/tmp/passlogs", PresetDir: "/app/presets"})
}

// TestCompileJobCountIsCrossProduct verifies jobs_total equals inputs × outputs for every mode.
func TestCompileJobCountIsCrossProduct(t *testing.T) {
	paths := touch(t, t.TempDir(), "a.mov", "b.mp4", "c.mkv")
	c := newTestCompiler(t)

	for _, mode := range catalog.Modes() {
		jobs, result, err := c.Compile(paths, mode.Index, allTools())
		require.NoError(t, err, mode.Label)
		assert.True(t, result.OK)
		assert.Equal(t, len(paths)*len(mode.Outputs), result.JobsTotal, mode.Label)
		assert.Len(t, jobs, result.JobsTotal)
		assert.Equal(t, mode.Label, result.Label)
	}
}

// TestCompileRejectsNonMediaExtension verifies wrong_type and empty commands.
func TestCompileRejectsNonMediaExtension(t *testing.T) {
	dir := t.TempDir()
	paths := touch(t, dir, "clip.mov", "notes.TXT")
	jobs, result, err := newTestCompiler(t).Compile(paths, modeHTML5, allTools())

	require.ErrorIs(t, err, ErrUnsupportedType)
	assert.Nil(t, jobs)
	assert.False(t, result.OK)
	assert.True(t, result.WrongType)
	assert.Empty(t, result.Commands)
	assert.NotNil(t, result.Commands)
	assert.Contains(t, result.Message, "notes.TXT")
	assert.Contains(t, result.Message, ".mxf")
}

// TestCompilePreflightFailures covers the synchronous rejection paths.
func TestCompilePreflightFailures(t *testing.T) {
	dir := t.TempDir()
	existing := touch(t, dir, "clip.mov")

	tests := []struct {
		name    string
		paths   []string
		mode    int
		tools   domain.ToolSet
		want    error
		message string
	}{
		{"empty", nil, modeHTML5, allTools(), ErrNoFiles, "No files received."},
		{"missing file", []string{filepath.Join(dir, "gone.mov")}, modeHTML5, allTools(), ErrFileNotFound, "File not found:\ngone.mov"},
		{"directory", []string{touchDir(t, dir, "folder.mov")}, modeHTML5, allTools(), ErrFileNotFound, "File not found:\nfolder.mov"},
		{"mode too high", existing, catalog.Len(), allTools(), ErrInvalidMode, "Invalid conversion mode."},
		{"mode negative", existing, -1, allTools(), ErrInvalidMode, "Invalid conversion mode."},
		{
			"ffmpeg missing",
			existing, modeMobile,
			func() domain.ToolSet { ts := allTools(); ts.FFmpeg.Available = false; ts.FFmpeg.Path = ""; return ts }(),
			ErrToolMissing, "FFmpeg not found.\nConfigured path: /opt/homebrew/bin/\n\nInstall via: brew install ffmpeg",
		},
		{
			"theora missing",
			existing, modeHTML5,
			func() domain.ToolSet { ts := allTools(); ts.FFmpeg2Theora.Available = false; return ts }(),
			ErrToolMissing, "ffmpeg2theora not found.",
		},
		{
			"fallback without ffmpeg",
			existing, modeProRes,
			func() domain.ToolSet { ts := withoutQT(allTools()); ts.FFmpeg.Available = false; return ts }(),
			ErrToolMissing, "FFmpeg not found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, result, err := newTestCompiler(t).Compile(tt.paths, tt.mode, tt.tools)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, jobs)
			assert.False(t, result.OK)
			assert.False(t, result.WrongType)
			assert.Empty(t, result.Commands)
			assert.True(t, strings.HasPrefix(result.Message, tt.message), result.Message)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
		})
	}
}

// TestCompileNoJobs verifies a mode without outputs is reported.
func TestCompileNoJobs(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	c := NewForTests(Options{}, os.Stat, func(int) (domain.ConversionMode, bool) {
		return domain.ConversionMode{Label: "empty"}, true
	})

	_, result, err := c.Compile(paths, 0, allTools())
	require.ErrorIs(t, err, ErrNoJobs)
	assert.Equal(t, "No jobs were generated.", result.Message)
}

// TestCompileLegacyPresetUsesQTExport verifies the preset invocation shape.
func TestCompileLegacyPresetUsesQTExport(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	jobs, _, err := newTestCompiler(t).Compile(paths, modeProRes, allTools())
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	dest := filepath.Join(filepath.Dir(paths[0]), "clip.prores422.mov")
	assert.Equal(t, "/opt/local/bin/qt_export", job.Primary.Path)
	assert.Equal(t, []string{
		"--loadsettings=" + filepath.Join("/app/presets", "qt_export_prores422.st"),
		paths[0],
		dest,
	}, job.Primary.Args)
	assert.Nil(t, job.Secondary)
	assert.Empty(t, job.Note)
	assert.Equal(t, dest, job.Output)
}

// TestCompileLegacyPresetFallback verifies the ffmpeg substitute and its note.
func TestCompileLegacyPresetFallback(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	c := newTestCompiler(t)

	jobs, result, err := c.Compile(paths, modeProRes, withoutQT(allTools()))
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Len(t, jobs, 1)

	dest := filepath.Join(filepath.Dir(paths[0]), "clip.prores422.mov")
	mode, _ := catalog.Mode(modeProRes)
	want := append([]string{"-i", paths[0]}, mode.Outputs[0].FallbackFlags...)
	want = append(want, dest, "-y")

	assert.Equal(t, "/opt/homebrew/bin/ffmpeg", jobs[0].Primary.Path)
	assert.Equal(t, want, jobs[0].Primary.Args)
	assert.Equal(t, FallbackNote, jobs[0].Note)

	aic, _, err := c.Compile(paths, modeAIC, withoutQT(allTools()))
	require.NoError(t, err)
	assert.Equal(t, "AIC has no open FFmpeg codec; using ProRes LT as fallback", aic[0].Note)
}

// TestCompileTwoPassSharesDestination verifies the two invocations differ only in pass index.
func TestCompileTwoPassSharesDestination(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	c := NewForTests(Options{PassLogDir: "/logs"}, os.Stat, func(int) (domain.ConversionMode, bool) {
		return domain.ConversionMode{
			Label: "two-pass only",
			Outputs: []domain.OutputSpec{{
				Kind:   domain.ToolKindTwoPass,
				Flags:  []string{"-c:v", "libx264", "-b:v", "1M"},
				Suffix: ".tp.mp4",
			}},
		}, true
	})

	jobs, result, err := c.Compile(paths, 0, allTools())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 1, result.JobsTotal)

	job := jobs[0]
	require.NotNil(t, job.Secondary)
	assert.True(t, job.Multipass)

	dest := filepath.Join(filepath.Dir(paths[0]), "clip.tp.mp4")
	logPath := filepath.Join("/logs", "clip.tp.mp4")
	pass := func(n string) []string {
		return []string{"-i", paths[0], "-pass", n, "-passlogfile", logPath, "-c:v", "libx264", "-b:v", "1M", dest, "-y"}
	}
	assert.Equal(t, pass("1"), job.Primary.Args)
	assert.Equal(t, pass("2"), job.Secondary.Args)
	assert.Equal(t, job.Primary.Path, job.Secondary.Path)

	diff := 0
	for i := range job.Primary.Args {
		if job.Primary.Args[i] != job.Secondary.Args[i] {
			diff++
		}
	}
	assert.Equal(t, 1, diff)

	assert.Len(t, result.Commands, 2, "both passes are rendered")
}

// TestCompileTheoraInvocation verifies the output flag precedes the input.
func TestCompileTheoraInvocation(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	jobs, _, err := newTestCompiler(t).Compile(paths, modeHTML5, allTools())
	require.NoError(t, err)

	var theora *domain.Job
	for i := range jobs {
		if jobs[i].Kind == domain.ToolKindTheora {
			theora = &jobs[i]
			break
		}
	}
	require.NotNil(t, theora)
	args := theora.Primary.Args
	assert.Equal(t, "/opt/homebrew/bin/ffmpeg2theora", theora.Primary.Path)
	assert.Equal(t, []string{"-o", theora.Output, paths[0]}, args[len(args)-3:])
	assert.Equal(t, "-V", args[0])
	assert.False(t, theora.Multipass)
}

// TestCompileSinglePassInvocation verifies the single-pass argument order.
func TestCompileSinglePassInvocation(t *testing.T) {
	paths := touch(t, t.TempDir(), "clip.mov")
	jobs, _, err := newTestCompiler(t).Compile(paths, modeHTML5, allTools())
	require.NoError(t, err)

	single := jobs[2]
	require.Equal(t, domain.ToolKindSinglePass, single.Kind)
	args := single.Primary.Args
	assert.Equal(t, []string{"-i", paths[0]}, args[:2])
	assert.Equal(t, []string{single.Output, "-y"}, args[len(args)-2:])
	assert.True(t, strings.HasSuffix(single.Output, "clip.720p.Q.mp4"))
}

// TestCompileOrdersFilesAlphanumerically verifies file × output ordering.
func TestCompileOrdersFilesAlphanumerically(t *testing.T) {
	dir := t.TempDir()
	paths := touch(t, dir, "clip10.mov", "clip2.mov", "clip1.mov")
	jobs, _, err := newTestCompiler(t).Compile(paths, modeMobile, allTools())
	require.NoError(t, err)
	require.Len(t, jobs, 6)

	var outputs []string
	for _, job := range jobs {
		outputs = append(outputs, filepath.Base(job.Output))
	}
	assert.Equal(t, []string{
		"clip1.480p.mp4", "clip1.360p.mp4",
		"clip2.480p.mp4", "clip2.360p.mp4",
		"clip10.480p.mp4", "clip10.360p.mp4",
	}, outputs)
}

// TestCompileDestinationsDeterministic verifies compiling twice yields identical destinations.
func TestCompileDestinationsDeterministic(t *testing.T) {
	paths := touch(t, t.TempDir(), "b.mov", "a.mov")
	c := newTestCompiler(t)

	first, _, err := c.Compile(paths, modeHTML5, allTools())
	require.NoError(t, err)
	second, _, err := c.Compile(paths, modeHTML5, allTools())
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	seen := map[string]bool{}
	for i := range first {
		assert.Equal(t, first[i].Output, second[i].Output)
		assert.False(t, seen[first[i].Output], "duplicate destination %s", first[i].Output)
		seen[first[i].Output] = true
	}
}

// TestCompileSummaryMessage checks pluralisation of the start message.
func TestCompileSummaryMessage(t *testing.T) {
	paths := touch(t, t.TempDir(), "one.mov")
	_, result, err := newTestCompiler(t).Compile(paths, modeProRes, allTools())
	require.NoError(t, err)
	assert.Equal(t, "Encoding started:\n1 file × 1 output = 1 job", result.Message)

	paths = touch(t, t.TempDir(), "a.mov", "b.mov")
	_, result, err = newTestCompiler(t).Compile(paths, modeMobile, allTools())
	require.NoError(t, err)
	assert.Equal(t, "Encoding started:\n2 files × 2 outputs = 4 jobs", result.Message)
}

// TestRenderCommandsQuotesArguments verifies rendered commands split back into the argv.
func TestRenderCommandsQuotesArguments(t *testing.T) {
	job := domain.Job{Primary: domain.Invocation{
		Path: "/usr/bin/ffmpeg",
		Args: []string{"-i", "/Media/My Clip.mov", "-vf", "lutyuv=y=gammaval(1.2),scale=1280:720", "/Media/My Clip.720p.mp4", "-y"},
	}}
	got := RenderCommands([]domain.Job{job})
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "/usr/bin/ffmpeg -i '/Media/My Clip.mov' -vf "), got[0])

	argv, err := shellquote.Split(got[0])
	require.NoError(t, err)
	assert.Equal(t, job.Primary.Argv(), argv)
}

func touchDir(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(p, 0o755))
	return p
}
