package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeInstaller builds an installer whose available commands and results are scripted.
func fakeInstaller(goos string, available map[string]bool, failing map[string]bool) (*toolInstaller, *[]string) {
	var ran []string
	inst := &toolInstaller{
		goos: goos,
		lookPath: func(name string) (string, error) {
			if available[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		run: func(name string, args ...string) error {
			cmd := formatCommand(name, args)
			ran = append(ran, cmd)
			if failing[name] {
				return errors.New(name + " failed")
			}
			return nil
		},
		mkdirAll: os.MkdirAll,
	}
	return inst, &ran
}

// TestInstallUsesFirstAvailableManager ensures unavailable managers are skipped.
func TestInstallUsesFirstAvailableManager(t *testing.T) {
	inst, ran := fakeInstaller("darwin", map[string]bool{"port": true, "ffmpeg2theora": true}, nil)

	if err := inst.install("ffmpeg2theora"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(*ran) != 1 || (*ran)[0] != "port install ffmpeg2theora" {
		t.Fatalf("ran = %v", *ran)
	}
}

// TestInstallFallsBackAcrossManagers ensures a failing manager hands over to the next.
func TestInstallFallsBackAcrossManagers(t *testing.T) {
	inst, ran := fakeInstaller("linux",
		map[string]bool{"apt-get": true, "dnf": true, "ffmpeg": true},
		map[string]bool{"apt-get": true},
	)

	if err := inst.install("ffmpeg"); err != nil {
		t.Fatalf("install: %v", err)
	}
	last := (*ran)[len(*ran)-1]
	if last != "dnf install -y ffmpeg" {
		t.Fatalf("last command = %q, want dnf install", last)
	}
}

// TestInstallElevatesOnLinux ensures privileged managers are retried through sudo.
func TestInstallElevatesOnLinux(t *testing.T) {
	inst, ran := fakeInstaller("linux",
		map[string]bool{"zypper": true, "sudo": true, "ffmpeg": true},
		map[string]bool{"zypper": true},
	)

	if err := inst.install("ffmpeg"); err != nil {
		t.Fatalf("install: %v", err)
	}
	want := []string{"zypper install -y ffmpeg", "sudo -n zypper install -y ffmpeg"}
	if strings.Join(*ran, ";") != strings.Join(want, ";") {
		t.Fatalf("ran = %v, want %v", *ran, want)
	}
}

// TestInstallWithoutManagerFails ensures a host without package managers reports it.
func TestInstallWithoutManagerFails(t *testing.T) {
	inst, ran := fakeInstaller("linux", nil, nil)

	err := inst.install("ffmpeg")
	if err == nil || !strings.Contains(err.Error(), "no supported package manager found") {
		t.Fatalf("install error = %v", err)
	}
	if len(*ran) != 0 {
		t.Fatalf("ran = %v, want nothing", *ran)
	}
}

// TestInstallVerifiesToolOnPath ensures a silent install that leaves no binary is an error.
func TestInstallVerifiesToolOnPath(t *testing.T) {
	inst, _ := fakeInstaller("darwin", map[string]bool{"brew": true}, nil)

	if err := inst.install("ffmpeg"); err == nil || !strings.Contains(err.Error(), "verify ffmpeg on PATH") {
		t.Fatalf("install error = %v", err)
	}
}

// TestInstallOptionsWindowsTheora ensures the theora encoder has its own recipe.
func TestInstallOptionsWindowsTheora(t *testing.T) {
	options := installOptions("ffmpeg2theora", "windows")
	if len(options) != 1 || options[0].manager != "choco" {
		t.Fatalf("options = %+v", options)
	}
	if got := installOptions("ffmpeg", "windows"); got[0].manager != "winget" {
		t.Fatalf("first ffmpeg manager = %s, want winget", got[0].manager)
	}
}

// TestInstallOrFixPassLogDirCreatesDirectory ensures the pass log fix creates missing directories.
func TestInstallOrFixPassLogDirCreatesDirectory(t *testing.T) {
	ta := newTestApp(t, nil)
	dir := filepath.Join(t.TempDir(), "nested", "passlogs")
	ta.app.Runtime.Execution.PassLogDir = dir

	report, err := ta.app.InstallOrFixDiagnostic("pass_log_dir")
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("pass log dir not created: %v", err)
	}
	if len(report.Items) == 0 {
		t.Fatal("expected refreshed report")
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownItems ensures unknown and manual items are refused.
func TestInstallOrFixDiagnosticRejectsUnknownItems(t *testing.T) {
	ta := newTestApp(t, nil)

	if _, err := ta.app.InstallOrFixDiagnostic(""); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := ta.app.InstallOrFixDiagnostic("model_path"); err == nil {
		t.Fatal("expected error for unsupported id")
	}
	report, err := ta.app.InstallOrFixDiagnostic("tool_qt_export")
	if err == nil {
		t.Fatal("qt_export has no automatic install")
	}
	if len(report.Items) == 0 {
		t.Fatal("manual items still refresh the report")
	}
}
