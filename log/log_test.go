package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/vira-logs")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/vira-logs" {
		t.Errorf("got %q, want /tmp/vira-logs", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("VIRA_LOG_PATH", "/tmp/vira-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/vira-env-log" {
		t.Errorf("got %q, want /tmp/vira-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("VIRA_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty default directory")
	}
}

func TestInitWritesDiagnostics(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	SessionStart("http://localhost:8000/api", "PROJ", "flac")
	Request("interpret_audio", RequestMetrics{TotalMs: 12.5})
	ActionExecuted("create_issue", true, "")
	SessionEnd(1)
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"session_start", "request", "action_executed", "session_end"} {
		if !strings.Contains(content, want) {
			t.Errorf("diagnostics log missing %q:\n%s", want, content)
		}
	}
}

func TestNoopBeforeInit(t *testing.T) {
	SetDir("")
	t.Cleanup(func() { SetDir("") })

	// Must not panic with logging uninitialized.
	Info("ignored")
	Warnf("ignored %d", 1)
	Errorf("ignored %d", 2)
	Request("op", RequestMetrics{})
	SessionEnd(0)
}
