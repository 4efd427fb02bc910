// Package log writes file-backed diagnostics for a vira session: lifecycle
// events, warnings and errors, and per-request network timings. Logging is
// optional; every function is a no-op until Init succeeds.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: VIRA_LOG_PATH environment variable
	envPath := os.Getenv("VIRA_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// RequestMetrics captures one backend round trip.
type RequestMetrics struct {
	DNSMs      float64
	TCPMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
}

// Request records timing for one interpretation or execution call.
func Request(op string, m RequestMetrics) {
	if !logReady {
		return
	}
	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}
	diagLog.Info().
		Str("op", op).
		Str("conn", connStatus).
		Float64("dns_ms", m.DNSMs).
		Float64("tcp_ms", m.TCPMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Msg("request")
}

// ActionExecuted records the outcome of one execution gateway call.
func ActionExecuted(kind string, ok bool, detail string) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if !ok {
		ev = diagLog.Error()
	}
	ev.Str("kind", kind).Bool("ok", ok)
	if detail != "" {
		ev = ev.Str("detail", detail)
	}
	ev.Msg("action_executed")
}

func SessionStart(apiBase, project, format string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("api", apiBase).
		Str("project", project).
		Str("format", format).
		Msg("session_start")
}

func SessionEnd(executed int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("executed", executed).
		Msg("session_end")
}
