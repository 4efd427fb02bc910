package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"vira/api"
	"vira/audio"
	"vira/encoder"
	"vira/interpret"
	"vira/jira"
	"vira/log"
	"vira/record"
)

var version = "dev"

const defaultAPIBase = "http://localhost:8000/api"

func apiBase(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("VIRA_API_URL"); env != "" {
		return env
	}
	return defaultAPIBase
}

// resolveDevice picks the capture device: named flag match first, then the
// interactive picker, else the system default.
func resolveDevice(ctx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		devices, err := ctx.Devices()
		if err != nil {
			return nil, fmt.Errorf("enumerating devices: %w", err)
		}
		for i := range devices {
			if strings.EqualFold(devices[i].Name, name) {
				return &devices[i], nil
			}
		}
		return nil, fmt.Errorf("no capture device named %q", name)
	}
	if setup {
		return audio.SelectDevice(ctx)
	}
	return nil, nil
}

func main() {
	apiFlag := flag.String("api", "", "Backend base URL (default: $VIRA_API_URL or "+defaultAPIBase+")")
	projectFlag := flag.String("project", "", "Jira project key (skips the project picker)")
	formatFlag := flag.String("format", "flac", "Audio upload format: wav or flac")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("vira", version)
		return
	}

	if *formatFlag != "wav" && *formatFlag != "flac" {
		fmt.Fprintf(os.Stderr, "unsupported format %q (want wav or flac)\n", *formatFlag)
		os.Exit(1)
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving log dir: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logDir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "opening log: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	base := apiBase(*apiFlag)
	client := api.New(base, os.Getenv("VIRA_API_TOKEN"))
	client.Warm()
	gateway := jira.NewClient(client)
	interp := interpret.NewClient(client)

	projectKey, err := selectProject(gateway, *projectFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "selecting project: %v\n", err)
		os.Exit(1)
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	device, err := resolveDevice(audioCtx, *deviceFlag, *setupFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if device != nil && audio.IsBluetooth(device.Name) {
		log.Warnf("bluetooth microphone %q selected, expect degraded quality", device.Name)
	}

	capture, err := audioCtx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	rec := record.New(capture, *formatFlag)

	log.SessionStart(base, projectKey, *formatFlag)
	log.Info("device: " + capture.DeviceName())

	prog := tea.NewProgram(
		newTUIModel(projectKey, rec, interp, gateway),
		tea.WithAltScreen(),
	)
	run(prog, rec)
}

func run(prog *tea.Program, rec *record.Recorder) {
	rec.OnElapsed(func(d time.Duration) {
		prog.Send(recordElapsedMsg{Elapsed: d})
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		prog.Quit()
	}()

	final, err := prog.Run()
	if err != nil {
		log.Errorf("tui: %v", err)
		fmt.Fprintf(os.Stderr, "vira: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(tuiModel); ok && m.executed > 0 {
		log.SessionEnd(m.executed)
	}
}
