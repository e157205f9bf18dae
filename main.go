package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/atomicstack/mention-popup/internal/app"
	"github.com/atomicstack/mention-popup/internal/config"
	"github.com/atomicstack/mention-popup/internal/logging"
	"github.com/atomicstack/mention-popup/internal/logging/events"
)

const embeddedCollections = "embedded default"

var errNoTerminal = errors.New("stdout is not a terminal; run mention-popup inside a terminal or tmux pane")

func main() {
	runtimeCfg := config.MustLoad()
	if err := config.Validate(runtimeCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(runtimeCfg.Logging.FilePath)
	logging.SetTraceEnabled(runtimeCfg.Logging.Trace)

	tty := collectTTYDetails()
	events.App.Start(startupTracePayload(runtimeCfg, tty))

	err := tty.check()
	if err == nil {
		err = app.Run(runtimeCfg.App)
	}
	if err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// startupTracePayload bundles runtime context for trace logging, including
// the collections source.
func startupTracePayload(cfg config.Config, tty ttyDetails) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+2)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath

	collections := cfg.App.CollectionsFile
	if collections == "" {
		collections = embeddedCollections
	}
	payload := map[string]interface{}{
		"argv":        cfg.Args,
		"flags":       flags,
		"config":      cfg,
		"collections": collections,
		"focus":       cfg.App.Focus,
		"tty":         tty,
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	}
	if cwd, err := os.Getwd(); err == nil {
		payload["cwd"] = cwd
	}
	return payload
}

type ttyDetails struct {
	Size   *ttySize   `json:"size,omitempty"`
	Probes []ttyProbe `json:"probes"`
}

type ttySize struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ttyProbe struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Error      string `json:"error,omitempty"`
}

// check fails when stdout cannot host the alternate screen the popup draws on.
func (d ttyDetails) check() error {
	for _, p := range d.Probes {
		if p.Name == "stdout" && !p.IsTerminal {
			return errNoTerminal
		}
	}
	return nil
}

// collectTTYDetails probes the standard descriptors. The first terminal with
// a readable size becomes the reported page size.
func collectTTYDetails() ttyDetails {
	files := []struct {
		name string
		f    *os.File
	}{
		{"stdin", os.Stdin},
		{"stdout", os.Stdout},
		{"stderr", os.Stderr},
	}
	var details ttyDetails
	for _, file := range files {
		probe, size := probeTTY(file.name, int(file.f.Fd()))
		details.Probes = append(details.Probes, probe)
		if details.Size == nil && size != nil {
			details.Size = size
		}
	}
	return details
}

func probeTTY(name string, fd int) (ttyProbe, *ttySize) {
	probe := ttyProbe{Name: name}
	if fd < 0 || !term.IsTerminal(fd) {
		return probe, nil
	}
	probe.IsTerminal = true
	width, height, err := term.GetSize(fd)
	if err != nil {
		probe.Error = err.Error()
		return probe, nil
	}
	return probe, &ttySize{Source: name, Width: width, Height: height}
}
