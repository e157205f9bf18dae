package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/mention-popup/internal/app"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envSocketPath  = "TRIBUTE_SOCKET"
	envCollections = "TRIBUTE_COLLECTIONS"
	envWidth       = "TRIBUTE_WIDTH"
	envHeight      = "TRIBUTE_HEIGHT"
	envShowFooter  = "TRIBUTE_FOOTER"
	envFocus       = "TRIBUTE_FOCUS"
	envReposition  = "TRIBUTE_REPOSITION_INTERVAL"
	envTrace       = "TRIBUTE_TRACE"
	envLogFile     = "TRIBUTE_LOG_FILE"
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("mention-popup", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	socket := fs.String("socket", envOrDefault(env, envSocketPath, ""), "path to the tmux socket used by tmux sources")
	collections := fs.String("collections", envOrDefault(env, envCollections, ""), "path to a YAML collections file (empty uses the built-in set)")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, true), "show the key hint footer")
	focus := fs.String("focus", envOrDefault(env, envFocus, app.FocusText), "host focused at startup: text or rich")
	reposition := fs.Duration("reposition-interval", envOrDuration(env, envReposition, 50*time.Millisecond), "minimum interval between menu repositions while scrolling")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}
	if *reposition < 0 {
		return Config{}, fmt.Errorf("reposition-interval must be >= 0 (got %s)", *reposition)
	}

	cfg := Config{
		App: app.Config{
			SocketPath:         *socket,
			CollectionsFile:    *collections,
			Width:              *width,
			Height:             *height,
			ShowFooter:         *footer,
			Focus:              strings.ToLower(strings.TrimSpace(*focus)),
			RepositionInterval: *reposition,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"socket":      *socket,
			"collections": *collections,
			"width":       strconv.Itoa(*width),
			"height":      strconv.Itoa(*height),
			"footer":      strconv.FormatBool(*footer),
			"focus":       *focus,
			"reposition":  reposition.String(),
			"trace":       strconv.FormatBool(*trace),
			"logFile":     *logFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate checks values that flag parsing cannot.
func Validate(cfg Config) error {
	switch cfg.App.Focus {
	case app.FocusText, app.FocusRich:
	default:
		return fmt.Errorf("focus must be %q or %q (got %q)", app.FocusText, app.FocusRich, cfg.App.Focus)
	}
	if path := cfg.App.CollectionsFile; path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("collections file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("collections file %s is a directory", path)
		}
	}
	return nil
}
