// Petagentd is the agent daemon behind a desktop companion character.
//
// It drives one or more personas: each persona talks to a remote
// language model, controls its avatar through tools, remembers its
// conversations, and can message other pets over a LAN relay. The
// desktop shell talks to the daemon over a local HTTP API.
//
// Usage:
//
//	petagentd serve            Start the daemon
//	petagentd init [dir]       Write a default config.yaml
//	petagentd version          Print version and build information
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/desktopfriends/petagent/internal/agent"
	"github.com/desktopfriends/petagent/internal/api"
	"github.com/desktopfriends/petagent/internal/buildinfo"
	"github.com/desktopfriends/petagent/internal/config"
	"github.com/desktopfriends/petagent/internal/memory"
	"github.com/desktopfriends/petagent/internal/peers"
)

// main constructs the OS-level environment and delegates to [run], so
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, which makes it impossible
// to call run() concurrently from tests, and the argument surface here
// is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintf(w, `%s

Usage:
  petagentd [flags] <command>

Commands:
  serve            Start the daemon
  init [dir]       Write a default config.yaml
  version          Print version and build information

Flags:
  -config <path>   Config file (default: search standard locations)
`, buildinfo.String())
	return nil
}

func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting petagentd",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	// Reconfigure now that the desired level and format are known.
	{
		level := slog.LevelInfo
		if cfg.LogLevel != "" {
			level, err = config.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
		}
		logger = newLogger(stdout, level, cfg.LogFormat)
	}
	logger.Info("config loaded", "path", cfgPath, "port", cfg.Listen.Port, "personas", len(cfg.Personas))

	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := filepath.Join(cfg.DataDir, "petagent.db")
	store, err := memory.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history database %s: %w", dbPath, err)
	}
	defer store.Close()
	logger.Info("history database opened", "path", dbPath)

	collab := agent.Collaborators{
		Store:  store,
		Logger: logger,
	}

	// The relay identity is the primary (first) persona; the relay
	// protocol carries one identity per connection.
	var relay *peers.Client
	if cfg.Relay.Enabled && len(cfg.Personas) > 0 {
		p := cfg.Personas[0]
		relay = peers.NewClient(cfg.Relay.URL, p.ID, p.Name, logger)
		if err := relay.Connect(ctx); err != nil {
			logger.Warn("relay unavailable, peer tools disabled", "error", err)
			relay = nil
		} else {
			defer relay.Close()
			collab.Peers = relay
		}
	}

	manager, err := agent.NewManager(cfg.Personas, collab)
	if err != nil {
		return err
	}
	logger.Info("personas ready", "ids", manager.IDs())

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, manager, logger)

	// SIGINT/SIGTERM cancellation flows through the same ctx used by
	// all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("petagentd stopped")
	return nil
}

// runInit writes a default config.yaml into dir, refusing to overwrite
// an existing one.
func runInit(stdout io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("render default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "wrote %s\n", path)
	fmt.Fprintln(stdout, "edit it to set your provider credentials, then run: petagentd serve")
	return nil
}

// newLogger creates a structured logger writing to w. Format must be
// "text" or "json"; anything else defaults to text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
