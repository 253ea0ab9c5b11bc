// Command parley is a terminal chat client that streams replies from a
// parley relay and keeps a local history of conversations.
//
// Usage:
//
//	parley [flags]
//
// Flags:
//
//	-config string     Path to the config file (default: ~/.parley/config.toml)
//	-relay string      Relay base URL (default: http://localhost:3000)
//	-model string      Relay route to request (default: deepseek-v3)
//	-store string      Session store: json or sqlite (default: json)
//	-data-dir string   Directory holding sessions and logs (default: ~/.parley)
//	-log-file string   Log file (default: <data-dir>/parley.log)
//	-log-level string  debug, info, warn or error (default: info)
//
// Each flag can also be set with an environment variable (PARLEY_RELAY_URL,
// PARLEY_MODEL, PARLEY_STORE, PARLEY_DATA_DIR, PARLEY_LOG_FILE,
// PARLEY_LOG_LEVEL) or in the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/fsnotify"
	parleyjson "github.com/fwojciec/parley/json"
	"github.com/fwojciec/parley/logging"
	"github.com/fwojciec/parley/relay"
	"github.com/fwojciec/parley/sqlite"
	"github.com/fwojciec/parley/toml"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to the config file (default: ~/.parley/config.toml)")
		flags      options
	)
	flag.StringVar(&flags.relayURL, "relay", "", "Relay base URL")
	flag.StringVar(&flags.model, "model", "", "Relay route to request")
	flag.StringVar(&flags.store, "store", "", "Session store: json or sqlite")
	flag.StringVar(&flags.dataDir, "data-dir", "", "Directory holding sessions and logs")
	flag.StringVar(&flags.logFile, "log-file", "", "Log file")
	flag.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path := *configPath
	if path == "" {
		path = toml.DefaultPath()
	}
	file, err := toml.Load(path)
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	env := options{
		relayURL: os.Getenv("PARLEY_RELAY_URL"),
		model:    os.Getenv("PARLEY_MODEL"),
		store:    os.Getenv("PARLEY_STORE"),
		dataDir:  os.Getenv("PARLEY_DATA_DIR"),
		logFile:  os.Getenv("PARLEY_LOG_FILE"),
		logLevel: os.Getenv("PARLEY_LOG_LEVEL"),
	}
	cfg, err := resolveConfig(flags, env, file, home)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs only go to the file.
	logger, closeLog, err := logging.Setup(nil, cfg.logFile, cfg.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := parley.NewHub()
	defer hub.Close()

	watcher, err := fsnotify.NewWatcher(cfg.dataDir, hub,
		fsnotify.WithPattern(parleyjson.SessionsFile, parley.SessionsKey),
		fsnotify.WithPattern(sqliteFile+"*", parley.SessionsKey),
		fsnotify.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		// Other instances' changes go unnoticed; the app still works.
		logger.Warn("watch data dir", "error", err)
	} else {
		defer watcher.Close()
	}

	logger.Info("starting", "relay", cfg.relayURL, "model", cfg.model, "store", cfg.store)
	app := bt.NewApp(bt.Config{
		Store:  store,
		Client: relay.New(cfg.relayURL, relay.WithModel(cfg.model)),
		Hub:    hub,
		Model:  cfg.model,
		Theme:  parley.DefaultTheme(),
		Logger: logger,
	})
	if err := bt.Run(ctx, app); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// openStore opens the configured session store and returns its closer.
func openStore(cfg config, logger *slog.Logger) (bt.Store, func() error, error) {
	switch cfg.store {
	case storeSQLite:
		s, err := sqlite.Open(filepath.Join(cfg.dataDir, sqliteFile), sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s := parleyjson.NewStore(cfg.dataDir, parleyjson.WithLogger(logger))
		return s, func() error { return nil }, nil
	}
}
