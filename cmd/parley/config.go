package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fwojciec/parley/logging"
	"github.com/fwojciec/parley/relay"
	"github.com/fwojciec/parley/toml"
)

const (
	defaultRelayURL = "http://localhost:3000"
	storeJSON       = "json"
	storeSQLite     = "sqlite"
	sqliteFile      = "parley.db"
	logFileName     = "parley.log"
)

// options holds values from flags or environment variables. Empty means
// unset.
type options struct {
	relayURL string
	model    string
	store    string
	dataDir  string
	logFile  string
	logLevel string
}

// config is the resolved configuration.
type config struct {
	relayURL string
	model    string
	store    string
	dataDir  string
	logFile  string
	logLevel slog.Level
}

// resolveConfig merges flags over environment over the config file over
// defaults. Env vars and the file are read in main() and passed in; home
// is the user's home directory.
func resolveConfig(flags, env options, file toml.File, home string) (config, error) {
	cfg := config{
		relayURL: first(flags.relayURL, env.relayURL, file.RelayURL, defaultRelayURL),
		model:    first(flags.model, env.model, file.Model, relay.DefaultModel),
		store:    first(flags.store, env.store, file.Store, storeJSON),
		dataDir:  first(flags.dataDir, env.dataDir, file.DataDir, filepath.Join(home, ".parley")),
	}
	if cfg.store != storeJSON && cfg.store != storeSQLite {
		return config{}, fmt.Errorf("unknown store %q: must be %q or %q", cfg.store, storeJSON, storeSQLite)
	}
	cfg.logFile = first(flags.logFile, env.logFile, file.LogFile, filepath.Join(cfg.dataDir, logFileName))

	level, err := logging.ParseLevel(first(flags.logLevel, env.logLevel, file.LogLevel))
	if err != nil {
		return config{}, err
	}
	cfg.logLevel = level
	return cfg, nil
}

// first returns the first non-empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
