// Command parley-relay serves the chat streaming API that parley talks to.
// Each configured route, POST /api/{name}, forwards the conversation to an
// upstream model and streams its reply as server-sent events.
//
// Usage:
//
//	TOGETHER_KEY=... parley-relay [flags]
//
// Flags:
//
//	-config string          Path to the config file (default: ~/.parley/config.toml)
//	-addr string            Listen address (default: :3000, env PARLEY_RELAY_ADDR)
//	-frame-interval string  Minimum spacing between frames (default: 10ms)
//	-log-level string       debug, info, warn or error (default: info)
//	-log-file string        Also write JSON logs to this file
//
// Without [[relay.routes]] in the config file, the relay serves the
// deepseek-v3 route through Together AI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwojciec/parley/logging"
	"github.com/fwojciec/parley/relay"
	"github.com/fwojciec/parley/toml"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parley-relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    = flag.String("config", "", "Path to the config file (default: ~/.parley/config.toml)")
		addrFlag      = flag.String("addr", "", "Listen address")
		frameInterval = flag.String("frame-interval", "", "Minimum spacing between frames, e.g. 10ms")
		logLevel      = flag.String("log-level", "", "debug, info, warn or error")
		logFile       = flag.String("log-file", "", "Also write JSON logs to this file")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := *configPath
	if path == "" {
		path = toml.DefaultPath()
	}
	file, err := toml.Load(path)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(first(*logLevel, file.LogLevel))
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.Setup(os.Stderr, *logFile, level)
	if err != nil {
		return err
	}
	defer closeLog()

	interval, err := resolveFrameInterval(*frameInterval, file.Relay)
	if err != nil {
		return err
	}
	models, err := buildGenerators(ctx, file.Relay.Routes, os.Getenv)
	if err != nil {
		return err
	}

	addr := resolveAddr(*addrFlag, os.Getenv("PARLEY_RELAY_ADDR"), file.Relay)
	srv := &http.Server{
		Addr:              addr,
		Handler:           relay.NewHandler(models, relay.WithLogger(logger), relay.WithFrameInterval(interval)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "routes", len(models), "frame_interval", interval)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
