package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/anthropic"
	"github.com/fwojciec/parley/gemini"
	"github.com/fwojciec/parley/langchain"
	"github.com/fwojciec/parley/relay"
	"github.com/fwojciec/parley/toml"
)

const (
	defaultAddr          = ":3000"
	defaultFrameInterval = 10 * time.Millisecond

	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerGemini    = "gemini"
)

// defaultRoutes serves the deepseek-v3 route through Together AI's
// OpenAI-compatible API when the config file declares no routes.
var defaultRoutes = []toml.Route{{
	Name:      relay.DefaultModel,
	Provider:  providerOpenAI,
	Model:     langchain.DefaultModel,
	BaseURL:   langchain.TogetherBaseURL,
	APIKeyEnv: "TOGETHER_KEY",
}}

// defaultKeyEnv names the key variable used when a route sets none.
var defaultKeyEnv = map[string]string{
	providerOpenAI:    "OPENAI_API_KEY",
	providerAnthropic: "ANTHROPIC_API_KEY",
	providerGemini:    "GEMINI_API_KEY",
}

// resolveAddr picks the listen address: flag, then env, then file.
func resolveAddr(flagAddr, envAddr string, file toml.Relay) string {
	for _, a := range []string{flagAddr, envAddr, file.Addr} {
		if a != "" {
			return a
		}
	}
	return defaultAddr
}

// resolveFrameInterval parses the configured frame spacing. Flag wins over
// the file; "0" disables pacing.
func resolveFrameInterval(flagValue string, file toml.Relay) (time.Duration, error) {
	v := flagValue
	if v == "" {
		v = file.FrameInterval
	}
	if v == "" {
		return defaultFrameInterval, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("frame interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("frame interval %s: must not be negative", d)
	}
	return d, nil
}

// buildGenerators constructs one Generator per route. getenv is os.Getenv
// in main(); keys never come from the file itself.
func buildGenerators(ctx context.Context, routes []toml.Route, getenv func(string) string) (map[string]parley.Generator, error) {
	if len(routes) == 0 {
		routes = defaultRoutes
	}
	models := make(map[string]parley.Generator, len(routes))
	for _, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("route with provider %q has no name", r.Provider)
		}
		if _, dup := models[r.Name]; dup {
			return nil, fmt.Errorf("route %q declared twice", r.Name)
		}
		fallbackEnv, known := defaultKeyEnv[r.Provider]
		if !known {
			return nil, fmt.Errorf("route %q: unknown provider %q: must be %q, %q or %q",
				r.Name, r.Provider, providerOpenAI, providerAnthropic, providerGemini)
		}
		keyEnv := first(r.APIKeyEnv, fallbackEnv)
		key := getenv(keyEnv)
		if key == "" {
			return nil, fmt.Errorf("route %q: %s not set", r.Name, keyEnv)
		}

		g, err := newGenerator(ctx, r, key)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Name, err)
		}
		models[r.Name] = g
	}
	return models, nil
}

// newGenerator constructs the Generator for a route whose provider is
// known.
func newGenerator(ctx context.Context, r toml.Route, key string) (parley.Generator, error) {
	switch r.Provider {
	case providerAnthropic:
		var opts []anthropic.Option
		if r.Model != "" {
			opts = append(opts, anthropic.WithModel(r.Model))
		}
		if r.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(r.BaseURL))
		}
		return anthropic.New(key, opts...), nil
	case providerGemini:
		var opts []gemini.Option
		if r.Model != "" {
			opts = append(opts, gemini.WithModel(r.Model))
		}
		g, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		g, err := langchain.NewOpenAI(key, r.BaseURL, r.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
