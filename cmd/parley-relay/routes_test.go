package main

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/parley/anthropic"
	"github.com/fwojciec/parley/gemini"
	"github.com/fwojciec/parley/langchain"
	"github.com/fwojciec/parley/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestResolveAddr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ":3000", resolveAddr("", "", toml.Relay{}))
	assert.Equal(t, ":8080", resolveAddr("", "", toml.Relay{Addr: ":8080"}))
	assert.Equal(t, ":9090", resolveAddr("", ":9090", toml.Relay{Addr: ":8080"}))
	assert.Equal(t, "127.0.0.1:1", resolveAddr("127.0.0.1:1", ":9090", toml.Relay{Addr: ":8080"}))
}

func TestResolveFrameInterval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		flag    string
		file    string
		want    time.Duration
		wantErr string
	}{
		{name: "default", want: 10 * time.Millisecond},
		{name: "file", file: "25ms", want: 25 * time.Millisecond},
		{name: "flag beats file", flag: "0", file: "25ms", want: 0},
		{name: "invalid", flag: "fast", wantErr: "frame interval"},
		{name: "negative", file: "-1s", wantErr: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolveFrameInterval(tt.flag, toml.Relay{FrameInterval: tt.file})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildGenerators_DefaultRoute(t *testing.T) {
	t.Parallel()
	models, err := buildGenerators(context.Background(), nil, envOf(map[string]string{"TOGETHER_KEY": "tk"}))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.IsType(t, &langchain.Generator{}, models["deepseek-v3"])
}

func TestBuildGenerators_DefaultRouteNeedsKey(t *testing.T) {
	t.Parallel()
	_, err := buildGenerators(context.Background(), nil, envOf(nil))
	assert.ErrorContains(t, err, "TOGETHER_KEY not set")
}

func TestBuildGenerators_Providers(t *testing.T) {
	t.Parallel()
	routes := []toml.Route{
		{Name: "claude", Provider: "anthropic", Model: "claude-sonnet-4-5"},
		{Name: "flash", Provider: "gemini"},
		{Name: "local", Provider: "openai", BaseURL: "http://localhost:11434/v1", Model: "llama3", APIKeyEnv: "LOCAL_KEY"},
	}
	env := envOf(map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant",
		"GEMINI_API_KEY":    "gk",
		"LOCAL_KEY":         "unused",
	})

	models, err := buildGenerators(context.Background(), routes, env)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.IsType(t, &anthropic.Generator{}, models["claude"])
	assert.IsType(t, &gemini.Generator{}, models["flash"])
	assert.IsType(t, &langchain.Generator{}, models["local"])
}

func TestBuildGenerators_Errors(t *testing.T) {
	t.Parallel()
	env := envOf(map[string]string{"OPENAI_API_KEY": "k"})
	tests := []struct {
		name    string
		routes  []toml.Route
		wantErr string
	}{
		{name: "unknown provider", routes: []toml.Route{{Name: "x", Provider: "bedrock"}}, wantErr: `unknown provider "bedrock"`},
		{name: "missing name", routes: []toml.Route{{Provider: "openai"}}, wantErr: "has no name"},
		{name: "duplicate", routes: []toml.Route{{Name: "a", Provider: "openai"}, {Name: "a", Provider: "openai"}}, wantErr: "declared twice"},
		{name: "missing key", routes: []toml.Route{{Name: "c", Provider: "anthropic"}}, wantErr: "ANTHROPIC_API_KEY not set"},
		{name: "custom key missing", routes: []toml.Route{{Name: "c", Provider: "openai", APIKeyEnv: "MY_KEY"}}, wantErr: "MY_KEY not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := buildGenerators(context.Background(), tt.routes, env)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
