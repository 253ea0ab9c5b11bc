// Package toml loads the optional configuration file shared by the chat
// client and the relay server.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultPath returns ~/.parley/config.toml, or a relative path when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".parley", "config.toml")
	}
	return filepath.Join(home, ".parley", "config.toml")
}

// File is the contents of a configuration file. Zero values mean "not set"
// so that flags, environment variables and defaults can fill them in.
type File struct {
	RelayURL string `toml:"relay_url"`
	Model    string `toml:"model"`
	Store    string `toml:"store"` // "json" or "sqlite"
	DataDir  string `toml:"data_dir"`
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
	Relay    Relay  `toml:"relay"`
}

// Relay configures cmd/parley-relay.
type Relay struct {
	Addr          string  `toml:"addr"`
	FrameInterval string  `toml:"frame_interval"` // Go duration, e.g. "10ms"
	Routes        []Route `toml:"routes"`
}

// Route binds a route name served at /api/{name} to an upstream model.
type Route struct {
	Name     string `toml:"name"`
	Provider string `toml:"provider"` // "openai", "anthropic" or "gemini"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	// APIKeyEnv names the environment variable holding the key, so that
	// secrets stay out of the file.
	APIKeyEnv string `toml:"api_key_env"`
}

// Load reads the file at path. A missing file yields a zero File. Unknown
// keys are an error so that typos do not go unnoticed.
func Load(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("toml: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("toml: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return f, nil
}
