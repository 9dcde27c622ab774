// Package config handles application configuration: the transport
// endpoint to serve or dial, serialization defaults, and logging level.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nekoproto/nekogo/internal/logging"
	"github.com/nekoproto/nekogo/internal/rpcerr"
)

var logger = logging.GetLogger("config")

// Settings is the application's consolidated configuration, loadable from a
// YAML file or constructed with New's defaults.
type Settings struct {
	Server ServerConfig `yaml:"server"`
	Serde  SerdeConfig  `yaml:"serde"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig describes the transport a Server listens on or a Client
// dials.
type ServerConfig struct {
	Network        string `yaml:"network"` // "tcp" or "udp"
	Address        string `yaml:"address"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// SerdeConfig holds JSON encoding defaults loaded from the config file. No
// package in this module reads them: jsonenc.Writer and jsonenc.DOMReader
// take their options from each caller directly.
type SerdeConfig struct {
	PrettyPrint bool `yaml:"pretty_print"`
	NoneToNull  bool `yaml:"none_to_null"`
}

// LogConfig controls the zerolog-backed logger's minimum level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// New returns Settings with sensible out-of-the-box defaults.
func New() *Settings {
	logger.Debug("creating new configuration settings with defaults")
	return &Settings{
		Server: ServerConfig{
			Network:        "tcp",
			Address:        ":4477",
			MaxMessageSize: 1024 * 1024,
		},
		Serde: SerdeConfig{
			PrettyPrint: false,
			NoneToNull:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and parses a YAML configuration file, starting from New's
// defaults so a partial file only overrides what it mentions.
func Load(path string) (*Settings, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, rpcerr.New(err, rpcerr.CategoryConfig, rpcerr.CodeInternalError, "read config file", map[string]interface{}{"path": expanded})
	}
	settings := New()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, rpcerr.New(err, rpcerr.CategoryConfig, rpcerr.CodeInternalError, "parse config file", map[string]interface{}{"path": expanded})
	}
	return settings, nil
}

// GetServerAddress returns the configured listen/dial address.
func (s *Settings) GetServerAddress() string {
	return s.Server.Address
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", rpcerr.New(err, rpcerr.CategoryConfig, rpcerr.CodeInternalError, "resolve home directory", map[string]interface{}{"input_path": path})
	}
	return filepath.Join(home, path[1:]), nil
}
