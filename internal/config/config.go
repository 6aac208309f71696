// Package config loads host configuration for the xorlang CLI: where the
// standard library lives and where the REPL keeps its history.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "xorlang.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "xorlang.yml"

// Config holds the host-side settings. Everything is optional; zero values
// fall back to sensible defaults applied in ApplyDefaults.
type Config struct {
	StdlibPath  string `koanf:"stdlib_path"`
	HistoryFile string `koanf:"history_file"`
}

// ApplyDefaults fills unset fields. The stdlib default is a stdlib/
// directory next to the executable, falling back to the working directory;
// missing directories are fine, the interpreter skips preloading then.
func (c *Config) ApplyDefaults() {
	if c.StdlibPath == "" {
		if exe, err := os.Executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(exe), "stdlib")
			if dirExists(candidate) {
				c.StdlibPath = candidate
			}
		}
	}
	if c.StdlibPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			candidate := filepath.Join(cwd, "stdlib")
			if dirExists(candidate) {
				c.StdlibPath = candidate
			}
		}
	}
	if c.HistoryFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.HistoryFile = filepath.Join(home, ".xorlang_history")
		}
	}
}

// Load builds the configuration: config file (if present in the given
// directory or any parent), then XORLANG_ environment variables on top.
// A missing config file is not an error.
func Load(startDir string) (*Config, error) {
	k := koanf.New(".")

	if root := FindProjectRoot(startDir); root != "" {
		path := findConfigFile(root)
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Transform: XORLANG_STDLIB_PATH -> stdlib_path
	if err := k.Load(env.Provider("XORLANG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "XORLANG_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing xorlang.yaml or xorlang.yml. Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
