package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// userd config.toml key mapping.
type fileConfig struct {
	Addr string `toml:"addr"`
	Path string `toml:"path"`
}

type serverConfig struct {
	Addr string
	Path string
}

func defaultConfig() serverConfig {
	return serverConfig{Addr: "localhost:8787", Path: "/myapi"}
}

// loadConfig reads a TOML config file over the defaults. A missing key
// keeps its default.
func loadConfig(path string) (serverConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serverConfig{}, fmt.Errorf("load config: %w", err)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("path") {
		cfg.Path = strings.TrimSpace(raw.Path)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return serverConfig{}, fmt.Errorf("load config: path %q must start with /", cfg.Path)
	}
	return cfg, nil
}
