package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"synaptrace/internal/model"
	"synaptrace/internal/tensor"
)

// Profile holds durable connection settings so invocations against the same
// database do not need to repeat store flags.
type Profile struct {
	Store    string `toml:"store"`
	DBPath   string `toml:"db_path"`
	Workers  int    `toml:"workers"`
	LogLevel string `toml:"log_level"`
}

func loadProfile(path string) (Profile, error) {
	if path == "" {
		return Profile{}, nil
	}
	var profile Profile
	if _, err := toml.DecodeFile(path, &profile); err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// resolveProfile merges the profile with command-line flags. Explicitly set
// flags always win; unset flags fall back to the profile, then to the flag
// default.
func resolveProfile(profile Profile, fs *flag.FlagSet, flags storeFlags) Profile {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	resolved := Profile{
		Store:    *flags.storeKind,
		DBPath:   *flags.dbPath,
		Workers:  *flags.workers,
		LogLevel: *flags.logLevel,
	}
	if !set["store"] && profile.Store != "" {
		resolved.Store = profile.Store
	}
	if !set["db-path"] && profile.DBPath != "" {
		resolved.DBPath = profile.DBPath
	}
	if !set["workers"] && profile.Workers > 0 {
		resolved.Workers = profile.Workers
	}
	if !set["log-level"] && profile.LogLevel != "" {
		resolved.LogLevel = profile.LogLevel
	}
	return resolved
}

// loadChainSpec reads a chain description from a JSON or YAML file, picked by
// extension.
func loadChainSpec(path string) (model.ChainSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ChainSpec{}, fmt.Errorf("load chain: %w", err)
	}

	var spec model.ChainSpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &spec); err != nil {
			return model.ChainSpec{}, fmt.Errorf("parse chain %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return model.ChainSpec{}, fmt.Errorf("parse chain %s: %w", path, err)
		}
	default:
		return model.ChainSpec{}, fmt.Errorf("unsupported chain format %q (want .json, .yaml or .yml)", ext)
	}
	if len(spec.Stages) == 0 {
		return model.ChainSpec{}, fmt.Errorf("chain %s declares no stages", path)
	}
	return spec, nil
}

// parseShape turns "6" or "2x3" into a tensor shape.
func parseShape(arg string) (tensor.Shape, error) {
	parts := strings.Split(arg, "x")
	shape := make(tensor.Shape, 0, len(parts))
	for _, part := range parts {
		dim, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("shape %q: %w", arg, err)
		}
		shape = append(shape, dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("shape %q: %w", arg, err)
	}
	return shape, nil
}
