// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/.aleutian/hashlife.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".aleutian", "hashlife.yaml"), nil
}

// Load reads the config at path.
//
// Description:
//
//	Keys missing from the file keep their DefaultConfig values. An empty
//	path, or the default path when no file exists there yet, yields the
//	defaults. HASHLIFE_* environment variables are applied last, then the
//	result is validated.
//
// Outputs:
//   - HashlifeConfig: The effective configuration.
//   - error: Read, parse or ErrInvalidConfig errors.
func Load(path string) (HashlifeConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if cfg, err = Parse(data); err != nil {
				return HashlifeConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && isDefaultPath(path):
			// First run: nothing written yet.
		default:
			return HashlifeConfig{}, fmt.Errorf("failed to read the config file: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return HashlifeConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return HashlifeConfig{}, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig. It does not validate.
func Parse(data []byte) (HashlifeConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return HashlifeConfig{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg HashlifeConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides cfg from HASHLIFE_RULE, HASHLIFE_LOG_LEVEL,
// HASHLIFE_LOG_FORMAT and HASHLIFE_INLINE.
func ApplyEnv(cfg *HashlifeConfig) error {
	if v := os.Getenv("HASHLIFE_RULE"); v != "" {
		cfg.Rule = v
	}
	if v := os.Getenv("HASHLIFE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HASHLIFE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HASHLIFE_INLINE"); v != "" {
		inline, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: HASHLIFE_INLINE=%q", ErrInvalidConfig, v)
		}
		cfg.Adapter.Inline = inline
	}
	return nil
}

func isDefaultPath(path string) bool {
	def, err := DefaultPath()
	return err == nil && filepath.Clean(path) == def
}
