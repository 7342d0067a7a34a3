// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the hashlife.yaml configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianLife/services/life/adapter"
	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/rule"
	"github.com/AleutianAI/AleutianLife/services/life/telemetry"
)

// CurrentConfigVersion is written to new config files.
const CurrentConfigVersion = "1"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type HashlifeConfig struct {
	Meta MetaConfig `yaml:"meta"`

	// Rule in B/S notation, e.g. "B3/S23".
	Rule string `yaml:"rule" validate:"required,liferule"`

	Engine    EngineConfig     `yaml:"engine"`
	Adapter   AdapterConfig    `yaml:"adapter"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type EngineConfig struct {
	// Brute-force progress interval; -1 disables.
	ProgressEvery int `yaml:"progress_every" validate:"gte=-1"`
}

type AdapterConfig struct {
	Inline        bool    `yaml:"inline"`
	ProgressEvery int     `yaml:"progress_every" validate:"gte=0"`
	ProgressRate  float64 `yaml:"progress_rate" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto text json"`
}

// DefaultConfig returns the configuration written by "hashlife config init".
func DefaultConfig() HashlifeConfig {
	return HashlifeConfig{
		Meta:    MetaConfig{Version: CurrentConfigVersion},
		Rule:    rule.Conway.String(),
		Engine:  EngineConfig{ProgressEvery: engine.DefaultProgressEvery},
		Adapter: AdapterConfig{ProgressEvery: adapter.DefaultProgressEvery},
		Logging: LoggingConfig{
			Level:  "info",
			Format: telemetry.FormatAuto,
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("liferule", validateRule)
}

func validateRule(fl validator.FieldLevel) bool {
	r, err := rule.Parse(fl.Field().String())
	return err == nil && r.Validate() == nil
}

// Validate checks field constraints and the rule string.
func (c HashlifeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParsedRule returns the configured rule.
func (c HashlifeConfig) ParsedRule() (rule.Rule, error) {
	r, err := rule.Parse(c.Rule)
	if err != nil {
		return rule.Rule{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := r.Validate(); err != nil {
		return rule.Rule{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return r, nil
}

// EngineOptions converts the config for engine.New. The config must be
// valid.
func (c HashlifeConfig) EngineOptions(logger *slog.Logger) engine.Config {
	r, _ := c.ParsedRule()
	return engine.Config{
		Rule:          r,
		ProgressEvery: c.Engine.ProgressEvery,
		Logger:        logger,
	}
}

// AdapterOptions converts the config for adapter.New. The config must be
// valid.
func (c HashlifeConfig) AdapterOptions(logger *slog.Logger) adapter.Config {
	return adapter.Config{
		Inline:        c.Adapter.Inline,
		ProgressEvery: c.Adapter.ProgressEvery,
		ProgressRate:  c.Adapter.ProgressRate,
		Engine:        c.EngineOptions(logger),
		Logger:        logger,
	}
}
