// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the YAML configuration of the cogepd tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/GermanBionicSystems/epaper/cogepd"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Timing modes.
const (
	TimingIterations  = "iterations"
	TimingBudget      = "budget"
	TimingTemperature = "temperature"
)

// PinsConfig names the GPIO lines as known to periph's gpioreg.
type PinsConfig struct {
	ChipSelect string `yaml:"chip_select"`
	Reset      string `yaml:"reset"`
	Busy       string `yaml:"busy"`
	PanelOn    string `yaml:"panel_on"`
	Discharge  string `yaml:"discharge"`
	// Border is only used by the 2.71" panel.
	Border string `yaml:"border"`
}

// TimingConfig selects how long every waveform stage runs.
type TimingConfig struct {
	// Mode is one of iterations, budget or temperature.
	Mode       string        `yaml:"mode"`
	Iterations int           `yaml:"iterations,omitempty"`
	Budget     time.Duration `yaml:"budget,omitempty"`
	// Celsius is the ambient temperature used when no sensor is configured.
	Celsius int `yaml:"celsius,omitempty"`
}

// SensorConfig describes a TMP102 temperature sensor.
type SensorConfig struct {
	// Bus is the I²C bus name, empty for the first one.
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

// Config is the top-level tool configuration.
type Config struct {
	// Size is the panel diagonal: 1.44, 2.00 or 2.71.
	Size string `yaml:"size"`
	// SPI is the SPI port name, empty for the first one.
	SPI     string     `yaml:"spi"`
	SPIMode int        `yaml:"spi_mode"`
	Pins    PinsConfig `yaml:"pins"`

	Timing TimingConfig  `yaml:"timing"`
	Sensor *SensorConfig `yaml:"sensor,omitempty"`

	// Schedule is a standard 5 field cron spec; empty runs once.
	Schedule string `yaml:"schedule,omitempty"`

	Image    string  `yaml:"image,omitempty"`
	Text     string  `yaml:"text,omitempty"`
	Font     string  `yaml:"font,omitempty"`
	FontSize float64 `yaml:"font_size"`
	Partial  bool    `yaml:"partial"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration of a 2.00" panel on the Raspberry
// Pi header.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.Size == "" {
		c.Size = "2.00"
	}
	if c.Pins.ChipSelect == "" {
		c.Pins.ChipSelect = "GPIO8"
	}
	if c.Pins.Reset == "" {
		c.Pins.Reset = "GPIO25"
	}
	if c.Pins.Busy == "" {
		c.Pins.Busy = "GPIO24"
	}
	if c.Pins.PanelOn == "" {
		c.Pins.PanelOn = "GPIO23"
	}
	if c.Pins.Discharge == "" {
		c.Pins.Discharge = "GPIO22"
	}
	if c.Pins.Border == "" {
		c.Pins.Border = "GPIO27"
	}
	if c.Timing.Mode == "" {
		c.Timing.Mode = TimingTemperature
	}
	if c.Timing.Mode == TimingTemperature && c.Timing.Celsius == 0 {
		c.Timing.Celsius = 25
	}
	if c.Sensor != nil && c.Sensor.Address == 0 {
		c.Sensor.Address = 0x48
	}
	if c.FontSize <= 0 {
		c.FontSize = 20
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first setting the tool cannot use.
func (c *Config) Validate() error {
	if _, err := cogepd.ParseSize(c.Size); err != nil {
		return err
	}
	if c.SPIMode < 0 || c.SPIMode > 3 {
		return fmt.Errorf("config: spi_mode %d out of range", c.SPIMode)
	}
	if _, err := c.Timing.Resolve(); err != nil {
		return err
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("config: schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// PanelSize returns the configured panel size.
func (c *Config) PanelSize() (cogepd.Size, error) {
	return cogepd.ParseSize(c.Size)
}

// Resolve returns the driver timing. Temperature mode uses Celsius.
func (t TimingConfig) Resolve() (cogepd.Timing, error) {
	switch t.Mode {
	case TimingIterations:
		return cogepd.Iterations(t.Iterations)
	case TimingBudget:
		return cogepd.Budget(t.Budget)
	case TimingTemperature:
		return cogepd.ForTemperature(t.Celsius), nil
	}
	return cogepd.Timing{}, fmt.Errorf("config: unknown timing mode %q", t.Mode)
}

// Load loads configuration from the given YAML path. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Write to a temp file in the same directory then rename.
	tmp, err := os.CreateTemp(dir, ".cogepd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
