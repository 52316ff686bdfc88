// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/epaper/cogepd"
	"github.com/GermanBionicSystems/epaper/internal/config"
)

// thermometer is satisfied by the tmp102 driver.
type thermometer interface {
	Sense(env *physic.Env) error
}

// timingFlags holds the timing command line overrides; zero means unset.
type timingFlags struct {
	iterations  int
	budget      time.Duration
	temperature *int
}

// resolveTiming picks the stage timing: command line first, then the
// sensor, then the configuration file. It returns a description of the
// source for logging.
func resolveTiming(f timingFlags, sensor thermometer, cfg config.TimingConfig) (cogepd.Timing, string, error) {
	switch {
	case f.iterations != 0:
		t, err := cogepd.Iterations(f.iterations)
		return t, "flag", err
	case f.budget != 0:
		t, err := cogepd.Budget(f.budget)
		return t, "flag", err
	case f.temperature != nil:
		return cogepd.ForTemperature(*f.temperature), "flag", nil
	}
	if sensor != nil {
		env := physic.Env{}
		if err := sensor.Sense(&env); err != nil {
			return cogepd.Timing{}, "", fmt.Errorf("temperature sensor: %w", err)
		}
		return cogepd.ForSensedTemperature(env.Temperature), fmt.Sprintf("sensor %s", env.Temperature), nil
	}
	t, err := cfg.Resolve()
	return t, "config", err
}
