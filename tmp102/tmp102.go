// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tmp102

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the address with ADD0 tied to ground.
const DefaultAddress uint16 = 0x48

const (
	regTemperature   byte = 0
	regConfiguration byte = 1

	// Shutdown mode bit of the configuration register.
	configShutdown uint16 = 1 << 8

	resolution = 62_500 * physic.MicroKelvin
)

// Dev is a TMP102 sensor.
type Dev struct {
	mu sync.Mutex
	d  *i2c.Dev
}

// New returns a sensor on bus b at addr, taken out of shutdown mode. The
// conversion rate and alert settings are left as found.
func New(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	if err := d.setShutdown(false); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) setShutdown(on bool) error {
	r := make([]byte, 2)
	if err := d.d.Tx([]byte{regConfiguration}, r); err != nil {
		return fmt.Errorf("tmp102: read configuration: %w", err)
	}
	current := uint16(r[0])<<8 | uint16(r[1])
	next := current &^ configShutdown
	if on {
		next |= configShutdown
	}
	if next == current {
		return nil
	}
	if err := d.d.Tx([]byte{regConfiguration, byte(next >> 8), byte(next)}, nil); err != nil {
		return fmt.Errorf("tmp102: write configuration: %w", err)
	}
	return nil
}

// countToTemperature converts the 12 bit two's complement reading.
func countToTemperature(b []byte) physic.Temperature {
	count := int16(uint16(b[0])<<8|uint16(b[1])) >> 4
	return physic.ZeroCelsius + physic.Temperature(count)*resolution
}

// Sense implements physic.SenseEnv. Only Temperature is set.
func (d *Dev) Sense(env *physic.Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := make([]byte, 2)
	if err := d.d.Tx([]byte{regTemperature}, r); err != nil {
		return fmt.Errorf("tmp102: read temperature: %w", err)
	}
	env.Temperature = countToTemperature(r)
	return nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = resolution
}

// Halt puts the sensor in shutdown mode. The next New wakes it up.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setShutdown(true)
}

func (d *Dev) String() string {
	return fmt.Sprintf("tmp102{%s}", d.d)
}

var _ conn.Resource = &Dev{}
