// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"tinygo.org/x/drivers"
)

// driversTransport adapts a TinyGo SPI bus.
type driversTransport struct {
	bus drivers.SPI
}

// NewDriversSPI returns a Transport over a TinyGo drivers.SPI bus. The bus
// must already be configured (mode 0, MSB first); Begin and End are no-ops.
func NewDriversSPI(bus drivers.SPI) Transport {
	return &driversTransport{bus: bus}
}

func (t *driversTransport) Begin() error { return nil }

func (t *driversTransport) Exchange(w byte) (byte, error) {
	return t.bus.Transfer(w)
}

func (t *driversTransport) End() error { return nil }

func (t *driversTransport) String() string { return "drivers.SPI" }
