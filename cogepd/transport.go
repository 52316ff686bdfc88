// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Transport is the synchronous byte channel to the COG.
//
// Chip select is not part of the transport; the driver toggles it through
// Pins.ChipSelect around every transaction.
type Transport interface {
	// Begin starts a session. It is called once per power-up, after the
	// busy line went low.
	Begin() error
	// Exchange clocks w out and returns the byte clocked in at the same time.
	Exchange(w byte) (byte, error)
	// End terminates the session. It is called during power-off.
	End() error
}

// Clock provides monotonic time and blocking delays. Tests replace it to
// simulate elapsed time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock. It is used when Opts.Clock is nil.
var SystemClock Clock = systemClock{}

// spiFrequency is conservative; the G2 COG accepts up to 20MHz.
const spiFrequency = 8 * physic.MegaHertz

// spiTransport exchanges bytes over a periph SPI port.
type spiTransport struct {
	p      spi.Port
	mode   spi.Mode
	c      conn.Conn
	active bool
	w, r   [1]byte
}

// NewSPI returns a Transport over p. Use spi.Mode0; a few hosts need
// spi.Mode1 to meet the COG's sampling edge.
//
// The port is connected on the first Begin and kept connected afterwards,
// since most periph ports can only be connected once.
func NewSPI(p spi.Port, mode spi.Mode) Transport {
	return &spiTransport{p: p, mode: mode}
}

func (t *spiTransport) Begin() error {
	if t.c == nil {
		c, err := t.p.Connect(spiFrequency, t.mode, 8)
		if err != nil {
			return fmt.Errorf("cogepd: connect SPI: %w", err)
		}
		t.c = c
	}
	t.active = true
	return nil
}

func (t *spiTransport) Exchange(w byte) (byte, error) {
	if !t.active {
		return 0, errors.New("cogepd: SPI session not started")
	}
	t.w[0] = w
	if err := t.c.Tx(t.w[:], t.r[:]); err != nil {
		return 0, err
	}
	return t.r[0], nil
}

func (t *spiTransport) End() error {
	t.active = false
	return nil
}

func (t *spiTransport) String() string {
	if t.c != nil {
		return t.c.String()
	}
	return t.p.String()
}
