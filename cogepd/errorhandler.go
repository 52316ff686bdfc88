// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler implements controller over the device transport and pins.
// It keeps the first error; afterwards calls are no-ops unless forced.
type errorHandler struct {
	d      *Dev
	e      error
	forced bool
}

func (eh *errorHandler) skip() bool {
	return eh.e != nil && !eh.forced
}

func (eh *errorHandler) record(err error) {
	if err != nil && eh.e == nil {
		eh.e = err
	}
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.skip() || p == nil {
		return
	}
	if err := p.Out(l); err != nil {
		eh.record(fmt.Errorf("cogepd: %s: %w", p, err))
	}
}

func (eh *errorHandler) exchange(w byte) byte {
	if eh.skip() {
		return 0
	}
	r, err := eh.d.t.Exchange(w)
	if err != nil {
		eh.record(fmt.Errorf("cogepd: exchange: %w", err))
	}
	return r
}

// pair sends a header and a value in one chip select window. The chip select
// line must idle high for at least 80ns before.
func (eh *errorHandler) pair(header, value byte) byte {
	eh.out(eh.d.pins.ChipSelect, gpio.Low)
	eh.exchange(header)
	r := eh.exchange(value)
	eh.out(eh.d.pins.ChipSelect, gpio.High)
	return r
}

func (eh *errorHandler) writeReg(idx, data byte) {
	eh.pair(headerIndex, idx)
	eh.pair(headerData, data)
}

func (eh *errorHandler) writeBlock(idx byte, data []byte) {
	eh.pair(headerIndex, idx)
	eh.out(eh.d.pins.ChipSelect, gpio.Low)
	eh.exchange(headerData)
	for _, b := range data {
		eh.exchange(b)
	}
	eh.out(eh.d.pins.ChipSelect, gpio.High)
}

func (eh *errorHandler) readReg(idx byte) byte {
	eh.pair(headerIndex, idx)
	return eh.pair(headerRead, 0x00)
}

func (eh *errorHandler) chipID() byte {
	return eh.pair(headerID, 0x00)
}

func (eh *errorHandler) setPin(p pinID, l gpio.Level) {
	eh.out(eh.d.pin(p), l)
}

func (eh *errorHandler) listenBusy() {
	if eh.skip() {
		return
	}
	if err := eh.d.pins.Busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		eh.record(fmt.Errorf("cogepd: %s: %w", eh.d.pins.Busy, err))
	}
}

func (eh *errorHandler) busy() bool {
	if eh.skip() {
		return false
	}
	return eh.d.pins.Busy.Read() == gpio.High
}

func (eh *errorHandler) sleep(d time.Duration) {
	eh.d.clock.Sleep(d)
}

func (eh *errorHandler) now() time.Time {
	return eh.d.clock.Now()
}

func (eh *errorHandler) begin() {
	if eh.skip() {
		return
	}
	eh.record(eh.d.t.Begin())
}

func (eh *errorHandler) end() {
	if eh.skip() {
		return
	}
	eh.record(eh.d.t.End())
}

func (eh *errorHandler) force() {
	eh.forced = true
}

func (eh *errorHandler) err() error {
	return eh.e
}

var _ controller = &errorHandler{}
