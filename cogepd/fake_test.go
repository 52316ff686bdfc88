// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"bytes"
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// event is one call seen by the fake hardware.
type event struct {
	kind  string // "out", "in", "tx", "sleep", "begin", "end"
	pin   string
	level gpio.Level
	data  []byte
	d     time.Duration
}

// fakeBus is a Transport and Clock recording every call. Bytes exchanged
// while chip select is low are grouped into transactions.
type fakeBus struct {
	events []event
	calls  int

	now     time.Time
	perByte time.Duration

	// Answers of the fake COG.
	chipID byte
	// panelOK is reported by the first status read.
	panelOK bool
	// dcReadyAfter is the number of failing DC/DC checks before success, or
	// -1 to never succeed.
	dcReadyAfter int

	// failAt makes the failAt-th exchange fail; 0 disables it.
	failAt    int
	exchanged int

	selected    bool
	cur         []byte
	lastIndex   byte
	statusReads int
}

var errBus = errors.New("bus fault")

func newFakeBus() *fakeBus {
	return &fakeBus{
		now:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		chipID:  chipIDG2,
		panelOK: true,
	}
}

func (b *fakeBus) Begin() error {
	b.calls++
	b.events = append(b.events, event{kind: "begin"})
	return nil
}

func (b *fakeBus) End() error {
	b.calls++
	b.events = append(b.events, event{kind: "end"})
	return nil
}

func (b *fakeBus) Exchange(w byte) (byte, error) {
	b.calls++
	b.exchanged++
	if b.exchanged == b.failAt {
		return 0, errBus
	}
	b.now = b.now.Add(b.perByte)
	var r byte
	if len(b.cur) == 1 {
		switch b.cur[0] {
		case headerID:
			r = b.chipID
			b.statusReads = 0
		case headerRead:
			r = b.read(b.lastIndex)
		}
	}
	b.cur = append(b.cur, w)
	return r, nil
}

func (b *fakeBus) read(idx byte) byte {
	if idx != regStatus {
		return 0
	}
	b.statusReads++
	if b.statusReads == 1 {
		if b.panelOK {
			return statusPanelOK
		}
		return 0
	}
	if b.dcReadyAfter >= 0 && b.statusReads-2 >= b.dcReadyAfter {
		return statusPanelOK | statusDCOK
	}
	return statusPanelOK
}

func (b *fakeBus) String() string {
	return "fakeBus"
}

func (b *fakeBus) Now() time.Time {
	return b.now
}

func (b *fakeBus) Sleep(d time.Duration) {
	b.calls++
	b.now = b.now.Add(d)
	b.events = append(b.events, event{kind: "sleep", d: d})
}

func (b *fakeBus) pinOut(name string, l gpio.Level) {
	b.calls++
	if name == "CS" {
		if l == gpio.Low {
			b.selected = true
			b.cur = nil
		} else if b.selected {
			b.selected = false
			tx := append([]byte(nil), b.cur...)
			b.events = append(b.events, event{kind: "tx", data: tx})
			if len(tx) == 2 && tx[0] == headerIndex {
				b.lastIndex = tx[1]
			}
			b.cur = nil
		}
		return
	}
	b.events = append(b.events, event{kind: "out", pin: name, level: l})
}

// txs returns the transactions.
func (b *fakeBus) txs() [][]byte {
	var out [][]byte
	for _, e := range b.events {
		if e.kind == "tx" {
			out = append(out, e.data)
		}
	}
	return out
}

// count returns the number of transactions equal to tx.
func (b *fakeBus) count(tx ...byte) int {
	n := 0
	for _, got := range b.txs() {
		if bytes.Equal(got, tx) {
			n++
		}
	}
	return n
}

// rows returns the payloads written to the line data register.
func (b *fakeBus) rows() [][]byte {
	var out [][]byte
	txs := b.txs()
	for i := 0; i+1 < len(txs); i++ {
		if bytes.Equal(txs[i], []byte{headerIndex, regLineData}) && len(txs[i+1]) > 0 && txs[i+1][0] == headerData {
			out = append(out, txs[i+1][1:])
		}
	}
	return out
}

// fakePin records writes on the bus and answers reads from a script.
type fakePin struct {
	gpiotest.Pin
	bus *fakeBus
	// highReads is the number of reads returning High before Low.
	highReads int
}

func (p *fakePin) Out(l gpio.Level) error {
	p.bus.pinOut(p.N, l)
	return p.Pin.Out(l)
}

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.bus.calls++
	p.bus.events = append(p.bus.events, event{kind: "in", pin: p.N})
	return nil
}

func (p *fakePin) Read() gpio.Level {
	p.bus.calls++
	if p.highReads > 0 {
		p.highReads--
		return gpio.High
	}
	return gpio.Low
}

// rig is a complete fake board.
type rig struct {
	bus                           *fakeBus
	cs, rst, on, dis, border, bsy *fakePin
}

func newRig() *rig {
	b := newFakeBus()
	mk := func(name string) *fakePin {
		return &fakePin{Pin: gpiotest.Pin{N: name}, bus: b}
	}
	return &rig{
		bus:    b,
		cs:     mk("CS"),
		rst:    mk("RST"),
		on:     mk("ON"),
		dis:    mk("DIS"),
		border: mk("BORDER"),
		bsy:    mk("BUSY"),
	}
}

func (r *rig) pins() Pins {
	return Pins{
		ChipSelect: r.cs,
		Reset:      r.rst,
		PanelOn:    r.on,
		Discharge:  r.dis,
		Border:     r.border,
		Busy:       r.bsy,
	}
}

func (r *rig) opts(s Size) *Opts {
	return &Opts{Size: s, Pins: r.pins(), Clock: r.bus}
}

// fakeController records register level calls.
type record struct {
	op    string // "write", "block", "read", "id", "pin", "sleep", ...
	idx   byte
	data  []byte
	pin   pinID
	level gpio.Level
	d     time.Duration
}

type fakeController struct {
	records []record

	id      byte
	status  []byte // answers of successive status reads
	busyFor int
	clock   time.Time
	failure error
}

func (c *fakeController) writeReg(idx, data byte) {
	c.records = append(c.records, record{op: "write", idx: idx, data: []byte{data}})
}

func (c *fakeController) writeBlock(idx byte, data []byte) {
	c.records = append(c.records, record{op: "block", idx: idx, data: append([]byte(nil), data...)})
}

func (c *fakeController) readReg(idx byte) byte {
	c.records = append(c.records, record{op: "read", idx: idx})
	if len(c.status) == 0 {
		return 0
	}
	v := c.status[0]
	c.status = c.status[1:]
	return v
}

func (c *fakeController) chipID() byte {
	c.records = append(c.records, record{op: "id"})
	return c.id
}

func (c *fakeController) setPin(p pinID, l gpio.Level) {
	c.records = append(c.records, record{op: "pin", pin: p, level: l})
}

func (c *fakeController) listenBusy() {
	c.records = append(c.records, record{op: "listen"})
}

func (c *fakeController) busy() bool {
	if c.busyFor > 0 {
		c.busyFor--
		return true
	}
	return false
}

func (c *fakeController) sleep(d time.Duration) {
	c.clock = c.clock.Add(d)
	c.records = append(c.records, record{op: "sleep", d: d})
}

func (c *fakeController) now() time.Time {
	return c.clock
}

func (c *fakeController) begin() {
	c.records = append(c.records, record{op: "begin"})
}

func (c *fakeController) end() {
	c.records = append(c.records, record{op: "end"})
}

func (c *fakeController) force() {}

func (c *fakeController) err() error {
	return c.failure
}
