// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

// Pins lists the control lines of the panel.
type Pins struct {
	ChipSelect gpio.PinOut
	Reset      gpio.PinOut
	PanelOn    gpio.PinOut
	Discharge  gpio.PinOut
	// Border is the border control line, required for EPD2in71 only.
	Border gpio.PinOut
	Busy   gpio.PinIn
}

// Opts is the display configuration.
type Opts struct {
	Size Size
	Pins Pins
	// Timing defaults to DefaultTiming.
	Timing Timing
	// Clock defaults to SystemClock.
	Clock Clock
	// Logger is optional.
	Logger Logger
}

// Dev is a handle to a panel.
//
// Dev is not safe for concurrent use; calls must be serialized by the
// caller. Every update blocks until the panel is powered down again.
type Dev struct {
	t     Transport
	pins  Pins
	size  Size
	clock Clock
	log   Logger

	timing   Timing
	previous []byte
	fast     bool
	state    state
}

// New returns a handle to a panel connected through t. It validates the
// configuration without touching the transport or the pins.
func New(t Transport, opts *Opts) (*Dev, error) {
	if t == nil || opts == nil {
		return nil, fmt.Errorf("%w: transport and options are required", ErrInvalidArgument)
	}
	if !opts.Size.valid() {
		return nil, fmt.Errorf("%w: unknown panel size %s", ErrInvalidArgument, opts.Size)
	}
	if err := opts.Pins.validate(opts.Size); err != nil {
		return nil, err
	}
	d := &Dev{
		t:      t,
		pins:   opts.Pins,
		size:   opts.Size,
		clock:  opts.Clock,
		log:    opts.Logger,
		timing: opts.Timing,
	}
	if d.clock == nil {
		d.clock = SystemClock
	}
	if d.log == nil {
		d.log = nopLogger{}
	}
	if d.timing == (Timing{}) {
		d.timing = DefaultTiming
	}
	if !d.size.hasBorderPin() {
		d.pins.Border = nil
	}
	return d, nil
}

// NewRPi returns a handle to a panel wired to the Raspberry Pi header:
//
//	ChipSelect P1_24, Reset P1_22, Busy P1_18,
//	PanelOn P1_16, Discharge P1_15, Border P1_13.
func NewRPi(p spi.Port, size Size) (*Dev, error) {
	return New(NewSPI(p, spi.Mode0), &Opts{
		Size: size,
		Pins: Pins{
			ChipSelect: rpi.P1_24,
			Reset:      rpi.P1_22,
			Busy:       rpi.P1_18,
			PanelOn:    rpi.P1_16,
			Discharge:  rpi.P1_15,
			Border:     rpi.P1_13,
		},
	})
}

func missing(p pin.Pin) bool {
	return p == nil || p.Name() == gpio.INVALID.Name()
}

func (p *Pins) validate(size Size) error {
	for _, c := range []struct {
		name string
		pin  pin.Pin
	}{
		{"ChipSelect", p.ChipSelect},
		{"Reset", p.Reset},
		{"Busy", p.Busy},
		{"PanelOn", p.PanelOn},
		{"Discharge", p.Discharge},
	} {
		if missing(c.pin) {
			return &PinConfigError{Pin: c.name}
		}
	}
	if size.hasBorderPin() && missing(p.Border) {
		return &PinConfigError{Pin: "Border"}
	}
	return nil
}

func (d *Dev) pin(p pinID) gpio.PinOut {
	switch p {
	case pinChipSelect:
		return d.pins.ChipSelect
	case pinReset:
		return d.pins.Reset
	case pinPanelOn:
		return d.pins.PanelOn
	case pinDischarge:
		return d.pins.Discharge
	case pinBorder:
		return d.pins.Border
	}
	return nil
}

// Size returns the panel size.
func (d *Dev) Size() Size {
	return d.size
}

// Timing returns the current timing.
func (d *Dev) Timing() Timing {
	return d.timing
}

// SetTiming replaces the timing used by the next updates.
func (d *Dev) SetTiming(t Timing) {
	d.timing = t
}

// SetFrameRepeats makes every stage run exactly n sweeps. n must be
// positive.
func (d *Dev) SetFrameRepeats(n int) error {
	t, err := Iterations(n)
	if err != nil {
		return err
	}
	d.timing = t
	return nil
}

// SetFrameTime makes every stage repeat sweeps for at least budget.
func (d *Dev) SetFrameTime(budget time.Duration) error {
	t, err := Budget(budget)
	if err != nil {
		return err
	}
	d.timing = t
	return nil
}

// SetFrameTimeByTemperature derives the stage duration from the ambient
// temperature in degrees Celsius.
func (d *Dev) SetFrameTimeByTemperature(celsius int) {
	d.timing = ForTemperature(celsius)
}

// Previous returns a copy of the frame shown by the last successful update,
// or nil.
func (d *Dev) Previous() []byte {
	if d.previous == nil {
		return nil
	}
	return append([]byte(nil), d.previous...)
}

// SetPrevious declares the frame currently shown on the panel, for instance
// after a restart.
func (d *Dev) SetPrevious(frame []byte) error {
	if err := d.checkFrame("previous", frame); err != nil {
		return err
	}
	d.previous = append([]byte(nil), frame...)
	return nil
}

func (d *Dev) checkFrame(name string, frame []byte) error {
	if frame == nil {
		return fmt.Errorf("%w: %s frame is missing", ErrInvalidArgument, name)
	}
	if len(frame) != d.size.FrameLen() {
		return fmt.Errorf("%w: %s frame is %d bytes, want %d", ErrInvalidArgument, name, len(frame), d.size.FrameLen())
	}
	return nil
}

// FullUpdate replaces the image with next using the four stage waveform. The
// stored previous frame is used unless prev is given; with neither, the panel
// is assumed white. On success next becomes the stored previous frame.
func (d *Dev) FullUpdate(next, prev []byte) error {
	if prev == nil && d.previous == nil {
		prev = NewFrame(d.size)
	}
	return d.update(next, prev, 0, d.size.Height(), func(r *renderer, prev []byte) error {
		return r.fullUpdate(prev, next, d.timing)
	})
}

// PartialUpdate changes the image to next with a single XOR-delta pass. It
// is faster than FullUpdate but leaves ghosting when used repeatedly.
func (d *Dev) PartialUpdate(next, prev []byte) error {
	return d.UpdateLines(next, prev, 0, d.size.Height())
}

// UpdateLines is PartialUpdate restricted to rows [from, to). Rows outside
// the panel are ignored. On success the stored previous frame becomes prev,
// or the stored frame when prev is nil, with rows [from, to) taken from next.
func (d *Dev) UpdateLines(next, prev []byte, from, to int) error {
	if from < 0 {
		from = 0
	}
	if to > d.size.Height() {
		to = d.size.Height()
	}
	if from >= to {
		return fmt.Errorf("%w: empty row range [%d, %d)", ErrInvalidArgument, from, to)
	}
	return d.update(next, prev, from, to, func(r *renderer, prev []byte) error {
		return r.partialUpdate(prev, next, from, to, d.timing)
	})
}

// update powers the COG, runs draw and stores rows [from, to) of next.
func (d *Dev) update(next, prev []byte, from, to int, draw func(r *renderer, prev []byte) error) error {
	if prev == nil {
		prev = d.previous
	}
	if err := d.checkFrame("new", next); err != nil {
		return err
	}
	if err := d.checkFrame("previous", prev); err != nil {
		return err
	}
	if !d.timing.valid() {
		return fmt.Errorf("%w: timing is unset", ErrInternal)
	}

	eh := &errorHandler{d: d}
	seq := d.sequencer(eh)
	defer func() { d.state = seq.state }()
	if !d.fast {
		if err := seq.powerOn(); err != nil {
			return err
		}
	}
	r := d.renderer(eh)
	err := draw(r, prev)
	if err == nil {
		r.finish()
		err = eh.err()
	}
	if err != nil {
		// Any failure leaves the COG off, including in fast mode.
		seq.powerOff()
		d.fast = false
		return err
	}
	if !d.fast {
		seq.powerOff()
		if err := eh.err(); err != nil {
			return err
		}
	}

	stored := make([]byte, d.size.FrameLen())
	copy(stored, prev)
	bpl := d.size.BytesPerLine()
	copy(stored[from*bpl:to*bpl], next[from*bpl:to*bpl])
	d.previous = stored
	return nil
}

func (d *Dev) sequencer(c controller) *sequencer {
	return &sequencer{ctrl: c, size: d.size, log: d.log, state: d.state}
}

func (d *Dev) renderer(c controller) *renderer {
	return &renderer{ctrl: c, size: d.size, clock: d.clock, log: d.log}
}

// EnableFastMode powers the COG up and keeps it powered between updates,
// which then skip power sequencing. It is a no-op when already enabled.
func (d *Dev) EnableFastMode() error {
	if d.fast {
		return nil
	}
	eh := &errorHandler{d: d}
	seq := d.sequencer(eh)
	defer func() { d.state = seq.state }()
	if err := seq.powerOn(); err != nil {
		return err
	}
	d.fast = true
	return nil
}

// DisableFastMode redraws the stored frame to remove ghosting and powers the
// COG down. It is a no-op when fast mode is not enabled.
func (d *Dev) DisableFastMode() error {
	if !d.fast {
		return nil
	}
	eh := &errorHandler{d: d}
	seq := d.sequencer(eh)
	defer func() { d.state = seq.state }()
	r := d.renderer(eh)
	if d.previous != nil {
		r.drawFrame(d.previous, stageNormal, antiGhostSweeps)
	}
	r.finish()
	seq.powerOff()
	d.fast = false
	return eh.err()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.size.Bounds()
}

// Draw implements display.Drawer. The area outside dstRect keeps the stored
// frame, or white when nothing was drawn yet.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	next, prev := d.compose(dstRect, src, sp)
	return d.FullUpdate(next, prev)
}

// DrawPartial is Draw using a partial update.
func (d *Dev) DrawPartial(dstRect image.Rectangle, src image.Image, sp image.Point) error {
	next, prev := d.compose(dstRect, src, sp)
	return d.PartialUpdate(next, prev)
}

func (d *Dev) compose(dstRect image.Rectangle, src image.Image, sp image.Point) (next, prev []byte) {
	prev = d.previous
	if prev == nil {
		prev = make([]byte, d.size.FrameLen())
	}
	canvas := unpackFrame(d.size, prev)
	drawDithered(canvas, dstRect, src, sp)
	return packFrame(d.size, canvas), prev
}

// Halt implements conn.Resource. It leaves fast mode so the COG is powered
// down; the image stays on the panel.
func (d *Dev) Halt() error {
	return d.DisableFastMode()
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("cogepd.Dev{%v, %s, Width: %d, Height: %d}", d.t, d.size, d.size.Width(), d.size.Height())
}

var _ display.Drawer = &Dev{}
