// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/GermanBionicSystems/epaper/cogepd"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// Width and Height are the emulated panel size in pixels.
	Width, Height int
	// Scale is the side of the pixel square shown by one terminal cell.
	// Defaults to 1.
	Scale   int
	Palette *ansi256.Palette
	// W defaults to the standard output. ASCII is forced when W is nil and
	// the standard output is not a terminal.
	W     io.Writer
	ASCII bool

	_ struct{}
}

// Dev is a panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	scale   int
	ascii   bool
	palette ansi256.Palette

	img *image.Gray
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.W,
		scale:   opts.Scale,
		ascii:   opts.ASCII,
		palette: *p,
		img:     image.NewGray(image.Rect(0, 0, opts.Width, opts.Height)),
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			d.ascii = true
		}
	}
	if d.scale < 1 {
		d.scale = 1
	}
	draw.Draw(d.img, d.img.Bounds(), image.White, image.Point{}, draw.Src)
	return d
}

// NewPanel returns a Dev emulating a panel of size s.
func NewPanel(s cogepd.Size, opts *Opts) *Dev {
	o := *opts
	o.Width, o.Height = s.Width(), s.Height()
	return New(&o)
}

func (d *Dev) String() string {
	return fmt.Sprintf("TermView{%dx%d}", d.img.Rect.Dx(), d.img.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the prompt is not corrupted.
func (d *Dev) Halt() error {
	if d.ascii {
		return nil
	}
	_, err := io.WriteString(d.w, "\033[0m")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.GrayModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.img, r, src, sp, draw.Src)
	return d.refresh()
}

// WriteFrame shows a packed cogepd frame of size s.
func (d *Dev) WriteFrame(s cogepd.Size, frame []byte) error {
	if len(frame) != s.FrameLen() {
		return fmt.Errorf("termview: frame is %d bytes, want %d for %s", len(frame), s.FrameLen(), s)
	}
	return d.Draw(s.Bounds(), cogepd.FrameImage(s, frame), image.Point{})
}

// cell returns the mean grey of the scale x scale square at (x, y).
func (d *Dev) cell(x, y int) uint8 {
	r := image.Rect(x, y, x+d.scale, y+d.scale).Intersect(d.img.Rect)
	sum, n := 0, 0
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			sum += int(d.img.GrayAt(px, py).Y)
			n++
		}
	}
	if n == 0 {
		return 0xFF
	}
	return uint8(sum / n)
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	b := d.img.Rect
	for y := b.Min.Y; y < b.Max.Y; y += d.scale {
		if !d.ascii {
			_, _ = d.buf.WriteString("\033[0m")
		}
		for x := b.Min.X; x < b.Max.X; x += d.scale {
			g := d.cell(x, y)
			if d.ascii {
				_ = d.buf.WriteByte(asciiShade(g))
				continue
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{R: g, G: g, B: g, A: 0xFF}))
		}
		if !d.ascii {
			_, _ = d.buf.WriteString("\033[0m")
		}
		_ = d.buf.WriteByte('\n')
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// asciiShade maps dark to dense glyphs.
func asciiShade(g uint8) byte {
	const ramp = "#%+. "
	return ramp[int(g)*len(ramp)/256]
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
