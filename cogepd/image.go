// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"image"
	"image/draw"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Frames are packed row by row, 8 pixels per byte, most significant bit
// first. A set bit is a black pixel.

// NewFrame returns an all white frame for s.
func NewFrame(s Size) []byte {
	return make([]byte, s.FrameLen())
}

// FrameFromImage converts img to a frame for s. Images of another size are
// fitted into the panel and centered on white. Colors are reduced to black
// and white with Floyd-Steinberg dithering.
func FrameFromImage(s Size, img image.Image) []byte {
	bounds := s.Bounds()
	if img.Bounds().Size() != bounds.Size() {
		fitted := imaging.Fit(img, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
		bg := imaging.New(bounds.Dx(), bounds.Dy(), image1bit.On)
		img = imaging.PasteCenter(bg, fitted)
	}
	canvas := image1bit.NewVerticalLSB(bounds)
	drawDithered(canvas, bounds, img, img.Bounds().Min)
	return packFrame(s, canvas)
}

// drawDithered draws the dithered area of src at sp onto r of dst.
func drawDithered(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point) {
	clipped := r.Intersect(dst.Bounds())
	if clipped.Empty() {
		return
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	r = clipped
	gray := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(gray, gray.Bounds(), src, sp, draw.Src)
	draw.Draw(dst, r, halfgone.FloydSteinbergDitherer{}.Apply(gray), image.Point{}, draw.Src)
}

// packFrame packs img, which covers the panel bounds.
func packFrame(s Size, img *image1bit.VerticalLSB) []byte {
	frame := NewFrame(s)
	bpl := s.BytesPerLine()
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if img.BitAt(x, y) == image1bit.Off {
				frame[y*bpl+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return frame
}

// unpackFrame is the inverse of packFrame.
func unpackFrame(s Size, frame []byte) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(s.Bounds())
	bpl := s.BytesPerLine()
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			black := frame[y*bpl+x/8]&(0x80>>uint(x%8)) != 0
			img.SetBit(x, y, image1bit.Bit(!black))
		}
	}
	return img
}

// FrameImage returns frame as an image, white pixels On.
func FrameImage(s Size, frame []byte) image.Image {
	return unpackFrame(s, frame)
}
