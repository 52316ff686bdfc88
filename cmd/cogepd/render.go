// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Image formats accepted by -image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/epaper/cogepd"
)

// loadImage decodes a PNG, JPEG, GIF or BMP file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// loadFace returns the font face for text rendering. An empty path selects
// Go Regular and "basic" the fixed 7x13 bitmap font.
func loadFace(path string, size float64) (font.Face, error) {
	if path == "basic" {
		return basicfont.Face7x13, nil
	}
	ttf := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ttf = b
	}
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}

// renderText draws text centered on a white panel, wrapping long lines.
func renderText(s cogepd.Size, text string, face font.Face) image.Image {
	dc := gg.NewContext(s.Width(), s.Height())
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	dc.SetFontFace(face)
	const margin = 4
	w, h := float64(s.Width()), float64(s.Height())
	dc.DrawStringWrapped(text, w/2, h/2, 0.5, 0.5, w-2*margin, 1.2, gg.AlignCenter)
	return dc.Image()
}
