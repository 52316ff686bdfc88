// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"fmt"
	"image"
	"strings"
)

// Size identifies a panel variant.
type Size uint8

const (
	// EPD1in44 is the small 1.44" panel, 128x96.
	EPD1in44 Size = iota + 1
	// EPD2in00 is the medium 2.00" panel, 200x96.
	EPD2in00
	// EPD2in71 is the large 2.71" panel, 264x176. It needs a border control
	// pin.
	EPD2in71
)

type geometry struct {
	name          string
	width, height int
	// Channel select register contents from the COG datasheet.
	channelSelect [8]byte
}

var geometries = [...]geometry{
	EPD1in44: {
		name:          "1.44\"",
		width:         128,
		height:        96,
		channelSelect: [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x0F, 0xFF, 0x00},
	},
	EPD2in00: {
		name:          "2.00\"",
		width:         200,
		height:        96,
		channelSelect: [8]byte{0x00, 0x00, 0x00, 0x00, 0x01, 0xFF, 0xE0, 0x00},
	},
	EPD2in71: {
		name:          "2.71\"",
		width:         264,
		height:        176,
		channelSelect: [8]byte{0x00, 0x00, 0x00, 0x7F, 0xFF, 0xFE, 0x00, 0x00},
	},
}

// ParseSize returns the Size named by s. Accepted names are the diagonal
// ("1.44", "2.00", "2.71", optionally with a trailing `"` or "in") and
// "small", "medium", "large".
func ParseSize(s string) (Size, error) {
	switch strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "\""), "in") {
	case "1.44", "small":
		return EPD1in44, nil
	case "2.00", "2.0", "2", "medium":
		return EPD2in00, nil
	case "2.71", "large":
		return EPD2in71, nil
	}
	return 0, fmt.Errorf("%w: unknown panel size %q", ErrInvalidArgument, s)
}

func (s Size) valid() bool {
	return s >= EPD1in44 && s <= EPD2in71
}

func (s Size) geometry() geometry {
	if !s.valid() {
		return geometry{}
	}
	return geometries[s]
}

// Width returns the number of pixel columns.
func (s Size) Width() int {
	return s.geometry().width
}

// Height returns the number of pixel rows.
func (s Size) Height() int {
	return s.geometry().height
}

// BytesPerLine returns the length of one packed row.
func (s Size) BytesPerLine() int {
	return s.Width() / 8
}

// FrameLen returns the length of a packed frame.
func (s Size) FrameLen() int {
	return s.BytesPerLine() * s.Height()
}

// Bounds returns the panel rectangle.
func (s Size) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width(), s.Height())
}

func (s Size) String() string {
	if !s.valid() {
		return fmt.Sprintf("Size(%d)", uint8(s))
	}
	return s.geometry().name
}

func (s Size) channelSelect() []byte {
	cs := s.geometry().channelSelect
	return cs[:]
}

// scanLen is the number of scan bytes sent with every row, four rows per
// byte.
func (s Size) scanLen() int {
	return s.Height() / 4
}

// leadingBorder reports whether rows start with a border byte.
func (s Size) leadingBorder() bool {
	return s == EPD2in00 || s == EPD2in71
}

// trailingBorder reports whether rows end with a border byte.
func (s Size) trailingBorder() bool {
	return s == EPD1in44
}

// hasBorderPin reports whether the panel exposes a border control line.
func (s Size) hasBorderPin() bool {
	return s == EPD2in71
}
