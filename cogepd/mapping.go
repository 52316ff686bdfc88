// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

// Two-bit waveform symbols understood by the COG for every pixel.
const (
	symbolNothing byte = 0
	symbolWhite   byte = 2
	symbolBlack   byte = 3
)

// stageMap holds the pair of 3-bit to 4-bit lookup tables used to turn a
// packed row into waveform symbols. Each table has 8 entries of 4 bits; only
// the entries at nibble offsets 0, 1, 4 and 5 are reachable because the input
// is masked with 0b101.
type stageMap struct {
	even uint32
	odd  uint32
}

// newStageMap builds the tables mapping white pixels to white and black
// pixels to black.
func newStageMap(white, black byte) stageMap {
	w, b := uint32(white), uint32(black)
	return stageMap{
		even: (w<<2|w)<<0 | (w<<2|b)<<4 | (b<<2|w)<<16 | (b<<2|b)<<20,
		odd:  (w<<2|w)<<0 | (w<<2|b)<<16 | (b<<2|w)<<4 | (b<<2|b)<<20,
	}
}

// Waveform stages of a full update, plus the all-nothing map used to clean
// the COG buffer.
var (
	stageCompensate = newStageMap(symbolBlack, symbolWhite)
	stageWhite      = newStageMap(symbolWhite, symbolNothing)
	stageInverse    = newStageMap(symbolBlack, symbolNothing)
	stageNormal     = newStageMap(symbolWhite, symbolBlack)
	stageNothing    = newStageMap(symbolNothing, symbolNothing)
)

// lookup returns the nibble of mapping selected by bits 0 and 2 of in.
func lookup(mapping uint32, in byte) byte {
	return byte(mapping>>((uint32(in)&0b101)<<2)) & 0x0F
}

// evenByte encodes the even pixels (bits 0, 2, 4, 6) of p.
func (m stageMap) evenByte(p byte) byte {
	return lookup(m.even, p>>4)<<4 | lookup(m.even, p)
}

// oddByte encodes the odd pixels (bits 1, 3, 5, 7) of p.
func (m stageMap) oddByte(p byte) byte {
	return lookup(m.odd, p>>5) | lookup(m.odd, p>>1)<<4
}

// deltaEven encodes the even pixels of a partial update.
func deltaEven(prev, next byte) byte {
	return ((prev^next)&0x55)<<1 | next&0x55
}

// deltaOdd encodes the odd pixels of a partial update. The result is
// rotated to the odd column order of the panel.
func deltaOdd(prev, next byte) byte {
	c := (prev^next)&0xAA | (next&0xAA)>>1
	c = (c&0x33)<<2 | (c>>2)&0x33
	return (c&0x0F)<<4 | (c>>4)&0x0F
}

// appendScan appends the scan bytes selecting row. A negative row selects
// nothing; it is used for the dummy line.
func appendScan(buf []byte, s Size, row int) []byte {
	for y := s.scanLen() - 1; y >= 0; y-- {
		if row >= 0 && y == row/4 {
			buf = append(buf, byte(3)<<uint(row%4*2))
		} else {
			buf = append(buf, 0x00)
		}
	}
	return buf
}

// lineLen returns the length of the data register payload of one row.
func lineLen(s Size) int {
	n := 2*s.BytesPerLine() + s.scanLen()
	if s.leadingBorder() || s.trailingBorder() {
		n++
	}
	return n
}

// encodeLine builds the data register payload drawing pixels on row.
func encodeLine(s Size, row int, pixels []byte, m stageMap, border byte) []byte {
	buf := make([]byte, 0, lineLen(s))
	if s.leadingBorder() {
		buf = append(buf, border)
	}
	for x := s.BytesPerLine() - 1; x >= 0; x-- {
		buf = append(buf, m.evenByte(pixels[x]))
	}
	buf = appendScan(buf, s, row)
	for x := 0; x < s.BytesPerLine(); x++ {
		buf = append(buf, m.oddByte(pixels[x]))
	}
	if s.trailingBorder() {
		buf = append(buf, border)
	}
	return buf
}

// encodeDeltaLine builds the data register payload of a partial update of
// row from prev to next.
func encodeDeltaLine(s Size, row int, prev, next []byte) []byte {
	buf := make([]byte, 0, lineLen(s))
	if s.leadingBorder() {
		buf = append(buf, 0x00)
	}
	for x := s.BytesPerLine() - 1; x >= 0; x-- {
		buf = append(buf, deltaEven(prev[x], next[x]))
	}
	buf = appendScan(buf, s, row)
	for x := 0; x < s.BytesPerLine(); x++ {
		buf = append(buf, deltaOdd(prev[x], next[x]))
	}
	if s.trailingBorder() {
		buf = append(buf, 0x00)
	}
	return buf
}
