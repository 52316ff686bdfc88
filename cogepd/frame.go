// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"periph.io/x/conn/v3/gpio"
)

// noScanRow selects no row; the COG uses it as the border dummy line.
const noScanRow = -1

// renderer streams rows to a powered COG.
type renderer struct {
	ctrl  controller
	size  Size
	clock Clock
	log   Logger
}

// sendLine writes one row payload and latches it onto the panel.
func (r *renderer) sendLine(payload []byte) {
	r.ctrl.writeBlock(regLineData, payload)
	r.ctrl.writeReg(regOutputEnable, outputLatchRow)
}

func (r *renderer) row(frame []byte, y int) []byte {
	bpl := r.size.BytesPerLine()
	return frame[y*bpl : (y+1)*bpl]
}

// drawFrame sweeps every row of frame through m, iterations times.
func (r *renderer) drawFrame(frame []byte, m stageMap, iterations int) {
	for i := 0; i < iterations; i++ {
		for y := 0; y < r.size.Height(); y++ {
			r.sendLine(encodeLine(r.size, y, r.row(frame, y), m, 0x00))
		}
	}
}

// fullUpdate runs the four waveform stages. The first stage measures the
// number of sweeps; the three others reuse it.
func (r *renderer) fullUpdate(prev, next []byte, t Timing) error {
	n, err := repeat(r.clock, t, func() {
		r.drawFrame(prev, stageCompensate, 1)
	})
	if err != nil {
		return err
	}
	r.log.Debug("cogepd: full update", "sweeps", n, "timing", t)
	r.drawFrame(prev, stageWhite, n)
	r.drawFrame(next, stageInverse, n)
	r.drawFrame(next, stageNormal, n)
	return nil
}

// partialUpdate sweeps rows [from, to) with the XOR-delta encoding.
func (r *renderer) partialUpdate(prev, next []byte, from, to int, t Timing) error {
	n, err := repeat(r.clock, t, func() {
		for y := from; y < to; y++ {
			r.sendLine(encodeDeltaLine(r.size, y, r.row(prev, y), r.row(next, y)))
		}
	})
	if err != nil {
		return err
	}
	r.log.Debug("cogepd: partial update", "sweeps", n, "rows", to-from, "timing", t)
	return nil
}

// finish cleans the COG buffer with a nothing frame followed by the border
// dummy line.
func (r *renderer) finish() {
	blank := make([]byte, r.size.BytesPerLine())
	for y := 0; y < r.size.Height(); y++ {
		r.sendLine(encodeLine(r.size, y, blank, stageNothing, 0x00))
	}
	if !r.size.hasBorderPin() {
		r.sendLine(encodeLine(r.size, noScanRow, blank, stageNothing, 0xAA))
		return
	}
	r.sendLine(encodeLine(r.size, noScanRow, blank, stageNothing, 0x00))
	r.ctrl.sleep(borderSettle)
	r.ctrl.setPin(pinBorder, gpio.Low)
	r.ctrl.sleep(borderPulse)
	r.ctrl.setPin(pinBorder, gpio.High)
}
