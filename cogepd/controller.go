// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Command header bytes starting every transaction.
const (
	headerIndex byte = 0x70
	headerID    byte = 0x71
	headerData  byte = 0x72
	headerRead  byte = 0x73
)

// Registers
const (
	regChannelSelect byte = 0x01
	regOutputEnable  byte = 0x02
	regLatch         byte = 0x03
	regPowerControl  byte = 0x04
	regChargePump    byte = 0x05
	regOscillator    byte = 0x07
	regPowerSetting  byte = 0x08
	regVcomLevel     byte = 0x09
	regLineData      byte = 0x0A
	regPowerSaving   byte = 0x0B
	regStatus        byte = 0x0F
)

// Register values
const (
	outputDisable  byte = 0x40
	outputEnable   byte = 0x06
	outputLatchRow byte = 0x07

	statusPanelOK byte = 0x80
	statusDCOK    byte = 0x40

	chipIDG1 byte = 0x11
	chipIDG2 byte = 0x12
)

type pinID uint8

const (
	pinChipSelect pinID = iota
	pinReset
	pinPanelOn
	pinDischarge
	pinBorder
)

func (p pinID) String() string {
	switch p {
	case pinChipSelect:
		return "ChipSelect"
	case pinReset:
		return "Reset"
	case pinPanelOn:
		return "PanelOn"
	case pinDischarge:
		return "Discharge"
	case pinBorder:
		return "Border"
	}
	return "?"
}

// controller is the register level view of the COG used by the power and
// frame sequences.
type controller interface {
	// writeReg writes one data byte to register idx.
	writeReg(idx, data byte)
	// writeBlock writes data to register idx in a single data transaction.
	writeBlock(idx byte, data []byte)
	readReg(idx byte) byte
	chipID() byte

	setPin(p pinID, l gpio.Level)
	listenBusy()
	busy() bool

	sleep(d time.Duration)
	now() time.Time

	begin()
	end()

	// force makes every later call execute even after a failure.
	force()
	err() error
}
