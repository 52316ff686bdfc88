// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	resetSettle     = 5 * time.Millisecond
	busyPoll        = 1 * time.Millisecond
	latchSettle     = 5 * time.Millisecond
	positivePump    = 150 * time.Millisecond
	negativePump    = 90 * time.Millisecond
	vcomPump        = 40 * time.Millisecond
	pumpDown        = 300 * time.Millisecond
	sessionSettle   = 50 * time.Millisecond
	panelOffSettle  = 10 * time.Millisecond
	dischargePulse  = 150 * time.Millisecond
	borderSettle    = 25 * time.Millisecond
	borderPulse     = 100 * time.Millisecond
	chargeAttempts  = 4
	antiGhostSweeps = 2
)

// state of the power sequencer.
type state uint8

const (
	stateOff state = iota
	stateValidating
	stateResetting
	stateProbing
	stateConfiguring
	stateCharging
	stateReady
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateOff:
		return "off"
	case stateValidating:
		return "validating"
	case stateResetting:
		return "resetting"
	case stateProbing:
		return "probing"
	case stateConfiguring:
		return "configuring"
	case stateCharging:
		return "charging"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// sequencer powers the COG up and down.
type sequencer struct {
	ctrl  controller
	size  Size
	log   Logger
	state state
}

func (s *sequencer) enter(st state) {
	s.log.Debug("cogepd: power state", "from", s.state, "to", st)
	s.state = st
}

// powerOn brings the COG from off to ready. Pins were validated by New, so
// the validating state only records the transition. Every failure after the
// reset pulse powers the COG off before returning.
func (s *sequencer) powerOn() error {
	s.enter(stateValidating)
	c := s.ctrl

	s.enter(stateResetting)
	c.listenBusy()
	c.setPin(pinPanelOn, gpio.High)
	c.setPin(pinChipSelect, gpio.High)
	if s.size.hasBorderPin() {
		c.setPin(pinBorder, gpio.High)
	}
	c.setPin(pinReset, gpio.High)
	c.setPin(pinDischarge, gpio.Low)
	c.sleep(resetSettle)

	c.setPin(pinReset, gpio.Low)
	c.sleep(resetSettle)
	c.setPin(pinReset, gpio.High)
	c.sleep(resetSettle)

	for c.busy() {
		c.sleep(busyPoll)
	}
	c.begin()
	if err := c.err(); err != nil {
		return s.fail(err)
	}

	s.enter(stateProbing)
	id := c.chipID()
	if err := c.err(); err != nil {
		return s.fail(err)
	}
	s.log.Debug("cogepd: chip id", "id", fmt.Sprintf("0x%02X", id))
	if id != chipIDG2 {
		return s.fail(&ChipIDError{Got: id})
	}

	s.enter(stateConfiguring)
	c.writeReg(regOutputEnable, outputDisable)
	st := c.readReg(regStatus)
	if err := c.err(); err != nil {
		return s.fail(err)
	}
	if st&statusPanelOK == 0 {
		return s.fail(ErrBrokenPanel)
	}
	c.writeReg(regPowerSaving, 0x02)
	c.writeBlock(regChannelSelect, s.size.channelSelect())
	c.writeReg(regOscillator, 0xD1) // High power mode
	c.writeReg(regPowerSetting, 0x02)
	c.writeReg(regVcomLevel, 0xC2)
	c.writeReg(regPowerControl, 0x03)
	c.writeReg(regLatch, 0x01)
	c.writeReg(regLatch, 0x00)
	c.sleep(latchSettle)

	s.enter(stateCharging)
	for i := 0; i < chargeAttempts; i++ {
		c.writeReg(regChargePump, 0x01) // VGH & VDH on
		c.sleep(positivePump)
		c.writeReg(regChargePump, 0x03) // VGL & VDL on
		c.sleep(negativePump)
		c.writeReg(regChargePump, 0x0F) // Vcom on
		c.sleep(vcomPump)
		st := c.readReg(regStatus)
		if err := c.err(); err != nil {
			return s.fail(err)
		}
		if st&statusDCOK != 0 {
			c.writeReg(regOutputEnable, outputEnable)
			if err := c.err(); err != nil {
				return s.fail(err)
			}
			s.log.Debug("cogepd: DC/DC ready", "attempt", i+1)
			s.enter(stateReady)
			return nil
		}
		s.log.Debug("cogepd: DC/DC not ready", "attempt", i+1)
	}
	return s.fail(ErrDCFail)
}

// fail powers off and returns err.
func (s *sequencer) fail(err error) error {
	s.enter(stateFailed)
	s.log.Error("cogepd: power-up failed", "err", err)
	s.powerOff()
	return err
}

// powerOff discharges the panel and drives every line low. It always runs to
// the end, whatever failed before.
func (s *sequencer) powerOff() {
	c := s.ctrl
	c.force()

	c.writeReg(regPowerSaving, 0x00)
	c.writeReg(regLatch, 0x01)      // Latch reset
	c.writeReg(regChargePump, 0x03) // Vcom off
	c.writeReg(regChargePump, 0x01) // VGL & VDL off
	c.sleep(pumpDown)
	c.writeReg(regPowerControl, 0x80) // Discharge internal
	c.writeReg(regChargePump, 0x00)   // VGH & VDH off
	c.writeReg(regOscillator, 0x01)   // Oscillator off
	c.end()
	c.sleep(sessionSettle)

	if s.size.hasBorderPin() {
		c.setPin(pinBorder, gpio.Low)
	}
	c.setPin(pinPanelOn, gpio.Low)
	c.sleep(panelOffSettle)
	c.setPin(pinReset, gpio.Low)
	c.setPin(pinChipSelect, gpio.Low)

	c.setPin(pinDischarge, gpio.High)
	c.sleep(dischargePulse)
	c.setPin(pinDischarge, gpio.Low)
	s.enter(stateOff)
}
