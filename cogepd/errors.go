// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for missing or malformed pixel buffers
	// and invalid settings.
	ErrInvalidArgument = errors.New("cogepd: invalid argument")
	// ErrInvalidPinConfig is returned by New when a required pin is missing.
	ErrInvalidPinConfig = errors.New("cogepd: invalid pin configuration")
	// ErrInvalidChipID is returned when the COG is not a G2 driver.
	ErrInvalidChipID = errors.New("cogepd: invalid chip id")
	// ErrBrokenPanel is returned when the COG reports a broken panel.
	ErrBrokenPanel = errors.New("cogepd: broken panel")
	// ErrDCFail is returned when the charge pumps did not come up.
	ErrDCFail = errors.New("cogepd: DC/DC failure")
	// ErrInternal is returned when the driver reaches an invalid state, such
	// as an unset timing.
	ErrInternal = errors.New("cogepd: internal error")
)

// PinConfigError names the missing pin.
type PinConfigError struct {
	Pin string
}

func (e *PinConfigError) Error() string {
	return fmt.Sprintf("cogepd: invalid pin configuration: %s pin is not assigned", e.Pin)
}

// Is reports whether target is ErrInvalidPinConfig.
func (e *PinConfigError) Is(target error) bool {
	return target == ErrInvalidPinConfig
}

// ChipIDError is returned when the COG answers with an unexpected id.
type ChipIDError struct {
	Got byte
}

func (e *ChipIDError) Error() string {
	name := ""
	if e.Got == chipIDG1 {
		name = " (G1 COG is not supported)"
	}
	return fmt.Sprintf("cogepd: invalid chip id: got 0x%02X, want 0x%02X%s", e.Got, chipIDG2, name)
}

// Is reports whether target is ErrInvalidChipID.
func (e *ChipIDError) Is(target error) bool {
	return target == ErrInvalidChipID
}
