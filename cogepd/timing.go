// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package cogepd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Timing controls how many sweeps every waveform stage runs. It is either a
// fixed number of sweeps or a time budget. The zero value is unset and makes
// updates fail with ErrInternal.
type Timing struct {
	iterations int
	budget     time.Duration
}

// baseFrameTime is the stage duration of a panel between 20°C and 40°C.
const baseFrameTime = 630 * time.Millisecond

// DefaultTiming is used by New when Opts.Timing is unset.
var DefaultTiming = Timing{budget: baseFrameTime}

// Iterations returns a Timing running exactly n sweeps per stage.
func Iterations(n int) (Timing, error) {
	if n <= 0 {
		return Timing{}, fmt.Errorf("%w: iteration count %d must be positive", ErrInvalidArgument, n)
	}
	return Timing{iterations: n}, nil
}

// Budget returns a Timing repeating sweeps until d elapsed. At least one
// sweep always runs.
func Budget(d time.Duration) (Timing, error) {
	if d <= 0 {
		return Timing{}, fmt.Errorf("%w: time budget %s must be positive", ErrInvalidArgument, d)
	}
	return Timing{budget: d}, nil
}

// ForTemperature returns the time budget for an ambient temperature in
// whole degrees Celsius. Colder panels settle slower.
func ForTemperature(celsius int) Timing {
	return Timing{budget: TemperatureBudget(celsius)}
}

// ForSensedTemperature is ForTemperature for a sensor reading. The reading
// is truncated toward zero to whole degrees.
func ForSensedTemperature(t physic.Temperature) Timing {
	return ForTemperature(int((t - physic.ZeroCelsius) / physic.Kelvin))
}

// TemperatureBudget returns the stage duration for celsius.
func TemperatureBudget(celsius int) time.Duration {
	switch {
	case celsius <= -10:
		return 17 * baseFrameTime
	case celsius <= -5:
		return 12 * baseFrameTime
	case celsius <= 5:
		return 8 * baseFrameTime
	case celsius <= 10:
		return 4 * baseFrameTime
	case celsius <= 15:
		return 3 * baseFrameTime
	case celsius <= 20:
		return 2 * baseFrameTime
	case celsius <= 40:
		return baseFrameTime
	default:
		return baseFrameTime * 7 / 10
	}
}

// Iterations returns the fixed sweep count, if any.
func (t Timing) Iterations() (int, bool) {
	return t.iterations, t.iterations > 0
}

// Budget returns the time budget, if any.
func (t Timing) Budget() (time.Duration, bool) {
	return t.budget, t.budget > 0
}

func (t Timing) valid() bool {
	return (t.iterations > 0) != (t.budget > 0)
}

func (t Timing) String() string {
	switch {
	case !t.valid():
		return "Timing(unset)"
	case t.iterations > 0:
		return fmt.Sprintf("%d iterations", t.iterations)
	default:
		return t.budget.String()
	}
}

// repeat runs sweep according to t and returns the number of sweeps done.
func repeat(clock Clock, t Timing, sweep func()) (int, error) {
	switch {
	case !t.valid():
		return 0, fmt.Errorf("%w: timing is unset", ErrInternal)
	case t.iterations > 0:
		for i := 0; i < t.iterations; i++ {
			sweep()
		}
		return t.iterations, nil
	default:
		start := clock.Now()
		n := 0
		for {
			sweep()
			n++
			if clock.Now().Sub(start) >= t.budget {
				return n, nil
			}
		}
	}
}
