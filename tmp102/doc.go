// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tmp102 reads a Texas Instruments TMP102 I²C sensor used as the
// ambient temperature probe next to an e-paper panel. The waveform timing of
// the panel depends on that temperature. TMP112 and TMP75 are compatible.
//
// Range: -40°C - 125°C, resolution 0.0625°C.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/tmp102.pdf
package tmp102
