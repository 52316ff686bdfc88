// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package cogepd controls Pervasive Displays passive-matrix e-paper panels
// driven by the second generation (G2) chip-on-glass driver.
//
// The COG is not a frame buffer controller: the host streams every row of
// every waveform stage itself. A full update sends four stages (compensate,
// white, inverse, normal), each repeated for a number of sweeps that depends
// on the ambient temperature. A partial update sends a single XOR-delta pass.
//
// # Datasheets
//
// https://www.pervasivedisplays.com/wp-content/uploads/2023/02/4P018-00_04_G2_Aurora-Mb_COG_Driver_Interface_Timing_for_small-size_20231107.pdf
//
// Supported panels: 1.44" (128x96), 2.00" (200x96) and 2.71" (264x176).
//
// Busy pin polling is not bounded: if the panel is absent and the busy line
// floats high, power-up blocks forever.
package cogepd
