// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the Pervasive Displays G2 e-paper
// driver and its tooling.
//
// The driver lives in cogepd, the terminal preview in termview and the
// ambient temperature probe in tmp102. cmd/cogepd drives a panel from the
// command line.
package epaper
