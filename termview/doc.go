// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a display.Drawer that previews a monochrome
// panel on a terminal using ANSI 256 colour codes.
//
// Useful to check a layout before spending a full e-paper refresh on it.
package termview
