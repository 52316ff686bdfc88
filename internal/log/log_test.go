// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(l)
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		now = time.Now
	})
	return buf
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		level Level
		want  string
	}{
		{LevelDebug, "2026-03-01T12:00:00Z [DEBUG] d\n2026-03-01T12:00:00Z [INFO] i\n2026-03-01T12:00:00Z [ERROR] e err=boom\n"},
		{LevelInfo, "2026-03-01T12:00:00Z [INFO] i\n2026-03-01T12:00:00Z [ERROR] e err=boom\n"},
		{LevelError, "2026-03-01T12:00:00Z [ERROR] e err=boom\n"},
	} {
		t.Run(string(tc.level), func(t *testing.T) {
			buf := capture(t, tc.level)
			Debug("d")
			Info("i")
			Error("e", errors.New("boom"))
			if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNamed(t *testing.T) {
	buf := capture(t, LevelDebug)
	l := Named("cogepd")
	l.Debug("power state", "from", "off", "to", "resetting", "dangling")
	l.Error("power-up failed", "err", "chip id 0x11", 42, "skipped")
	want := "2026-03-01T12:00:00Z [DEBUG] cogepd: power state from=off to=resetting\n" +
		"2026-03-01T12:00:00Z [ERROR] cogepd: power-up failed err=\"chip id 0x11\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, " Info ": LevelInfo, "ERROR": LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) succeeded")
	}
}
