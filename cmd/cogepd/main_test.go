// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/epaper/cogepd"
	"github.com/GermanBionicSystems/epaper/internal/config"
	"github.com/GermanBionicSystems/epaper/termview"
)

func TestParseFlags(t *testing.T) {
	f, set, err := parseFlags([]string{"-size", "2.71", "-temperature", "-3", "-partial", "-v"})
	if err != nil {
		t.Fatal(err)
	}
	if f.size != "2.71" || !f.partial || !f.verbose {
		t.Errorf("flags = %+v", f)
	}
	if f.timing.temperature == nil || *f.timing.temperature != -3 {
		t.Errorf("temperature = %v", f.timing.temperature)
	}
	if diff := cmp.Diff(map[string]bool{"size": true, "temperature": true, "partial": true, "v": true}, set); diff != "" {
		t.Errorf("set flags (-want +got):\n%s", diff)
	}

	f, _, err = parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.timing.temperature != nil {
		t.Error("temperature set without flag")
	}
	if _, _, err := parseFlags([]string{"extra"}); err == nil {
		t.Error("positional argument accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cogepd.yaml")
	f, set, err := parseFlags([]string{"-config", path, "-size", "1.44", "-text", "hi", "-schedule", "@hourly"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(f, set)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Size != "1.44" || cfg.Text != "hi" || cfg.Schedule != "@hourly" {
		t.Errorf("config = %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	f, set, _ = parseFlags([]string{"-size", "9"})
	if _, err := loadConfig(f, set); !errors.Is(err, cogepd.ErrInvalidArgument) {
		t.Errorf("loadConfig() = %v", err)
	}
}

type fakeSensor struct {
	temp physic.Temperature
	err  error
}

func (s *fakeSensor) Sense(env *physic.Env) error {
	env.Temperature = s.temp
	return s.err
}

func TestResolveTiming(t *testing.T) {
	cold := -12
	sensor := &fakeSensor{temp: physic.ZeroCelsius + 30*physic.Celsius}
	cfg := config.TimingConfig{Mode: config.TimingTemperature, Celsius: 12}
	for _, tc := range []struct {
		name   string
		flags  timingFlags
		sensor thermometer
		want   string
		source string
	}{
		{"iterations", timingFlags{iterations: 3, budget: time.Second}, sensor, "3 iterations", "flag"},
		{"budget", timingFlags{budget: time.Second}, sensor, "1s", "flag"},
		{"temperature", timingFlags{temperature: &cold}, sensor, "10.71s", "flag"},
		{"sensor", timingFlags{}, sensor, "630ms", "sensor"},
		{"config", timingFlags{}, nil, "1.89s", "config"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, source, err := resolveTiming(tc.flags, tc.sensor, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tc.want || !strings.HasPrefix(source, tc.source) {
				t.Errorf("got %s from %q, want %s from %q", got, source, tc.want, tc.source)
			}
		})
	}

	if _, _, err := resolveTiming(timingFlags{iterations: -1}, nil, cfg); !errors.Is(err, cogepd.ErrInvalidArgument) {
		t.Errorf("negative iterations: %v", err)
	}
	broken := &fakeSensor{err: errors.New("nack")}
	if _, _, err := resolveTiming(timingFlags{}, broken, cfg); err == nil {
		t.Error("sensor error ignored")
	}
}

func TestRenderText(t *testing.T) {
	for _, font := range []string{"", "basic"} {
		face, err := loadFace(font, 24)
		if err != nil {
			t.Fatal(err)
		}
		img := renderText(cogepd.EPD2in00, "Hello", face)
		if got := img.Bounds(); got != cogepd.EPD2in00.Bounds() {
			t.Fatalf("bounds = %v", got)
		}
		frame := cogepd.FrameFromImage(cogepd.EPD2in00, img)
		if frame[0] != 0 {
			t.Errorf("font %q: corner is not white", font)
		}
		if bytes.Count(frame, []byte{0}) == len(frame) {
			t.Errorf("font %q: nothing drawn", font)
		}
	}
	if _, err := loadFace(filepath.Join(t.TempDir(), "missing.ttf"), 12); err == nil {
		t.Error("missing font accepted")
	}
}

func TestLoadImageBMP(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 16, 8))
	src.SetGray(3, 2, color.Gray{Y: 0x80})
	path := filepath.Join(t.TempDir(), "img.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	img, err := loadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if _, err := loadImage(filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("missing image accepted")
	}
}

func TestPreview(t *testing.T) {
	buf := bytes.Buffer{}
	cfg := config.DefaultConfig()
	cfg.Size = "1.44"
	cfg.Text = "88"
	cfg.FontSize = 60
	a := &app{
		cfg:  cfg,
		size: cogepd.EPD1in44,
		view: termview.NewPanel(cogepd.EPD1in44, &termview.Opts{Scale: 4, W: &buf, ASCII: true}),
	}
	if err := a.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 24 {
		t.Fatalf("%d lines", len(lines))
	}
	if !strings.Contains(buf.String(), "#") {
		t.Errorf("no dark cell:\n%s", buf.String())
	}
}

func TestRefreshJobSkipsOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32
	job := refreshJob(func() error {
		if atomic.AddInt32(&runs, 1) == 1 {
			close(started)
			<-release
		}
		return nil
	})
	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started
	job.Run()
	close(release)
	<-done
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("%d runs, want 1", got)
	}
	job.Run()
	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Errorf("%d runs after the first finished, want 2", got)
	}
}
