// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// cogepd draws an image or a text on a Pervasive Displays G2 e-paper panel,
// once or on a cron schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epaper/cogepd"
	"github.com/GermanBionicSystems/epaper/internal/config"
	appLog "github.com/GermanBionicSystems/epaper/internal/log"
	"github.com/GermanBionicSystems/epaper/termview"
	"github.com/GermanBionicSystems/epaper/tmp102"
)

type flagConfig struct {
	configPath string
	size       string
	image      string
	text       string
	font       string
	partial    bool
	preview    bool
	schedule   string
	verbose    bool
	timing     timingFlags
}

func parseFlags(args []string) (*flagConfig, map[string]bool, error) {
	var f flagConfig
	var celsius int
	fs := flag.NewFlagSet("cogepd", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file, created with defaults if missing")
	fs.StringVar(&f.size, "size", "", "Panel size: 1.44, 2.00 or 2.71")
	fs.StringVar(&f.image, "image", "", "PNG, JPEG, GIF or BMP file to draw")
	fs.StringVar(&f.text, "text", "", "Text to draw; defaults to the current time")
	fs.StringVar(&f.font, "font", "", "TrueType font file, or \"basic\" for a bitmap font")
	fs.BoolVar(&f.partial, "partial", false, "Use partial updates after the first full one")
	fs.IntVar(&f.timing.iterations, "iterations", 0, "Fixed number of sweeps per stage")
	fs.DurationVar(&f.timing.budget, "budget", 0, "Time budget per stage")
	fs.IntVar(&celsius, "temperature", 0, "Ambient temperature in °C")
	fs.BoolVar(&f.preview, "preview", false, "Render in the terminal only; do not touch hardware")
	fs.StringVar(&f.schedule, "schedule", "", "Cron spec to refresh periodically until interrupted")
	fs.BoolVar(&f.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() != 0 {
		return nil, nil, errors.New("unexpected arguments")
	}
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if set["temperature"] {
		f.timing.temperature = &celsius
	}
	return &f, set, nil
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(f *flagConfig, set map[string]bool) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if set["size"] {
		cfg.Size = f.size
	}
	if set["image"] {
		cfg.Image = f.image
	}
	if set["text"] {
		cfg.Text = f.text
	}
	if set["font"] {
		cfg.Font = f.font
	}
	if set["partial"] {
		cfg.Partial = f.partial
	}
	if set["schedule"] {
		cfg.Schedule = f.schedule
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// app owns the output and refreshes it.
type app struct {
	cfg    *config.Config
	size   cogepd.Size
	flags  timingFlags
	sensor thermometer

	dev  *cogepd.Dev
	view *termview.Dev
}

// source returns the image to draw.
func (a *app) source() (image.Image, error) {
	if a.cfg.Image != "" {
		return loadImage(a.cfg.Image)
	}
	face, err := loadFace(a.cfg.Font, a.cfg.FontSize)
	if err != nil {
		return nil, err
	}
	text := a.cfg.Text
	if text == "" {
		text = time.Now().Format("Mon 2 Jan 15:04")
	}
	return renderText(a.size, text, face), nil
}

func (a *app) refresh() error {
	img, err := a.source()
	if err != nil {
		return err
	}
	frame := cogepd.FrameFromImage(a.size, img)
	if a.view != nil {
		return a.view.WriteFrame(a.size, frame)
	}

	t, from, err := resolveTiming(a.flags, a.sensor, a.cfg.Timing)
	if err != nil {
		return err
	}
	a.dev.SetTiming(t)
	start := time.Now()
	if a.cfg.Partial && a.dev.Previous() != nil {
		err = a.dev.PartialUpdate(frame, nil)
	} else {
		err = a.dev.FullUpdate(frame, nil)
	}
	if err != nil {
		return err
	}
	appLog.Info("panel updated", "timing", t, "timing_source", from, "partial", a.cfg.Partial, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

// openHardware initializes periph and opens the panel and the optional
// temperature sensor. The returned function releases them.
func (a *app) openHardware() (func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(a.cfg.SPI)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { port.Close() }}
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	p := a.cfg.Pins
	a.dev, err = cogepd.New(cogepd.NewSPI(port, spi.Mode(a.cfg.SPIMode)), &cogepd.Opts{
		Size: a.size,
		Pins: cogepd.Pins{
			ChipSelect: gpioreg.ByName(p.ChipSelect),
			Reset:      gpioreg.ByName(p.Reset),
			Busy:       gpioreg.ByName(p.Busy),
			PanelOn:    gpioreg.ByName(p.PanelOn),
			Discharge:  gpioreg.ByName(p.Discharge),
			Border:     gpioreg.ByName(p.Border),
		},
		Logger: appLog.Named("cogepd"),
	})
	if err != nil {
		release()
		return nil, err
	}
	closers = append(closers, func() { a.dev.Halt() })

	if s := a.cfg.Sensor; s != nil {
		bus, err := i2creg.Open(s.Bus)
		if err != nil {
			release()
			return nil, err
		}
		closers = append(closers, func() { bus.Close() })
		sensor, err := tmp102.New(bus, s.Address)
		if err != nil {
			release()
			return nil, err
		}
		closers = append(closers, func() { sensor.Halt() })
		a.sensor = sensor
	}
	appLog.Info("hardware ready", "panel", a.dev)
	return release, nil
}

// run refreshes once, or on the schedule until ctx is canceled.
func (a *app) run(ctx context.Context) error {
	if err := a.refresh(); err != nil {
		return err
	}
	if a.cfg.Schedule == "" {
		return nil
	}
	c := cron.New(cron.WithLogger(cronLogger{}))
	if _, err := c.AddJob(a.cfg.Schedule, refreshJob(a.refresh)); err != nil {
		return err
	}
	appLog.Info("scheduled", "schedule", a.cfg.Schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// refreshJob wraps refresh for the scheduler. A run that comes due while the
// previous one is still drawing is skipped, since the panel is not safe for
// concurrent use.
func refreshJob(refresh func() error) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(func() {
		if err := refresh(); err != nil {
			appLog.Error("refresh failed", err)
		}
	}))
}

// cronLogger sends the scheduler's messages to the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}

func mainImpl() error {
	f, set, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f, set)
	if err != nil {
		return err
	}
	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	appLog.SetLevel(level)
	size, err := cfg.PanelSize()
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, size: size, flags: f.timing}
	if f.preview {
		a.view = termview.NewPanel(size, &termview.Opts{Scale: 2})
		defer a.view.Halt()
	} else {
		release, err := a.openHardware()
		if err != nil {
			return err
		}
		defer release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func main() {
	if err := mainImpl(); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "cogepd: %s.\n", err)
		}
		os.Exit(1)
	}
}
