package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"golang.org/x/term"

	"github.com/hiway/keysampler/pkg/config"
	"github.com/hiway/keysampler/pkg/keysampler"
	"github.com/hiway/keysampler/pkg/midiin"
)

// newLogger writes human readable lines to stdout, coloured on a terminal.
func newLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    !term.IsTerminal(int(os.Stdout.Fd())),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func main() {
	os.Exit(run())
}

func run() int {
	ignoreVelocity := flag.Bool("ignore_velocity", false, "always play at full volume")
	sustain := flag.Bool("sustain", false, "use a longer release to emulate a sustain pedal")
	flag.Parse()

	log := newLogger()

	// Load configuration
	cfg, err := config.Load(config.Paths(log), log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
		log.Debug().Interface("config", cfg).Msg("Final config")
	}

	// Load every sample before touching MIDI; a missing sample is fatal.
	k, err := keysampler.New(cfg, keysampler.Options{
		IgnoreVelocity: *ignoreVelocity,
		Sustain:        *sustain,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start sampler")
		return 1
	}
	defer keysampler.CloseDriver()

	port, err := midiin.SelectPort(cfg.MIDI.Port, os.Stdin, os.Stdout, log)
	if err != nil {
		k.Stop()
		if errors.Is(err, midiin.ErrDeviceNotFound) {
			fmt.Println("\nNo MIDI devices found. Please connect a controller and try again!")
			return 0
		}
		log.Error().Err(err).Msg("Failed to select MIDI device")
		return 1
	}

	// Interrupt ends the run loop silently.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := k.Start(ctx, port); err != nil {
		log.Error().Err(err).Msg("KeySampler exited with error")
		return 1
	}
	return 0
}
