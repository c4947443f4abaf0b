package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const (
	// FileName is the configuration file looked up in every location.
	FileName = "keysampler.toml"

	DriverOto  = "oto"
	DriverStub = "stub"

	maxPolyphony = 256
)

// Audio configures the playback backend.
type Audio struct {
	Driver     string `toml:"driver"`      // "oto" or "stub"
	SampleRate int    `toml:"sample_rate"` // Output rate in Hz
	Polyphony  int    `toml:"polyphony"`   // Max simultaneously sounding voices
}

// MIDI configures the input side.
type MIDI struct {
	QueueLength int    `toml:"queue_length"` // Events buffered ahead of dispatch
	Port        string `toml:"port"`         // Substring preselecting an input port
}

// Config holds the complete keysampler configuration.
type Config struct {
	Debug    bool   `toml:"debug"`
	AssetDir string `toml:"asset_dir"` // Directory holding the Piano.ff.*.aiff samples
	Audio    Audio  `toml:"audio"`
	MIDI     MIDI   `toml:"midi"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AssetDir: "audio",
		Audio: Audio{
			Driver:     DriverOto,
			SampleRate: 48000,
			Polyphony:  32,
		},
		MIDI: MIDI{
			QueueLength: 256,
		},
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.AssetDir == "" {
		return errors.New("asset_dir cannot be empty")
	}
	switch c.Audio.Driver {
	case DriverOto, DriverStub:
	default:
		return fmt.Errorf("unknown audio driver %q", c.Audio.Driver)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Polyphony < 1 || c.Audio.Polyphony > maxPolyphony {
		return fmt.Errorf("polyphony must be between 1 and %d, got %d", maxPolyphony, c.Audio.Polyphony)
	}
	if c.MIDI.QueueLength < 1 {
		return fmt.Errorf("queue_length must be at least 1, got %d", c.MIDI.QueueLength)
	}
	return nil
}

// Paths returns the configuration files in order of increasing priority:
// system-wide, user (XDG) and the working directory.
func Paths(log zerolog.Logger) []string {
	paths := []string{"/usr/local/etc/" + FileName}

	userPath, err := xdg.ConfigFile("keysampler/" + FileName)
	if err == nil {
		paths = append(paths, userPath)
	} else {
		log.Warn().Err(err).Msg("Could not determine user config directory")
	}

	return append(paths, "./"+FileName)
}

// Load merges every existing file in paths over the defaults. Later files
// override earlier ones; unreadable files are skipped with a warning.
func Load(paths []string, log zerolog.Logger) (Config, error) {
	cfg := Default()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", path).Msg("Error checking config file")
			}
			continue
		}
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to load config file")
			continue
		}
		log.Debug().Str("path", path).Msg("Loaded config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	log.Debug().Interface("config", cfg).Msg("Configuration loaded and validated successfully")
	return cfg, nil
}

// Parse decodes a single TOML document over the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
