package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Audio.Polyphony != 32 || cfg.AssetDir != "audio" || cfg.Audio.Driver != DriverOto {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
debug = true
asset_dir = "/srv/piano"

[audio]
driver = "stub"

[midi]
port = "Launchkey"
`)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if !cfg.Debug || cfg.AssetDir != "/srv/piano" || cfg.Audio.Driver != DriverStub || cfg.MIDI.Port != "Launchkey" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.Audio.SampleRate != 48000 || cfg.MIDI.QueueLength != 256 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{name: "asset dir", mutate: func(c *Config) { c.AssetDir = "" }, errSub: "asset_dir"},
		{name: "driver", mutate: func(c *Config) { c.Audio.Driver = "alsa" }, errSub: "driver"},
		{name: "sample rate", mutate: func(c *Config) { c.Audio.SampleRate = 0 }, errSub: "sample_rate"},
		{name: "polyphony low", mutate: func(c *Config) { c.Audio.Polyphony = 0 }, errSub: "polyphony"},
		{name: "polyphony high", mutate: func(c *Config) { c.Audio.Polyphony = 1000 }, errSub: "polyphony"},
		{name: "queue", mutate: func(c *Config) { c.MIDI.QueueLength = 0 }, errSub: "queue_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.errSub)
			}
		})
	}
}

func TestLoadMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	system := filepath.Join(dir, "system.toml")
	local := filepath.Join(dir, "local.toml")
	broken := filepath.Join(dir, "broken.toml")

	write := func(path, data string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(system, "asset_dir = \"/usr/share/piano\"\n[audio]\npolyphony = 16\n")
	write(broken, "asset_dir = \n")
	write(local, "[audio]\npolyphony = 8\n")

	cfg, err := Load([]string{system, filepath.Join(dir, "missing.toml"), broken, local}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.AssetDir != "/usr/share/piano" {
		t.Errorf("asset_dir = %q, want value from system file", cfg.AssetDir)
	}
	if cfg.Audio.Polyphony != 8 {
		t.Errorf("polyphony = %d, want 8 from local file", cfg.Audio.Polyphony)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[audio]\ndriver = \"jack\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load([]string{path}, zerolog.Nop()); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestPaths(t *testing.T) {
	paths := Paths(zerolog.Nop())
	if len(paths) < 2 {
		t.Fatalf("Paths() = %v", paths)
	}
	if paths[0] != "/usr/local/etc/"+FileName || paths[len(paths)-1] != "./"+FileName {
		t.Fatalf("unexpected order: %v", paths)
	}
}
