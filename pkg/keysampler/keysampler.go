package keysampler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/hiway/keysampler/pkg/audio"
	"github.com/hiway/keysampler/pkg/config"
	"github.com/hiway/keysampler/pkg/midiin"
	"github.com/hiway/keysampler/pkg/notes"
	"github.com/hiway/keysampler/pkg/sampler"
)

// Options are the command line switches.
type Options struct {
	IgnoreVelocity bool
	Sustain        bool
}

// KeySampler connects a MIDI input to the sampler.
type KeySampler struct {
	cfg      config.Config
	backend  audio.Backend
	sampler  *sampler.Sampler
	router   *midiin.Router
	log      zerolog.Logger
	mu       sync.Mutex
	unlisten func()
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewBackend creates the audio backend named by cfg.
func NewBackend(cfg config.Config, log zerolog.Logger) (audio.Backend, error) {
	switch cfg.Audio.Driver {
	case config.DriverStub:
		return audio.NewStubBackend(log), nil
	case config.DriverOto:
		b, err := audio.NewOtoBackend(cfg.Audio.SampleRate, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown audio driver %q", cfg.Audio.Driver)
	}
}

// New creates the backend from cfg and loads every sample.
func New(cfg config.Config, opts Options, log zerolog.Logger) (*KeySampler, error) {
	backend, err := NewBackend(cfg, log)
	if err != nil {
		return nil, err
	}
	k, err := NewWithBackend(cfg, opts, backend, log)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return k, nil
}

// NewWithBackend builds the sampler and router on top of backend.
func NewWithBackend(cfg config.Config, opts Options, backend audio.Backend, log zerolog.Logger) (*KeySampler, error) {
	log = log.With().Str("component", "keysampler").Logger()

	s, err := sampler.New(backend, notes.Build(), cfg.AssetDir, sampler.Config{
		IgnoreVelocity: opts.IgnoreVelocity,
		Sustain:        opts.Sustain,
	}, log)
	if err != nil {
		return nil, err
	}
	if cfg.Audio.Polyphony != sampler.Polyphony {
		backend.SetPolyphony(cfg.Audio.Polyphony)
	}

	return &KeySampler{
		cfg:      cfg,
		backend:  backend,
		sampler:  s,
		router:   midiin.NewRouter(s, cfg.MIDI.QueueLength, log),
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Sampler returns the underlying sampler.
func (k *KeySampler) Sampler() *sampler.Sampler {
	return k.sampler
}

// Router returns the event router feeding the sampler.
func (k *KeySampler) Router() *midiin.Router {
	return k.router
}

// Start listens on port, if any, and dispatches events until ctx is
// cancelled or Stop is called. It always shuts down before returning.
func (k *KeySampler) Start(ctx context.Context, port drivers.In) error {
	defer k.Stop()

	if port != nil {
		unlisten, err := midiin.Listen(port, k.router, k.log)
		if err != nil {
			return fmt.Errorf("failed to listen for MIDI: %w", err)
		}
		k.mu.Lock()
		k.unlisten = unlisten
		k.mu.Unlock()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			k.log.Debug().Msg("Context canceled, stopping keysampler")
			k.Stop()
		case <-k.stopChan:
		}
	}()

	k.log.Debug().Msg("KeySampler started")
	k.router.Run(ctx)
	return nil
}

// Stop releases the MIDI input, every voice and the audio backend.
func (k *KeySampler) Stop() {
	k.stopOnce.Do(func() {
		k.log.Debug().Msg("Stopping keysampler")
		close(k.stopChan)

		k.mu.Lock()
		unlisten := k.unlisten
		k.unlisten = nil
		k.mu.Unlock()
		if unlisten != nil {
			unlisten()
		}

		k.router.Stop()
		k.sampler.Close()
		if err := k.backend.Close(); err != nil {
			k.log.Error().Err(err).Msg("Error closing audio backend")
		}
		k.log.Debug().Msg("KeySampler stopped")
	})
}

// CloseDriver releases the registered MIDI driver.
func CloseDriver() {
	gomidi.CloseDriver()
}
