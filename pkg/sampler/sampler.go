package sampler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/rs/zerolog"

	"github.com/hiway/keysampler/pkg/audio"
	"github.com/hiway/keysampler/pkg/notes"
)

const (
	// Polyphony is the number of voices the backend may sound at once.
	Polyphony = audio.DefaultPolyphony
	// MaxVelocity is the largest MIDI velocity.
	MaxVelocity = 127

	// SustainRelease is the fadeout used when sustain is enabled.
	SustainRelease = 600 * time.Millisecond
	// Release is the fadeout used otherwise.
	Release = 300 * time.Millisecond
)

// ErrNoteNotMapped is returned for note ids without a loaded sample.
var ErrNoteNotMapped = errors.New("note not mapped")

// LoadError reports the note whose sample could not be loaded.
type LoadError struct {
	Note int
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load sample for note %d (%s): %v", e.Note, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Config is fixed for the lifetime of a Sampler.
type Config struct {
	IgnoreVelocity bool // Leave voice volume untouched by velocity
	Sustain        bool // Use the longer release
}

// Sampler owns one voice per mapped note and plays them on request.
type Sampler struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex // Serializes play/stop and guards voices
	voices map[int]audio.Voice
}

// New loads every sample in mapping from assetDir. Any failure aborts
// construction with a *LoadError.
func New(backend audio.Backend, mapping notes.Map, assetDir string, cfg Config, log zerolog.Logger) (*Sampler, error) {
	log = log.With().Str("component", "sampler").Logger()

	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid note map: %w", err)
	}
	backend.SetPolyphony(Polyphony)

	s := &Sampler{
		cfg:    cfg,
		log:    log,
		voices: make(map[int]audio.Voice, len(mapping)),
	}

	for _, id := range mapping.IDs() {
		m := mapping[id]
		path := m.Path(assetDir)
		v, err := backend.Load(path)
		if err != nil {
			s.Close()
			return nil, &LoadError{Note: id, Path: path, Err: err}
		}
		s.voices[id] = v
		log.Trace().Int("note", id).Str("name", m.Name).Str("path", path).Msg("Loaded note")
	}

	log.Debug().
		Int("notes", len(s.voices)).
		Bool("ignore_velocity", cfg.IgnoreVelocity).
		Bool("sustain", cfg.Sustain).
		Msg("Sampler ready")
	return s, nil
}

// Velocity maps a MIDI velocity to a volume in [0, 1].
func Velocity(velocity int) float64 {
	return core.Clamp(float64(velocity)/MaxVelocity, 0, 1)
}

// ReleaseTime returns the fadeout used by Stop.
func (s *Sampler) ReleaseTime() time.Duration {
	if s.cfg.Sustain {
		return SustainRelease
	}
	return Release
}

// Play restarts the sample for note. Any instance already sounding is
// stopped first, so a note never has two overlapping voices. Velocity 0
// plays at volume 0; it is not a note-off.
func (s *Sampler) Play(note, velocity int) error {
	s.log.Info().Msgf("play(%d, %d)", note, velocity)

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voices[note]
	if !ok {
		return fmt.Errorf("play %d: %w", note, ErrNoteNotMapped)
	}
	v.Stop()
	if !s.cfg.IgnoreVelocity {
		v.SetVolume(Velocity(velocity))
	}
	v.Play()
	return nil
}

// Stop starts the release fadeout for note and returns immediately.
func (s *Sampler) Stop(note int) error {
	s.log.Info().Msgf("stop(%d)", note)

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.voices[note]
	if !ok {
		return fmt.Errorf("stop %d: %w", note, ErrNoteNotMapped)
	}
	v.Fadeout(s.ReleaseTime())
	return nil
}

// State reports the lifecycle state of note's voice.
func (s *Sampler) State(note int) (audio.VoiceState, error) {
	s.mu.Lock()
	v, ok := s.voices[note]
	s.mu.Unlock()
	if !ok {
		return audio.Idle, fmt.Errorf("state %d: %w", note, ErrNoteNotMapped)
	}
	return v.State(), nil
}

// Volume reports the volume last applied to note's voice.
func (s *Sampler) Volume(note int) (float64, error) {
	s.mu.Lock()
	v, ok := s.voices[note]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("volume %d: %w", note, ErrNoteNotMapped)
	}
	return v.Volume(), nil
}

// Close stops every voice immediately.
func (s *Sampler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.voices {
		v.Stop()
	}
	s.log.Debug().Msg("Sampler closed")
}
