package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog"
)

var (
	otoCtx *oto.Context
	once   sync.Once
	ctxErr error
)

// initOtoContext initializes the oto context singleton. The first caller's
// sample rate wins.
func initOtoContext(sampleRate int) (*oto.Context, error) {
	once.Do(func() {
		op := &oto.NewContextOptions{}
		op.SampleRate = sampleRate
		op.ChannelCount = ChannelCount
		op.Format = oto.FormatSignedInt16LE

		var readyChan chan struct{}
		otoCtx, readyChan, ctxErr = oto.NewContext(op)
		if ctxErr == nil {
			<-readyChan // Wait for the context to be ready
		}
	})
	return otoCtx, ctxErr
}

// OtoBackend plays decoded samples through the ebitengine/oto/v3 library.
type OtoBackend struct {
	log        zerolog.Logger
	ctx        *oto.Context
	sampleRate int
	pool       *pool
	mu         sync.Mutex // Protects voices
	voices     []*voice
}

// NewOtoBackend creates a backend rendering at sampleRate.
func NewOtoBackend(sampleRate int, log zerolog.Logger) (*OtoBackend, error) {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	ctx, err := initOtoContext(sampleRate)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Oto audio context")
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	log = log.With().Str("backend", "oto").Logger()
	log.Debug().Int("sample_rate", sampleRate).Msg("Oto audio context initialized successfully")

	return &OtoBackend{
		log:        log,
		ctx:        ctx,
		sampleRate: sampleRate,
		pool:       newPool(DefaultPolyphony, log),
	}, nil
}

// SetPolyphony sets the maximum number of simultaneously sounding voices.
func (b *OtoBackend) SetPolyphony(n int) {
	b.pool.setMax(n)
	b.log.Debug().Int("polyphony", n).Msg("Set polyphony")
}

// Load decodes the AIFF file at path into a playable voice.
func (b *OtoBackend) Load(path string) (Voice, error) {
	data, err := decodeAIFF(path, b.sampleRate)
	if err != nil {
		b.log.Error().Err(err).Str("path", path).Msg("Failed to load sample")
		return nil, err
	}

	reader := bytes.NewReader(data)
	out := &otoOutput{player: b.ctx.NewPlayer(reader)}
	v := newVoice(filepath.Base(path), out, b.pool, b.log)

	b.mu.Lock()
	b.voices = append(b.voices, v)
	b.mu.Unlock()

	b.log.Trace().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Loaded sample")
	return v, nil
}

// Close stops every voice and releases the oto players.
func (b *OtoBackend) Close() error {
	b.log.Debug().Msg("Closing OtoBackend")
	b.mu.Lock()
	voices := b.voices
	b.voices = nil
	b.mu.Unlock()

	var firstErr error
	for _, v := range voices {
		if err := v.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close voice '%s': %w", v.name, err)
		}
	}
	// The Oto context is global and shared, so we don't close it here.
	return firstErr
}

// otoOutput renders one sample through an oto player over a seekable reader.
type otoOutput struct {
	player *oto.Player
}

func (o *otoOutput) start() {
	o.rewind()
	o.player.Play()
}

func (o *otoOutput) halt() {
	o.player.Pause()
	o.rewind()
}

func (o *otoOutput) rewind() {
	// Seek also drops frames already buffered by the player.
	_, _ = o.player.Seek(0, io.SeekStart)
}

func (o *otoOutput) setGain(g float64) {
	o.player.SetVolume(g)
}

func (o *otoOutput) active() bool {
	return o.player.IsPlaying()
}

func (o *otoOutput) close() error {
	if err := o.player.Err(); err != nil {
		return fmt.Errorf("oto player error: %w", err)
	}
	return o.player.Close()
}
