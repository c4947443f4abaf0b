package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Op names a Voice method recorded by the StubBackend.
type Op string

const (
	OpPlay      Op = "play"
	OpStop      Op = "stop"
	OpSetVolume Op = "set_volume"
	OpFadeout   Op = "fadeout"
)

// Call is one recorded Voice invocation.
type Call struct {
	Path     string
	Op       Op
	Volume   float64
	Duration time.Duration
}

// StubBackend is a backend that logs and records every voice call without
// touching an audio device. Voices follow the same lifecycle, fade and
// polyphony rules as the oto backend.
type StubBackend struct {
	log    zerolog.Logger
	pool   *pool
	mu     sync.Mutex
	calls  []Call
	fail   map[string]error
	paths  []string
	voices []*stubVoice
}

// NewStubBackend creates a new StubBackend.
func NewStubBackend(log zerolog.Logger) *StubBackend {
	log = log.With().Str("backend", "stub").Logger()
	return &StubBackend{
		log:  log,
		pool: newPool(DefaultPolyphony, log),
		fail: make(map[string]error),
	}
}

// FailOn makes Load of path return an error wrapping ErrLoad.
func (b *StubBackend) FailOn(path string) {
	b.mu.Lock()
	b.fail[path] = fmt.Errorf("%w: %s: no such sample", ErrLoad, path)
	b.mu.Unlock()
}

// SetPolyphony sets the maximum number of simultaneously sounding voices.
func (b *StubBackend) SetPolyphony(n int) {
	b.pool.setMax(n)
	b.log.Debug().Int("polyphony", n).Msg("Set polyphony")
}

// Polyphony returns the current ceiling.
func (b *StubBackend) Polyphony() int {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	return b.pool.max
}

// Active returns the number of voices currently holding a polyphony slot.
func (b *StubBackend) Active() int {
	return b.pool.active()
}

// Load records path and returns a silent voice.
func (b *StubBackend) Load(path string) (Voice, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.fail[path]; ok {
		b.log.Debug().Str("path", path).Msg("Simulating load failure")
		return nil, err
	}
	v := &stubVoice{backend: b, path: path}
	v.voice = newVoice(path, &stubOutput{}, b.pool, b.log)
	b.paths = append(b.paths, path)
	b.voices = append(b.voices, v)
	b.log.Trace().Str("path", path).Msg("Simulating loading sample")
	return v, nil
}

// Loaded returns the paths loaded so far, in order.
func (b *StubBackend) Loaded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

// Calls returns a copy of the recorded calls.
func (b *StubBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsFor returns the recorded calls for one sample path.
func (b *StubBackend) CallsFor(path string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (b *StubBackend) Reset() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// Close stops every voice.
func (b *StubBackend) Close() error {
	b.log.Debug().Msg("Closing StubBackend")
	b.mu.Lock()
	voices := b.voices
	b.voices = nil
	b.mu.Unlock()
	for _, v := range voices {
		if err := v.voice.close(); err != nil {
			return err
		}
	}
	return nil
}

func (b *StubBackend) record(c Call) {
	b.mu.Lock()
	b.calls = append(b.calls, c)
	b.mu.Unlock()
}

// stubVoice records each call before delegating to the shared lifecycle.
type stubVoice struct {
	*voice
	backend *StubBackend
	path    string
}

func (v *stubVoice) Play() {
	v.backend.record(Call{Path: v.path, Op: OpPlay})
	v.voice.Play()
}

func (v *stubVoice) Stop() {
	v.backend.record(Call{Path: v.path, Op: OpStop})
	v.voice.Stop()
}

func (v *stubVoice) SetVolume(vol float64) {
	v.backend.record(Call{Path: v.path, Op: OpSetVolume, Volume: vol})
	v.voice.SetVolume(vol)
}

func (v *stubVoice) Fadeout(d time.Duration) {
	v.backend.record(Call{Path: v.path, Op: OpFadeout, Duration: d})
	v.voice.Fadeout(d)
}

// stubOutput plays forever until halted.
type stubOutput struct {
	mu      sync.Mutex
	playing bool
	gain    float64
}

func (o *stubOutput) start() {
	o.mu.Lock()
	o.playing = true
	o.mu.Unlock()
}

func (o *stubOutput) halt() {
	o.mu.Lock()
	o.playing = false
	o.mu.Unlock()
}

func (o *stubOutput) setGain(g float64) {
	o.mu.Lock()
	o.gain = g
	o.mu.Unlock()
}

func (o *stubOutput) active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *stubOutput) close() error { return nil }
