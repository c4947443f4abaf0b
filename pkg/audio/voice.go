package audio

import (
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/rs/zerolog"
)

// output is the device-facing half of a voice.
type output interface {
	start()            // restart playback from the first frame
	halt()             // silence immediately and rewind
	setGain(g float64) // apply playback gain in [0, 1]
	active() bool      // whether frames are still being rendered
	close() error
}

// voice implements the Voice lifecycle on top of an output. All state
// transitions happen under mu; the generation counter invalidates stale
// fade ramps so two ramps never act on the same voice.
type voice struct {
	mu     sync.Mutex
	name   string
	out    output
	pool   *pool
	log    zerolog.Logger
	state  VoiceState
	volume float64
	gain   float64 // last gain applied to out
	gen    uint64
	fader  *Fader
}

func newVoice(name string, out output, p *pool, log zerolog.Logger) *voice {
	return &voice{
		name:   name,
		out:    out,
		pool:   p,
		log:    log.With().Str("voice", name).Logger(),
		volume: 1.0,
		gain:   1.0,
	}
}

// cancelFadeLocked drops any in-flight ramp. Caller holds mu.
func (v *voice) cancelFadeLocked() {
	v.gen++
	if v.fader != nil {
		v.fader.Cancel()
		v.fader = nil
	}
}

func (v *voice) applyGainLocked(g float64) {
	v.gain = g
	v.out.setGain(g)
}

// Play restarts the sample from the beginning at the current volume.
func (v *voice) Play() {
	v.mu.Lock()
	v.cancelFadeLocked()
	v.out.halt()
	v.applyGainLocked(v.volume)
	v.out.start()
	v.state = Playing
	v.mu.Unlock()

	v.log.Trace().Float64("volume", v.volume).Msg("Voice started")
	v.pool.acquire(v)
}

// Stop halts playback immediately. Stopping an idle voice does nothing.
func (v *voice) Stop() {
	v.mu.Lock()
	v.cancelFadeLocked()
	if v.state == Idle {
		v.mu.Unlock()
		return
	}
	v.out.halt()
	v.state = Idle
	v.mu.Unlock()

	v.log.Trace().Msg("Voice stopped")
	v.pool.release(v)
}

// SetVolume stores the playback volume, clamped to [0, 1].
func (v *voice) SetVolume(vol float64) {
	vol = core.Clamp(vol, 0, 1)
	v.mu.Lock()
	v.volume = vol
	if v.state == Playing {
		v.applyGainLocked(vol)
	}
	v.mu.Unlock()
}

// Volume returns the last volume set, independent of any fade in progress.
func (v *voice) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

// Fadeout ramps the voice to silence over d and then releases it.
// A fadeout on an idle voice does nothing. A fadeout on a fading voice
// restarts the ramp from the current gain, never from the set volume.
func (v *voice) Fadeout(d time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancelFadeLocked()
	if v.state == Idle || !v.out.active() {
		v.state = Idle
		return
	}
	v.state = Fading
	gen := v.gen

	step := func(gain float64) bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.gen != gen {
			return false
		}
		v.applyGainLocked(gain)
		return true
	}
	finish := func() {
		v.mu.Lock()
		if v.gen != gen {
			v.mu.Unlock()
			return
		}
		v.out.halt()
		v.state = Idle
		v.fader = nil
		v.mu.Unlock()

		v.log.Trace().Msg("Fadeout finished")
		v.pool.release(v)
	}

	v.log.Trace().Dur("duration", d).Msg("Fadeout started")
	v.fader = StartFade(v.gain, d, step, finish)
}

// State reports the lifecycle state; a sample that ran to its end is idle.
func (v *voice) State() VoiceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != Idle && !v.out.active() {
		v.state = Idle
	}
	return v.state
}

// sounding reports whether the voice still occupies a polyphony slot.
func (v *voice) sounding() bool {
	return v.State() != Idle
}

func (v *voice) close() error {
	v.Stop()
	return v.out.close()
}
