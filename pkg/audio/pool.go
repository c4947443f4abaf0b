package audio

import (
	"sync"

	"github.com/rs/zerolog"
)

// pool tracks sounding voices in start order and enforces the polyphony
// ceiling by stopping the oldest voice when a new one would exceed it.
type pool struct {
	mu     sync.Mutex
	max    int
	voices []*voice
	log    zerolog.Logger
}

func newPool(max int, log zerolog.Logger) *pool {
	if max <= 0 {
		max = DefaultPolyphony
	}
	return &pool{max: max, log: log}
}

func (p *pool) setMax(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.max = n
	victims := p.overflowLocked()
	p.mu.Unlock()
	p.steal(victims)
}

// acquire moves v to the newest slot.
func (p *pool) acquire(v *voice) {
	p.mu.Lock()
	p.removeLocked(v)
	p.pruneLocked()
	p.voices = append(p.voices, v)
	victims := p.overflowLocked()
	p.mu.Unlock()
	p.steal(victims)
}

func (p *pool) release(v *voice) {
	p.mu.Lock()
	p.removeLocked(v)
	p.mu.Unlock()
}

// active returns the number of voices currently holding a slot.
func (p *pool) active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	return len(p.voices)
}

func (p *pool) removeLocked(v *voice) {
	for i, other := range p.voices {
		if other == v {
			p.voices = append(p.voices[:i], p.voices[i+1:]...)
			return
		}
	}
}

// pruneLocked drops voices whose sample ran out on its own.
func (p *pool) pruneLocked() {
	kept := p.voices[:0]
	for _, v := range p.voices {
		if v.sounding() {
			kept = append(kept, v)
		}
	}
	p.voices = kept
}

func (p *pool) overflowLocked() []*voice {
	if len(p.voices) <= p.max {
		return nil
	}
	n := len(p.voices) - p.max
	victims := make([]*voice, n)
	copy(victims, p.voices[:n])
	p.voices = append(p.voices[:0], p.voices[n:]...)
	return victims
}

func (p *pool) steal(victims []*voice) {
	for _, v := range victims {
		p.log.Debug().Str("voice", v.name).Int("polyphony", p.max).Msg("Polyphony exceeded, stealing oldest voice")
		v.Stop()
	}
}
