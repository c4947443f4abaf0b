package audio

import (
	"errors"
	"time"
)

const (
	// SampleRate is the default output rate in samples per second
	SampleRate = 48000
	// ChannelCount represents stereo audio
	ChannelCount = 2
	// BitDepthInBytes represents 16-bit audio
	BitDepthInBytes = 2

	// DefaultPolyphony is the maximum number of voices sounding at once
	DefaultPolyphony = 32
	// FadeStep is the interval between gain updates during a fadeout
	FadeStep = 10 * time.Millisecond
)

// ErrLoad is wrapped by every error returned from Backend.Load.
var ErrLoad = errors.New("failed to load sample")

// VoiceState describes where a voice is in its playback lifecycle.
type VoiceState int

const (
	Idle VoiceState = iota
	Playing
	Fading
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Fading:
		return "fading"
	default:
		return "unknown"
	}
}

// Backend loads samples and enforces the polyphony ceiling.
type Backend interface {
	SetPolyphony(n int)
	Load(path string) (Voice, error)
	Close() error
}

// Voice is a loaded sample that can be played, stopped and faded out.
// Fadeout returns immediately; the ramp runs on the backend's own goroutine.
type Voice interface {
	Play()
	Stop()
	SetVolume(v float64)
	Volume() float64
	Fadeout(d time.Duration)
	State() VoiceState
}
