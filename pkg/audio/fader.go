package audio

import (
	"sync"
	"time"
)

// Fader drives a linear gain ramp from a starting level to silence.
// Each step is reported through a callback that returns false once the
// ramp has been superseded, which ends the goroutine early.
type Fader struct {
	stopOnce sync.Once
	stopChan chan struct{}
}

// StartFade begins ramping from `from` to zero over d, calling step every
// FadeStep with the current gain. finish runs once the ramp reaches zero.
func StartFade(from float64, d time.Duration, step func(gain float64) bool, finish func()) *Fader {
	f := &Fader{
		stopChan: make(chan struct{}),
	}
	go f.run(from, d, step, finish)
	return f
}

// Cancel ends the ramp without calling finish.
func (f *Fader) Cancel() {
	f.stopOnce.Do(func() {
		close(f.stopChan)
	})
}

func (f *Fader) run(from float64, d time.Duration, step func(float64) bool, finish func()) {
	if d <= 0 {
		finish()
		return
	}

	ticker := time.NewTicker(FadeStep)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-f.stopChan:
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed >= d {
				if step(0) {
					finish()
				}
				return
			}
			gain := from * (1 - float64(elapsed)/float64(d))
			if !step(gain) {
				return
			}
		}
	}
}
