package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 300 * time.Millisecond
)

// Element manages one Port. A failing source is retried in place a bounded
// number of times; after that the failure is reported through OnFailed and the
// caller decides what plays next.
type Element struct {
	port       Port
	maxRetries int
	backoff    time.Duration

	mu       sync.Mutex
	url      string
	state    PlayerState
	attempt  int
	gen      uint64
	timer    *time.Timer
	onEnded  func(url string)
	onFailed func(url string, err error)
}

type ElementOption func(*Element)

// WithRetries sets how often the same source is retried after an error.
func WithRetries(n int) ElementOption {
	return func(e *Element) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay; attempt k waits k times the base.
func WithBackoff(d time.Duration) ElementOption {
	return func(e *Element) {
		if d > 0 {
			e.backoff = d
		}
	}
}

// NewElement wraps port and registers its ended and error handlers.
func NewElement(port Port, opts ...ElementOption) *Element {
	e := &Element{
		port:       port,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	port.OnEnded(e.handleEnded)
	port.OnError(e.handleError)
	return e
}

// OnEnded sets the handler for a source that played to its end. The handler
// receives the source that ended, which may no longer be the loaded one.
func (e *Element) OnEnded(fn func(url string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = fn
}

// OnFailed sets the handler for a source that kept failing after all retries,
// or whose retry was blocked. It runs on its own goroutine, so a failure
// raised inside Play never calls back into Play's caller.
func (e *Element) OnFailed(fn func(url string, err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFailed = fn
}

// Play starts url. A different url than the loaded one replaces the source
// and resets the retry counter; the same url resumes. ErrPlaybackBlocked is
// returned to the caller and not retried.
func (e *Element) Play(url string) error {
	if url == "" {
		return fmt.Errorf("no source to play")
	}

	e.mu.Lock()
	if url != e.url {
		e.cancelRetryLocked()
		if e.url != "" {
			e.port.Pause()
		}
		if err := e.port.Load(url); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("failed to load %s: %w", url, err)
		}
		e.url = url
		e.attempt = 0
		e.gen++
		log.Debug().Str("url", url).Msg("Source loaded")
	}
	e.state = StateLoading
	err := e.port.Play()
	if err == nil {
		e.state = StatePlaying
	}
	e.mu.Unlock()

	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPlaybackBlocked) {
		e.setState(StatePaused)
		return err
	}
	e.handleError(err)
	return nil
}

// Pause halts playback, keeping the position.
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelRetryLocked()
	e.port.Pause()
	if e.url != "" {
		e.state = StatePaused
	}
}

// Stop halts playback and resets the position to zero.
func (e *Element) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelRetryLocked()
	e.port.Pause()
	e.port.Rewind()
	if e.url != "" {
		e.state = StatePaused
	}
}

// Unload releases the source. Pending retries are dropped.
func (e *Element) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelRetryLocked()
	e.gen++
	e.port.Unload()
	e.url = ""
	e.attempt = 0
	e.state = StateIdle
}

// URL returns the loaded source.
func (e *Element) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.url
}

func (e *Element) State() PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position returns the playback position of the loaded source.
func (e *Element) Position() time.Duration {
	return e.port.Position()
}

// GetRetryInfo returns the current attempt and the retry limit.
func (e *Element) GetRetryInfo() (current, max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempt, e.maxRetries
}

func (e *Element) setState(s PlayerState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func (e *Element) cancelRetryLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Element) handleEnded() {
	e.mu.Lock()
	if e.url == "" {
		e.mu.Unlock()
		return
	}
	url := e.url
	e.attempt = 0
	e.state = StatePaused
	fn := e.onEnded
	e.mu.Unlock()

	if fn != nil {
		fn(url)
	}
}

func (e *Element) handleError(err error) {
	e.mu.Lock()
	if e.url == "" {
		e.mu.Unlock()
		return
	}

	if e.attempt < e.maxRetries {
		e.attempt++
		delay := e.backoff * time.Duration(e.attempt)
		gen := e.gen
		e.state = StateRetrying
		e.cancelRetryLocked()
		e.timer = time.AfterFunc(delay, func() { e.retry(gen) })
		log.Warn().Err(err).Str("url", e.url).
			Msgf("Playback failed, retrying in %v... (%d/%d)", delay, e.attempt, e.maxRetries)
		e.mu.Unlock()
		metrics.ElementRetries.Inc()
		return
	}

	url := e.url
	e.state = StateError
	fn := e.onFailed
	e.mu.Unlock()

	log.Error().Err(err).Str("url", url).Msg("Playback failed after retries")
	if fn != nil {
		go fn(url, err)
	}
}

func (e *Element) retry(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.url == "" {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.port.Rewind()
	err := e.port.Play()
	if err == nil {
		e.state = StatePlaying
	}
	url := e.url
	fn := e.onFailed
	e.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, ErrPlaybackBlocked):
		e.setState(StatePaused)
		if fn != nil {
			go fn(url, err)
		}
	default:
		e.handleError(err)
	}
}
