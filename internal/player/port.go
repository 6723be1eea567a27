// Package player wraps a single audio playback handle and retries transient
// failures of the loaded source.
package player

import (
	"errors"
	"time"
)

// ErrPlaybackBlocked is returned by Play when the output refuses to start
// without user action. It is a recoverable state, not a source failure.
var ErrPlaybackBlocked = errors.New("playback blocked")

// Port is the native playback handle. Implementations invoke the ended and
// error handlers from their own goroutines; registering a handler replaces the
// previous one.
type Port interface {
	Load(url string) error
	Play() error
	Pause()
	Rewind()
	Unload()
	Position() time.Duration
	OnEnded(func())
	OnError(func(error))
}

type PlayerState int

const (
	StateIdle PlayerState = iota
	StateLoading
	StatePlaying
	StatePaused
	StateRetrying
	StateError
)

func (s PlayerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoading:
		return "LOADING"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateRetrying:
		return "RETRYING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
