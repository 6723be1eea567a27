package radio

import (
	"time"

	"github.com/glebovdev/quran-radio/internal/quran"
)

// Status is the coarse playback state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoaded
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusLoaded:
		return "LOADED"
	case StatusPlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// State is a snapshot of the player. Snapshots are copies and safe to keep.
type State struct {
	Status      Status
	IsPlaying   bool
	StationID   string
	TrackIndex  int
	CurrentTime time.Duration
	Playlist    quran.Playlist
	Loop        bool
	Shuffle     bool
	Quality     quran.Quality
	Blocked     bool
	Errors      map[int]string
	LastError   string
}

// Current returns the track at TrackIndex.
func (s State) Current() (quran.Track, bool) {
	if s.TrackIndex < 0 || s.TrackIndex >= len(s.Playlist) {
		return quran.Track{}, false
	}
	return s.Playlist[s.TrackIndex], true
}

// TrackChange is published when a track starts playing. PreviousIndex is the
// track started before it on the same station, or -1.
type TrackChange struct {
	StationID     string
	PreviousIndex int
	Index         int
	Track         quran.Track
}

// TrackError is published when a track is marked as failed.
type TrackError struct {
	Index int
	Track quran.Track
	Err   string
}
