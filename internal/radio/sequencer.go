// Package radio owns the shared player state: the playlist, the current track
// and the play, loop, shuffle and quality flags.
package radio

import (
	"math/rand/v2"

	"github.com/glebovdev/quran-radio/internal/quran"
)

// Sequencer is the playback state machine. It does no I/O and is not safe for
// concurrent use; the Controller owns one.
//
// The track index is always a valid index into the playlist, or 0 when the
// playlist is empty. With shuffle on, next and previous walk a permutation of
// the playlist instead of the playlist order.
type Sequencer struct {
	stationID string
	playlist  quran.Playlist
	order     []int
	pos       int
	playing   bool
	loop      bool
	shuffle   bool
	manual    bool
	blocked   bool
	quality   quran.Quality
	errors    map[int]string
	lastError string
	rng       *rand.Rand
}

// NewSequencer creates an idle sequencer. rng may be nil.
func NewSequencer(q quran.Quality, rng *rand.Rand) *Sequencer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sequencer{
		quality: quran.ParseQuality(string(q)),
		errors:  map[int]string{},
		rng:     rng,
	}
}

// SetPlaylist replaces the playlist wholesale and parks at index 0, paused.
func (s *Sequencer) SetPlaylist(stationID string, p quran.Playlist) {
	s.stationID = stationID
	s.playlist = p
	s.playing = false
	s.blocked = false
	s.errors = map[int]string{}
	s.lastError = ""
	s.pos = 0
	s.rebuildOrder(0)
}

// Play starts playback when a track exists at the current index.
func (s *Sequencer) Play() bool {
	if len(s.playlist) == 0 {
		return false
	}
	s.playing = true
	s.blocked = false
	return true
}

func (s *Sequencer) Pause() {
	s.playing = false
}

// Block records that the output refused to start; playback stays paused until
// the next explicit Play.
func (s *Sequencer) Block(reason string) {
	s.playing = false
	s.blocked = true
	s.lastError = reason
}

// Ended handles the natural end of the current track. With loop on, the last
// track wraps to the first; otherwise playback stops at the last track. With
// auto advance off, playback stops on the track that ended.
func (s *Sequencer) Ended() {
	if len(s.playlist) == 0 {
		return
	}
	if s.manual {
		s.playing = false
		return
	}
	s.advance()
}

func (s *Sequencer) advance() {
	last := s.pos == len(s.order)-1
	switch {
	case last && s.loop:
		s.pos = 0
	case !last:
		s.pos++
	default:
		s.playing = false
	}
}

// Fail marks the track at index as unplayable and moves on as if it ended,
// regardless of auto advance. Playback stops once every track has failed.
func (s *Sequencer) Fail(index int, reason string) {
	if index < 0 || index >= len(s.playlist) {
		return
	}
	s.errors[index] = reason
	s.lastError = reason
	if len(s.errors) >= len(s.playlist) {
		s.playing = false
		return
	}
	s.advance()
}

// Next moves one track forward. It is a no-op at the last track.
func (s *Sequencer) Next() bool {
	if s.pos+1 >= len(s.order) {
		return false
	}
	s.pos++
	return true
}

// Prev moves one track back. It is a no-op at the first track.
func (s *Sequencer) Prev() bool {
	if s.pos == 0 {
		return false
	}
	s.pos--
	return true
}

// SetIndex jumps to a playlist index. Out of range indexes are rejected.
func (s *Sequencer) SetIndex(index int) bool {
	if index < 0 || index >= len(s.playlist) {
		return false
	}
	for pos, i := range s.order {
		if i == index {
			s.pos = pos
			return true
		}
	}
	return false
}

func (s *Sequencer) ToggleLoop() bool {
	s.loop = !s.loop
	return s.loop
}

// SetAutoAdvance controls whether a finished track starts the next one.
func (s *Sequencer) SetAutoAdvance(on bool) {
	s.manual = !on
}

func (s *Sequencer) SetLoop(on bool) {
	s.loop = on
}

// ToggleShuffle switches between playlist order and a random order. The
// current track keeps playing in both cases.
func (s *Sequencer) ToggleShuffle() bool {
	s.SetShuffle(!s.shuffle)
	return s.shuffle
}

func (s *Sequencer) SetShuffle(on bool) {
	if on == s.shuffle {
		return
	}
	current := s.Index()
	s.shuffle = on
	s.rebuildOrder(current)
}

// SetQuality changes the bitrate used to load tracks. It reports whether the
// value changed; the index is left alone.
func (s *Sequencer) SetQuality(q quran.Quality) bool {
	q = quran.ParseQuality(string(q))
	if q == s.quality {
		return false
	}
	s.quality = q
	return true
}

// Index returns the playlist index of the current track.
func (s *Sequencer) Index() int {
	if len(s.order) == 0 {
		return 0
	}
	return s.order[s.pos]
}

// Current returns the current track.
func (s *Sequencer) Current() (quran.Track, bool) {
	if len(s.playlist) == 0 {
		return quran.Track{}, false
	}
	return s.playlist[s.Index()], true
}

// CurrentURL returns the URL of the current track at the selected quality.
func (s *Sequencer) CurrentURL() string {
	t, ok := s.Current()
	if !ok || t.URL == "" {
		return ""
	}
	return quran.WithQuality(t.URL, s.quality)
}

func (s *Sequencer) Playing() bool {
	return s.playing
}

func (s *Sequencer) Len() int {
	return len(s.playlist)
}

func (s *Sequencer) StationID() string {
	return s.stationID
}

func (s *Sequencer) Status() Status {
	switch {
	case len(s.playlist) == 0:
		return StatusIdle
	case s.playing:
		return StatusPlaying
	default:
		return StatusLoaded
	}
}

// Snapshot copies the state out of the sequencer.
func (s *Sequencer) Snapshot() State {
	errs := make(map[int]string, len(s.errors))
	for k, v := range s.errors {
		errs[k] = v
	}
	return State{
		Status:     s.Status(),
		IsPlaying:  s.playing,
		StationID:  s.stationID,
		TrackIndex: s.Index(),
		Playlist:   s.playlist,
		Loop:       s.loop,
		Shuffle:    s.shuffle,
		Quality:    s.quality,
		Blocked:    s.blocked,
		Errors:     errs,
		LastError:  s.lastError,
	}
}

// rebuildOrder recomputes the playback order and keeps current at the front
// of the shuffled part.
func (s *Sequencer) rebuildOrder(current int) {
	n := len(s.playlist)
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	if n == 0 {
		s.pos = 0
		return
	}
	if !s.shuffle {
		s.pos = current
		return
	}

	rest := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != current {
			rest = append(rest, i)
		}
	}
	s.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	s.order = append([]int{current}, rest...)
	s.pos = 0
}
