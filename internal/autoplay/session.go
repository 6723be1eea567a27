package autoplay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/glebovdev/quran-radio/internal/playlist"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/radio"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const eventBufferSize = 64

// ErrNoVerses is returned when a section has no verse with playable audio.
var ErrNoVerses = errors.New("no playable verses")

type EventKind int

const (
	EventHighlight EventKind = iota
	EventVerseError
	EventBlocked
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventHighlight:
		return "highlight"
	case EventVerseError:
		return "verse-error"
	case EventBlocked:
		return "blocked"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event reports progress through a section. Index is the verse position in
// the section.
type Event struct {
	Kind  EventKind
	Index int
	Verse quran.Ayah
	Err   string
}

// Session plays one section verse by verse on a controller.
type Session struct {
	ctrl     *radio.Controller
	preparer *Preparer
	reciter  string

	events     chan Event
	finished   chan struct{}
	finishOnce sync.Once
	userPaused atomic.Bool

	mu      sync.Mutex
	section Section
}

func NewSession(ctrl *radio.Controller, p *Preparer, reciterID string) *Session {
	return &Session{
		ctrl:     ctrl,
		preparer: p,
		reciter:  reciterID,
		events:   make(chan Event, eventBufferSize),
		finished: make(chan struct{}),
	}
}

// Events delivers highlight and error notifications. The channel is closed
// when the controller stops.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Finished is closed once playback ran past the last verse.
func (s *Session) Finished() <-chan struct{} {
	return s.finished
}

// Start resolves every verse of section and plays from the verse at index
// from. Verses without audio are kept in place and skipped during playback.
func (s *Session) Start(ctx context.Context, section Section, from int) error {
	if len(section.Verses) == 0 {
		return fmt.Errorf("%s: %w", section.ID(), ErrNoVerses)
	}
	if from < 0 || from >= len(section.Verses) {
		return fmt.Errorf("start verse %d out of range for %s", from+1, section.ID())
	}

	resolutions := s.preparer.Prepare(ctx, section.Verses)
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, r := range resolutions {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("verse", section.Verses[i].Key()).Msg("No audio for verse")
		}
	}
	if lo.EveryBy(resolutions, func(r Resolution) bool { return r.Err != nil }) {
		return fmt.Errorf("%s: %w: %w", section.ID(), ErrNoVerses, resolver.ErrNoSource)
	}

	urls := lo.Map(resolutions, func(r Resolution, _ int) string { return r.URL })
	p := playlist.FromAyahs(s.reciter, section.Verses, urls)

	s.mu.Lock()
	s.section = section
	s.mu.Unlock()

	sub := s.ctrl.Subscribe()
	go s.watch(sub, section.ID())

	if err := s.ctrl.SetAutoAdvance(true); err != nil {
		return err
	}
	if err := s.ctrl.SetShuffle(false); err != nil {
		return err
	}
	if err := s.ctrl.SetLoop(false); err != nil {
		return err
	}
	if err := s.ctrl.SetStation(section.ID(), p, false); err != nil {
		return err
	}
	if err := s.ctrl.SetTrackIndex(from); err != nil {
		return err
	}

	log.Info().Str("section", section.ID()).Int("verses", len(p)).Int("from", from+1).Msg("Starting verse playback")
	return s.ctrl.Play()
}

// Pause holds playback without ending the session.
func (s *Session) Pause() error {
	s.userPaused.Store(true)
	return s.ctrl.Pause()
}

// Resume continues after Pause or a blocked start.
func (s *Session) Resume() error {
	s.userPaused.Store(false)
	return s.ctrl.Play()
}

// Wait blocks until the session finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.finished:
		return nil
	case <-s.ctrl.Done():
		return radio.ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) verse(index int) quran.Ayah {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.section.Verses) {
		return quran.Ayah{}
	}
	return s.section.Verses[index]
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Drop if buffer full
	}
}

// watch translates controller events for this section into session events.
// Events of a previously loaded station are ignored.
func (s *Session) watch(sub *radio.Subscription, sectionID string) {
	defer close(s.events)

	var started, blocked bool
	for {
		select {
		case <-sub.Done:
			return
		case change := <-sub.TrackChanged:
			if change.StationID != sectionID {
				continue
			}
			s.emit(Event{Kind: EventHighlight, Index: change.Index, Verse: s.verse(change.Index)})
		case failure := <-sub.TrackFailed:
			s.emit(Event{Kind: EventVerseError, Index: failure.Index, Verse: s.verse(failure.Index), Err: failure.Err})
		case state := <-sub.StateChanged:
			if state.StationID != sectionID {
				continue
			}
			if state.Blocked && !blocked {
				s.emit(Event{Kind: EventBlocked, Index: state.TrackIndex, Err: state.LastError})
			}
			blocked = state.Blocked

			if state.IsPlaying {
				started = true
				continue
			}
			if started && !state.Blocked && !s.userPaused.Load() {
				s.finishOnce.Do(func() {
					s.emit(Event{Kind: EventFinished, Index: state.TrackIndex})
					close(s.finished)
					log.Info().Str("section", state.StationID).Msg("Verse playback finished")
				})
			}
		}
	}
}
