package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/glebovdev/quran-radio/internal/player"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	commandBufferSize = 64
	positionInterval  = 500 * time.Millisecond
)

// ErrStopped is returned by actions sent after Run has returned.
var ErrStopped = errors.New("controller stopped")

// Element is the part of player.Element the controller drives.
type Element interface {
	Play(url string) error
	Pause()
	Stop()
	Unload()
	Position() time.Duration
	OnEnded(func(url string))
	OnFailed(func(url string, err error))
	URL() string
}

type command func(c *Controller)

// Controller is the single owner of the player state. Every mutation runs as
// a command on the goroutine executing Run; other goroutines read snapshots
// through State and Subscribe.
type Controller struct {
	id      string
	seq     *Sequencer
	element Element

	cmds chan command
	done chan struct{}

	// Owned by the Run goroutine.
	activeURL     string
	activePlaying bool
	// The track last reported as started, and whether it has been reported
	// since it last ended.
	startedStation string
	startedIndex   int
	announced      bool
	pending        *TrackChange

	mu       sync.RWMutex
	snapshot State
	subs     []*Subscription
	stopOnce sync.Once
}

type Option func(*Controller)

// WithSequencer replaces the default sequencer, e.g. to seed shuffling.
func WithSequencer(s *Sequencer) Option {
	return func(c *Controller) { c.seq = s }
}

// NewController creates a controller driving element. Run must be called for
// any action to take effect.
func NewController(element Element, q quran.Quality, opts ...Option) *Controller {
	c := &Controller{
		id:      uuid.NewString(),
		seq:     NewSequencer(q, nil),
		element: element,
		cmds:    make(chan command, commandBufferSize),
		done:    make(chan struct{}),

		startedIndex: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.snapshot = c.seq.Snapshot()

	element.OnEnded(func(url string) {
		c.post(func(c *Controller) { c.trackEnded(url) })
	})
	element.OnFailed(func(url string, err error) {
		c.post(func(c *Controller) { c.trackFailed(url, err) })
	})
	return c
}

// ID identifies this controller in logs.
func (c *Controller) ID() string {
	return c.id
}

// Run processes commands until ctx is cancelled, then releases the element.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	log.Debug().Str("controller", c.id).Msg("Player controller started")

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case cmd := <-c.cmds:
			cmd(c)
			c.reconcile()
			c.publish()
		case <-ticker.C:
			if c.activePlaying {
				pos := c.element.Position()
				c.mu.Lock()
				c.snapshot.CurrentTime = pos
				c.mu.Unlock()
			}
		}
	}
}

func (c *Controller) shutdown() {
	c.stopOnce.Do(func() {
		c.element.Unload()
		c.activeURL = ""
		c.activePlaying = false
		c.seq.Pause()

		c.mu.Lock()
		c.snapshot = c.seq.Snapshot()
		subs := c.subs
		c.subs = nil
		c.mu.Unlock()

		close(c.done)
		for _, s := range subs {
			s.close()
		}
		log.Debug().Str("controller", c.id).Msg("Player controller stopped")
	})
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// post queues a command without waiting. Commands posted after shutdown are
// dropped.
func (c *Controller) post(cmd command) {
	select {
	case c.cmds <- cmd:
	case <-c.done:
	}
}

// do queues a command and waits until it ran.
func (c *Controller) do(cmd command) error {
	ran := make(chan struct{})
	wrapped := func(c *Controller) {
		cmd(c)
		close(ran)
	}
	select {
	case c.cmds <- wrapped:
	case <-c.done:
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// State returns the latest snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Subscribe returns channels receiving every state, track and error change.
func (c *Controller) Subscribe() *Subscription {
	s := newSubscription()
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		s.close()
	default:
		c.subs = append(c.subs, s)
	}
	return s
}

// SetStation replaces the playlist and parks at its first track. With
// autoplay the first track starts immediately.
func (c *Controller) SetStation(stationID string, p quran.Playlist, autoplay bool) error {
	return c.do(func(c *Controller) {
		c.element.Unload()
		c.activeURL = ""
		c.activePlaying = false
		c.announced = false
		c.startedStation, c.startedIndex = "", -1
		c.seq.SetPlaylist(stationID, p)
		if autoplay {
			c.seq.Play()
		}
		log.Info().Str("station", stationID).Int("tracks", len(p)).Msg("Station loaded")
	})
}

func (c *Controller) Play() error {
	return c.do(func(c *Controller) {
		c.seq.Play()
	})
}

func (c *Controller) Pause() error {
	return c.do(func(c *Controller) {
		c.seq.Pause()
	})
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay() error {
	return c.do(func(c *Controller) {
		if c.seq.Playing() {
			c.seq.Pause()
		} else {
			c.seq.Play()
		}
	})
}

// Stop pauses and rewinds the current track to its start.
func (c *Controller) Stop() error {
	return c.do(func(c *Controller) {
		c.seq.Pause()
		if c.activeURL != "" {
			c.element.Stop()
			c.activePlaying = false
		}
	})
}

// SetTrackIndex jumps to index. Playback continues on the new track if it was
// running.
func (c *Controller) SetTrackIndex(index int) error {
	var ok bool
	err := c.do(func(c *Controller) {
		ok = c.seq.SetIndex(index)
	})
	if err == nil && !ok {
		return fmt.Errorf("track index %d out of range", index)
	}
	return err
}

func (c *Controller) NextTrack() error {
	return c.do(func(c *Controller) { c.seq.Next() })
}

func (c *Controller) PrevTrack() error {
	return c.do(func(c *Controller) { c.seq.Prev() })
}

func (c *Controller) ToggleLoop() error {
	return c.do(func(c *Controller) { c.seq.ToggleLoop() })
}

func (c *Controller) ToggleShuffle() error {
	return c.do(func(c *Controller) { c.seq.ToggleShuffle() })
}

// SetAutoAdvance controls whether the next track starts when one ends.
func (c *Controller) SetAutoAdvance(on bool) error {
	return c.do(func(c *Controller) { c.seq.SetAutoAdvance(on) })
}

func (c *Controller) SetLoop(on bool) error {
	return c.do(func(c *Controller) { c.seq.SetLoop(on) })
}

func (c *Controller) SetShuffle(on bool) error {
	return c.do(func(c *Controller) { c.seq.SetShuffle(on) })
}

// SetQuality switches the bitrate. A playing track is reloaded from its start
// at the new bitrate; the index does not change.
func (c *Controller) SetQuality(q quran.Quality) error {
	return c.do(func(c *Controller) {
		if c.seq.SetQuality(q) {
			log.Info().Str("quality", q.String()).Msg("Quality changed")
		}
	})
}

func (c *Controller) trackEnded(url string) {
	if url == "" || url != c.activeURL {
		return
	}
	c.activePlaying = false
	c.announced = false
	c.seq.Ended()
}

func (c *Controller) trackFailed(url string, err error) {
	if url == "" || url != c.activeURL {
		return
	}
	c.activePlaying = false

	if errors.Is(err, player.ErrPlaybackBlocked) {
		c.seq.Block(err.Error())
		return
	}

	metrics.TrackFailures.WithLabelValues("playback").Inc()
	c.markFailed(err.Error())
}

func (c *Controller) markFailed(reason string) {
	index := c.seq.Index()
	track, _ := c.seq.Current()
	log.Warn().Int("index", index).Str("track", track.DisplayTitle()).Str("reason", reason).Msg("Skipping track")
	c.seq.Fail(index, reason)

	c.mu.RLock()
	subs := c.subs
	c.mu.RUnlock()
	for _, s := range subs {
		s.sendError(TrackError{Index: index, Track: track, Err: reason})
	}
}

// reconcile drives the element towards the sequencer state. Only one source
// is active at a time; element.Play pauses the previous one before loading.
func (c *Controller) reconcile() {
	for attempts := 0; attempts <= c.seq.Len(); attempts++ {
		if !c.seq.Playing() {
			if c.seq.Len() == 0 && c.activeURL != "" {
				c.element.Unload()
				c.activeURL = ""
			}
			if c.activePlaying {
				c.element.Pause()
				c.activePlaying = false
			}
			return
		}

		url := c.seq.CurrentURL()
		if url == "" {
			metrics.TrackFailures.WithLabelValues("no_source").Inc()
			c.markFailed("no audio source")
			continue
		}

		if url == c.activeURL && c.activePlaying {
			return
		}

		err := c.element.Play(url)
		c.activeURL = url
		switch {
		case err == nil:
			c.activePlaying = true
			c.announceStart()
			return
		case errors.Is(err, player.ErrPlaybackBlocked):
			c.activePlaying = false
			c.seq.Block("playback blocked, press play to start")
			log.Info().Str("url", url).Msg("Playback blocked, waiting for user")
			return
		default:
			c.activePlaying = false
			metrics.TrackFailures.WithLabelValues("load").Inc()
			c.markFailed(err.Error())
		}
	}
}

// announceStart queues a TrackChange for the track that just became the
// active source. Resuming, or reloading the same track at another quality, is
// not a change.
func (c *Controller) announceStart() {
	station, index := c.seq.StationID(), c.seq.Index()
	if c.announced && station == c.startedStation && index == c.startedIndex {
		return
	}
	previous := -1
	if station == c.startedStation {
		previous = c.startedIndex
	}
	track, _ := c.seq.Current()
	c.pending = &TrackChange{
		StationID:     station,
		PreviousIndex: previous,
		Index:         index,
		Track:         track,
	}
	c.startedStation, c.startedIndex = station, index
	c.announced = true
}

func (c *Controller) publish() {
	next := c.seq.Snapshot()
	if c.activePlaying {
		next.CurrentTime = c.element.Position()
	}

	c.mu.Lock()
	c.snapshot = next
	subs := c.subs
	c.mu.Unlock()

	started := c.pending
	c.pending = nil

	for _, s := range subs {
		s.sendState(next)
		if started != nil {
			s.sendTrack(*started)
		}
	}
}
