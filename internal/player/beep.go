package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSampleRate   = beep.SampleRate(44100)
	SpeakerBufferSize   = time.Millisecond * 250
	ResampleQuality     = 4
	VolumeCurveExponent = 0.5
	MinVolumeDB         = -10.0
	ReadTimeout         = 10 * time.Second
	ConnectTimeout      = 15 * time.Second
)

// Relies on context cancellation to clean up the spawned read goroutine.
type contextReader struct {
	reader  io.Reader
	ctx     context.Context
	timeout time.Duration
}

func (cr *contextReader) Read(p []byte) (n int, err error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}

	timer := time.NewTimer(cr.timeout)
	defer timer.Stop()

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	go func() {
		n, err := cr.reader.Read(p)
		select {
		case done <- result{n, err}:
		case <-cr.ctx.Done():
		}
	}()

	select {
	case res := <-done:
		return res.n, res.err
	case <-timer.C:
		return 0, fmt.Errorf("read timeout: no data received for %v", cr.timeout)
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

type httpStatusError struct {
	StatusCode int
	Status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("source returned status %d: %s", e.StatusCode, e.Status)
}

// BeepPort plays one mp3 source at a time through the system speaker.
type BeepPort struct {
	client *resty.Client

	mu            sync.Mutex
	url           string
	gen           uint64
	paused        bool
	speakerInit   bool
	volumePercent int
	cancel        context.CancelFunc
	streamer      beep.StreamSeekCloser
	format        beep.Format
	volume        *effects.Volume
	ctrl          *beep.Ctrl
	onEnded       func()
	onError       func(error)
}

func NewBeepPort() *BeepPort {
	return &BeepPort{
		client: resty.New().
			SetTimeout(0). // No overall timeout, sources are long downloads
			SetTransport(&http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: ConnectTimeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				DisableCompression:    true,
			}).
			SetHeader("User-Agent", fmt.Sprintf("QuranRadio/%s", config.AppVersion)),
		volumePercent: -1,
	}
}

func (p *BeepPort) initSpeaker() error {
	if p.speakerInit {
		return nil
	}
	if err := speaker.Init(DefaultSampleRate, DefaultSampleRate.N(SpeakerBufferSize)); err != nil {
		return fmt.Errorf("%w: failed to initialize speaker: %v", ErrPlaybackBlocked, err)
	}
	p.speakerInit = true
	log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", DefaultSampleRate, SpeakerBufferSize)
	return nil
}

func (p *BeepPort) Load(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if url == p.url && p.ctrl != nil {
		return nil
	}
	p.teardownLocked()
	p.url = url
	return nil
}

// Play resumes the decoded source or starts fetching it.
func (p *BeepPort) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url == "" {
		return fmt.Errorf("no source loaded")
	}
	if err := p.initSpeaker(); err != nil {
		return err
	}

	p.paused = false
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}
	if p.cancel != nil {
		// Still connecting; the stream starts unpaused.
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.stream(ctx, p.gen, p.url)
	return nil
}

func (p *BeepPort) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Rewind drops the decoded stream; the next Play fetches from the start.
func (p *BeepPort) Rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
}

func (p *BeepPort) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
	p.url = ""
}

func (p *BeepPort) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos)
}

func (p *BeepPort) OnEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

func (p *BeepPort) OnError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

func (p *BeepPort) SetVolume(volumePercent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volumePercent = volumePercent

	if p.volume == nil {
		log.Debug().Msgf("Volume stored as %d%% (will be applied when playback starts)", volumePercent)
		return
	}

	volumeLevel := percentToExponent(float64(volumePercent))

	speaker.Lock()
	p.volume.Volume = volumeLevel
	p.volume.Silent = volumePercent == 0
	speaker.Unlock()

	log.Debug().Msgf("Volume set to %d%% (%.2f dB)", volumePercent, volumeLevel)
}

func percentToExponent(p float64) float64 {
	if p <= 0 {
		return MinVolumeDB
	}
	if p >= 100 {
		return 0
	}

	normalized := p / 100.0
	adjusted := math.Pow(normalized, VolumeCurveExponent)
	return (1.0 - adjusted) * MinVolumeDB
}

func (p *BeepPort) teardownLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
		p.volume = nil
	}
	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
}

func (p *BeepPort) stream(ctx context.Context, gen uint64, url string) {
	log.Debug().Msgf("Connecting to source: %s", url)

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		p.fail(gen, fmt.Errorf("failed to fetch source: %w", err))
		return
	}
	body := resp.RawBody()

	if !resp.IsSuccess() {
		body.Close()
		p.fail(gen, &httpStatusError{StatusCode: resp.StatusCode(), Status: resp.Status()})
		return
	}

	reader := readCloser{
		Reader: &contextReader{reader: body, ctx: ctx, timeout: ReadTimeout},
		Closer: body,
	}

	streamer, format, err := mp3.Decode(reader)
	if err != nil {
		body.Close()
		p.fail(gen, fmt.Errorf("failed to decode MP3 source: %w", err))
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		streamer.Close()
		return
	}

	var s beep.Streamer = streamer
	if format.SampleRate != DefaultSampleRate {
		s = beep.Resample(ResampleQuality, format.SampleRate, DefaultSampleRate, streamer)
	}

	volumePercent := p.volumePercent
	if volumePercent < 0 {
		volumePercent = config.DefaultVolume
	}
	p.volume = &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   percentToExponent(float64(volumePercent)),
		Silent:   volumePercent == 0,
	}
	p.ctrl = &beep.Ctrl{Streamer: p.volume, Paused: p.paused}
	p.streamer = streamer
	p.format = format
	p.mu.Unlock()

	// The callback runs with the speaker locked.
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		go p.finished(gen, streamer)
	})))

	log.Debug().Msgf("Playing %s (%d Hz)", url, format.SampleRate)
}

func (p *BeepPort) finished(gen uint64, streamer beep.StreamSeekCloser) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.ctrl = nil
	p.volume = nil
	p.streamer = nil
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	onEnded, onError := p.onEnded, p.onError
	p.mu.Unlock()

	err := streamer.Err()
	streamer.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Source decoding error")
		if onError != nil {
			onError(err)
		}
		return
	}
	if onEnded != nil {
		onEnded()
	}
}

func (p *BeepPort) fail(gen uint64, err error) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	onError := p.onError
	p.mu.Unlock()

	log.Warn().Err(err).Msg("Source failed")
	if onError != nil {
		onError(err)
	}
}

// Verify BeepPort implements Port at compile time.
var _ Port = (*BeepPort)(nil)
