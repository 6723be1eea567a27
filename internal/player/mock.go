package player

import (
	"sync"
	"time"
)

// Mock is a scripted Port for tests.
type Mock struct {
	mu       sync.Mutex
	url      string
	playing  bool
	position time.Duration
	loads    []string
	plays    int
	rewinds  int
	playErr  error
	onEnded  func()
	onError  func(error)
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	m.playing = false
	m.position = 0
	m.loads = append(m.loads, url)
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

func (m *Mock) Rewind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewinds++
	m.position = 0
}

func (m *Mock) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = ""
	m.playing = false
	m.position = 0
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) OnEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

func (m *Mock) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Test helpers

// BlockPlay makes Play fail with ErrPlaybackBlocked until cleared.
func (m *Mock) BlockPlay(blocked bool) {
	if blocked {
		m.SetPlayError(ErrPlaybackBlocked)
	} else {
		m.SetPlayError(nil)
	}
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

// Finish simulates the loaded source playing to its end.
func (m *Mock) Finish() {
	m.mu.Lock()
	m.playing = false
	fn := m.onEnded
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Fail simulates a playback error of the loaded source.
func (m *Mock) Fail(err error) {
	m.mu.Lock()
	m.playing = false
	fn := m.onError
	m.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (m *Mock) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

func (m *Mock) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

func (m *Mock) Rewinds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rewinds
}

// Verify Mock implements Port at compile time.
var _ Port = (*Mock)(nil)
