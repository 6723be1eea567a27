package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPercentToExponent(t *testing.T) {
	tests := []struct {
		percent  float64
		expected float64
	}{
		{0, MinVolumeDB},
		{100, 0},
		{-10, MinVolumeDB},
		{150, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("percent_%v", tt.percent), func(t *testing.T) {
			result := percentToExponent(tt.percent)
			if result != tt.expected {
				t.Errorf("percentToExponent(%v) = %v, want %v", tt.percent, result, tt.expected)
			}
		})
	}
}

func TestPercentToExponentCurve(t *testing.T) {
	p25 := percentToExponent(25)
	p50 := percentToExponent(50)
	p75 := percentToExponent(75)

	if p25 >= p50 || p50 >= p75 {
		t.Error("Volume curve should be monotonically increasing")
	}

	if p25 <= MinVolumeDB || p75 >= 0 {
		t.Error("Mid-range volumes should be between min and max")
	}
}

func TestPlayerStateString(t *testing.T) {
	tests := []struct {
		state    PlayerState
		expected string
	}{
		{StateIdle, "IDLE"},
		{StateLoading, "LOADING"},
		{StatePlaying, "PLAYING"},
		{StatePaused, "PAUSED"},
		{StateRetrying, "RETRYING"},
		{StateError, "ERROR"},
		{PlayerState(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.state.String()
			if result != tt.expected {
				t.Errorf("PlayerState(%d).String() = %q, want %q", tt.state, result, tt.expected)
			}
		})
	}
}

func TestContextReader(t *testing.T) {
	t.Run("successful read", func(t *testing.T) {
		cr := &contextReader{reader: strings.NewReader("test data"), ctx: context.Background(), timeout: time.Second}

		buf := make([]byte, 100)
		n, err := cr.Read(buf)

		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if string(buf[:n]) != "test data" {
			t.Errorf("Data = %q, want 'test data'", string(buf[:n]))
		}
	})

	t.Run("timeout", func(t *testing.T) {
		cr := &contextReader{reader: &blockingReader{}, ctx: context.Background(), timeout: 10 * time.Millisecond}

		_, err := cr.Read(make([]byte, 100))

		if err == nil || !strings.Contains(err.Error(), "timeout") {
			t.Errorf("Error = %v, expected a timeout", err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cr := &contextReader{reader: &blockingReader{}, ctx: ctx, timeout: time.Hour}
		cancel()

		_, err := cr.Read(make([]byte, 100))

		if !errors.Is(err, context.Canceled) {
			t.Errorf("Error = %v, expected context.Canceled", err)
		}
	})
}

type blockingReader struct{}

func (b *blockingReader) Read(p []byte) (int, error) {
	time.Sleep(time.Hour)
	return 0, nil
}

func TestBeepPortPlayWithoutSource(t *testing.T) {
	p := NewBeepPort()

	if err := p.Play(); err == nil {
		t.Error("Play() without a loaded source should fail")
	}
	if p.Position() != 0 {
		t.Error("Position() without a source should be zero")
	}
}

func TestBeepPortStreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewBeepPort()
	errCh := make(chan error, 1)
	p.OnError(func(err error) { errCh <- err })

	if err := p.Load(server.URL + "/1.mp3"); err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	gen := p.gen
	p.mu.Unlock()
	go p.stream(ctx, gen, server.URL+"/1.mp3")

	select {
	case err := <-errCh:
		var statusErr *httpStatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("error = %v, want a 404 status error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error handler not called")
	}
}

func TestBeepPortStaleStreamIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewBeepPort()
	called := make(chan struct{}, 1)
	p.OnError(func(error) { called <- struct{}{} })

	_ = p.Load(server.URL + "/old.mp3")
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	_ = p.Load(server.URL + "/new.mp3")

	p.stream(context.Background(), gen, server.URL+"/old.mp3")

	select {
	case <-called:
		t.Error("error of a replaced source should be ignored")
	case <-time.After(50 * time.Millisecond):
	}
}
