// Package server exposes the catalog and audio endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glebovdev/quran-radio/internal/config"
	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Catalog is the quran.com side of the API.
type Catalog interface {
	GetChapters(ctx context.Context) ([]quran.Chapter, error)
	GetJuzs(ctx context.Context) ([]quran.Juz, error)
	GetRecitations(ctx context.Context) ([]quran.Reciter, error)
	GetChapterAudio(ctx context.Context, reciterID string, surah int) (quran.AudioFile, error)
	Search(ctx context.Context, query string) ([]quran.SearchResult, error)
}

// Texts is the alquran.cloud side of the API.
type Texts interface {
	GetRuku(ctx context.Context, number int, edition string) ([]quran.Ayah, error)
	GetAyah(ctx context.Context, number int, edition string) (quran.Ayah, error)
}

// AudioResolver finds a working verse audio URL.
type AudioResolver interface {
	Resolve(ctx context.Context, edition string, ref resolver.VerseRef, q quran.Quality, extra ...string) (string, error)
}

// StationLister provides the station catalog.
type StationLister interface {
	GetCachedStations() []quran.Station
}

type Server struct {
	catalog  Catalog
	texts    Texts
	resolver AudioResolver
	stations StationLister

	edition       string
	recitationID  string
	mirrors       []string
	mirrorTimeout time.Duration
	allowedHosts  map[string]bool
	client        *resty.Client
	logger        zerolog.Logger
	handler       http.Handler
}

type Option func(*Server)

func WithStations(st StationLister) Option {
	return func(s *Server) { s.stations = st }
}

// WithMirrors sets the audio-stream mirror templates and the per-mirror timeout.
func WithMirrors(templates []string, timeout time.Duration) Option {
	return func(s *Server) {
		s.mirrors = templates
		if timeout > 0 {
			s.mirrorTimeout = timeout
		}
	}
}

// WithDefaults sets the verse edition and the quran.com recitation used when a
// request names none.
func WithDefaults(edition, recitationID string) Option {
	return func(s *Server) {
		if edition != "" {
			s.edition = edition
		}
		if recitationID != "" {
			s.recitationID = recitationID
		}
	}
}

// WithAllowedHosts adds hosts the audio proxy may fetch from.
func WithAllowedHosts(hosts ...string) Option {
	return func(s *Server) {
		for _, h := range hosts {
			s.allowedHosts[h] = true
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(catalog Catalog, texts Texts, res AudioResolver, opts ...Option) *Server {
	s := &Server{
		catalog:       catalog,
		texts:         texts,
		resolver:      res,
		edition:       config.DefaultReciter,
		recitationID:  "7",
		mirrorTimeout: config.DefaultMirrorTimeout,
		allowedHosts:  make(map[string]bool),
		client: resty.New().
			SetHeader("User-Agent", config.AppProjectShort+"/"+config.AppVersion).
			SetDoNotParseResponse(true),
		logger: log.Logger,
	}
	for _, h := range []string{
		resolver.DefaultHosts.Primary,
		resolver.DefaultHosts.Secondary,
		resolver.DefaultHosts.EveryAyah,
		resolver.DefaultHosts.QuranCDN,
		"https://download.quranicaudio.com",
	} {
		s.allowHost(h)
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, m := range s.mirrors {
		s.allowHost(mirrorURL(m, 1))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/radio/chapters", s.handleChapters)
	mux.HandleFunc("GET /api/radio/juzs", s.handleJuzs)
	mux.HandleFunc("GET /api/radio/reciters", s.handleReciters)
	mux.HandleFunc("GET /api/radio/stations", s.handleStations)
	mux.HandleFunc("GET /api/radio/search", s.handleSearch)
	mux.HandleFunc("GET /api/ruku/{number}", s.handleRuku)

	mux.HandleFunc("GET /api/radio/audio", cors(s.handleAudio))
	mux.HandleFunc("GET /api/radio/audio-stream", cors(s.handleAudioStream))
	mux.HandleFunc("GET /api/radio/audio-proxy", cors(s.handleAudioProxy))
	mux.HandleFunc("GET /api/quran-audio", cors(s.handleQuranAudio))
	for _, path := range []string{"/api/radio/audio", "/api/radio/audio-stream", "/api/radio/audio-proxy", "/api/quran-audio"} {
		mux.HandleFunc("OPTIONS "+path, handlePreflight)
	}

	s.handler = s.middleware(mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) allowHost(raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	s.allowedHosts[u.Host] = true
}

func (s *Server) middleware(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		metrics.Observe(r.Method, status, d)

		event := hlog.FromRequest(r).Info()
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			event = hlog.FromRequest(r).Debug()
		}
		event.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("Request served")
	})(next)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	return hlog.NewHandler(s.logger)(h)
}

// mirrorURL expands a mirror template for one surah.
func mirrorURL(template string, surah int) string {
	return strings.NewReplacer(
		"{surah3}", fmt.Sprintf("%03d", surah),
		"{surah}", strconv.Itoa(surah),
	).Replace(template)
}
