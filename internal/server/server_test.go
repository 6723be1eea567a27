package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebovdev/quran-radio/internal/api"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	audio map[int]quran.AudioFile
	err   error
}

func (f *fakeCatalog) GetChapters(ctx context.Context) ([]quran.Chapter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []quran.Chapter{{ID: 1, NameSimple: "Al-Fatihah", VersesCount: 7}}, nil
}

func (f *fakeCatalog) GetJuzs(ctx context.Context) ([]quran.Juz, error) {
	return []quran.Juz{{ID: 30, JuzNumber: 30}}, f.err
}

func (f *fakeCatalog) GetRecitations(ctx context.Context) ([]quran.Reciter, error) {
	return []quran.Reciter{{ID: 7, ReciterName: "Mishari Rashid al-`Afasy"}}, f.err
}

func (f *fakeCatalog) GetChapterAudio(ctx context.Context, reciterID string, surah int) (quran.AudioFile, error) {
	file, ok := f.audio[surah]
	if !ok {
		return quran.AudioFile{}, &api.StatusError{Upstream: "qurancom", Code: http.StatusNotFound, Status: "404 Not Found"}
	}
	return file, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]quran.SearchResult, error) {
	return []quran.SearchResult{{VerseKey: "2:255", Text: query}}, f.err
}

type fakeTexts struct{}

func (fakeTexts) GetRuku(ctx context.Context, number int, edition string) ([]quran.Ayah, error) {
	return []quran.Ayah{{Number: 1, NumberInSurah: 1, Surah: quran.Surah{Number: 1}}}, nil
}

func (fakeTexts) GetAyah(ctx context.Context, number int, edition string) (quran.Ayah, error) {
	return quran.Ayah{Number: number, Audio: fmt.Sprintf("https://cdn.islamic.network/quran/audio/128/%s/%d.mp3", edition, number)}, nil
}

type fakeResolver struct {
	ref   resolver.VerseRef
	extra []string
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, edition string, ref resolver.VerseRef, q quran.Quality, extra ...string) (string, error) {
	f.ref = ref
	f.extra = extra
	if f.err != nil {
		return "", f.err
	}
	return extra[0], nil
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/good/"):
			w.Header().Set("Content-Type", "audio/mpeg")
			if r.Header.Get("Range") != "" {
				w.Header().Set("Content-Range", "bytes 0-3/4")
				w.WriteHeader(http.StatusPartialContent)
			}
			_, _ = io.WriteString(w, "ID3"+strings.TrimPrefix(r.URL.Path, "/good/"))
		case strings.HasPrefix(r.URL.Path, "/html/"):
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html></html>")
		case strings.HasPrefix(r.URL.Path, "/slow/"):
			time.Sleep(200 * time.Millisecond)
			w.Header().Set("Content-Type", "audio/mpeg")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})

	rec := serve(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCatalogEndpoints(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})

	for _, path := range []string{"/api/radio/chapters", "/api/radio/juzs", "/api/radio/reciters", "/api/radio/stations", "/api/radio/search?q=throne"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(s, http.MethodGet, path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, "success", body["status"])
			assert.NotNil(t, body["data"])
		})
	}
}

func TestUpstreamErrorEnvelope(t *testing.T) {
	s := New(&fakeCatalog{err: &api.StatusError{Upstream: "qurancom", Code: 502, Status: "502 Bad Gateway"}}, fakeTexts{}, &fakeResolver{})

	rec := serve(s, http.MethodGet, "/api/radio/chapters")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "502")
}

func TestSearchRequiresQuery(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})

	rec := serve(s, http.MethodGet, "/api/radio/search?q=%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

func TestRuku(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})

	tests := []struct {
		path string
		code int
	}{
		{"/api/ruku/1", http.StatusOK},
		{"/api/ruku/556", http.StatusOK},
		{"/api/ruku/0", http.StatusBadRequest},
		{"/api/ruku/557", http.StatusBadRequest},
		{"/api/ruku/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := serve(s, http.MethodGet, tt.path)
		assert.Equal(t, tt.code, rec.Code, tt.path)
	}
}

func TestAudio(t *testing.T) {
	catalog := &fakeCatalog{audio: map[int]quran.AudioFile{36: {SurahID: 36, URL: "https://download.quranicaudio.com/qdc/036.mp3"}}}
	s := New(catalog, fakeTexts{}, &fakeResolver{})

	rec := serve(s, http.MethodGet, "/api/radio/audio?reciter=7&surah=36")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "https://download.quranicaudio.com/qdc/036.mp3", data["audio_url"])

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/radio/audio?reciter=7&surah=2").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/radio/audio?reciter=7&surah=115").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/radio/audio?reciter=x&surah=1").Code)
}

func TestPreflight(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})

	for _, path := range []string{"/api/radio/audio", "/api/radio/audio-stream", "/api/radio/audio-proxy", "/api/quran-audio"} {
		rec := serve(s, http.MethodOptions, path)
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET", path)
	}
}

func TestAudioStreamFallsBackToNextMirror(t *testing.T) {
	up := newUpstream(t)
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{},
		WithMirrors([]string{up.URL + "/missing/{surah}.mp3", up.URL + "/html/{surah}.mp3", up.URL + "/good/{surah3}.mp3"}, time.Second))

	rec := serve(s, http.MethodGet, "/api/radio/audio-stream?surah=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ID3001.mp3", rec.Body.String())
}

func TestAudioStreamPrefersReciterFile(t *testing.T) {
	up := newUpstream(t)
	catalog := &fakeCatalog{audio: map[int]quran.AudioFile{18: {SurahID: 18, URL: up.URL + "/good/kahf.mp3"}}}
	s := New(catalog, fakeTexts{}, &fakeResolver{}, WithMirrors([]string{up.URL + "/good/{surah}.mp3"}, time.Second))

	rec := serve(s, http.MethodGet, "/api/radio/audio-stream?reciter=7&surah=18")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3kahf.mp3", rec.Body.String())
}

func TestAudioStreamForwardsRange(t *testing.T) {
	up := newUpstream(t)
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{}, WithMirrors([]string{up.URL + "/good/{surah}.mp3"}, time.Second))

	req := httptest.NewRequest(http.MethodGet, "/api/radio/audio-stream?surah=2", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-3/4", rec.Header().Get("Content-Range"))
}

func TestAudioStreamAllMirrorsFail(t *testing.T) {
	up := newUpstream(t)
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{},
		WithMirrors([]string{up.URL + "/missing/{surah}.mp3", up.URL + "/slow/{surah}.mp3"}, 50*time.Millisecond))

	rec := serve(s, http.MethodGet, "/api/radio/audio-stream?surah=67")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	details, ok := body["details"].([]interface{})
	require.True(t, ok, "details missing: %v", body)
	assert.Len(t, details, 2)
	first := details[0].(map[string]interface{})
	assert.Equal(t, up.URL+"/missing/67.mp3", first["url"])
	assert.Contains(t, first["error"], "404")
}

func TestAudioProxy(t *testing.T) {
	up := newUpstream(t)
	upURL, err := url.Parse(up.URL)
	require.NoError(t, err)
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{}, WithAllowedHosts(upURL.Host))

	rec := serve(s, http.MethodGet, "/api/radio/audio-proxy?url="+url.QueryEscape(up.URL+"/good/x.mp3"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3x.mp3", rec.Body.String())

	rec = serve(s, http.MethodGet, "/api/radio/audio-proxy?url="+url.QueryEscape(up.URL+"/missing/x.mp3"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/api/radio/audio-proxy?url="+url.QueryEscape("https://evil.example.com/x.mp3"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodGet, "/api/radio/audio-proxy?url="+url.QueryEscape("file:///etc/passwd"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuranAudio(t *testing.T) {
	res := &fakeResolver{}
	s := New(&fakeCatalog{}, fakeTexts{}, res)

	rec := serve(s, http.MethodGet, "/api/quran-audio?surah=2&ayah=255&quality=low")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, resolver.VerseRef{Number: 262, Surah: 2, Ayah: 255}, res.ref)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "https://cdn.islamic.network/quran/audio/64/ar.alafasy/262.mp3", data["url"])
	assert.Equal(t, "low", data["quality"])

	rec = serve(s, http.MethodGet, "/api/quran-audio?number=1&reciter=ar.husary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resolver.VerseRef{Number: 1, Surah: 1, Ayah: 1}, res.ref)
}

func TestQuranAudioErrors(t *testing.T) {
	res := &fakeResolver{err: fmt.Errorf("verse 7: %w", resolver.ErrNoSource)}
	s := New(&fakeCatalog{}, fakeTexts{}, res)

	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/api/quran-audio?number=7").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/quran-audio").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/quran-audio?number=6237").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, http.MethodGet, "/api/quran-audio?surah=1&ayah=8").Code)
}

func TestMirrorURL(t *testing.T) {
	assert.Equal(t, "https://server8.mp3quran.net/afs/007.mp3", mirrorURL("https://server8.mp3quran.net/afs/{surah3}.mp3", 7))
	assert.Equal(t, "https://cdn.example.com/114.mp3", mirrorURL("https://cdn.example.com/{surah}.mp3", 114))
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(&fakeCatalog{}, fakeTexts{}, &fakeResolver{})
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, http.MethodPost, "/api/radio/chapters").Code)
}
