package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/glebovdev/quran-radio/internal/resolver"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/hlog"
	"github.com/samber/lo"
)

// mirrorFailure describes one failed audio-stream attempt.
type mirrorFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// upstream is an open audio response whose body has not been read yet.
type upstream struct {
	resp   *resty.Response
	cancel context.CancelFunc
}

func (u *upstream) Close() {
	u.resp.RawBody().Close()
	u.cancel()
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	reciterID, ok := s.recitationParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "reciter must be a numeric recitation id")
		return
	}
	surah, ok := surahParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "surah must be between 1 and 114")
		return
	}

	file, err := s.catalog.GetChapterAudio(r.Context(), reciterID, surah)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeData(w, file)
}

// handleAudioStream streams a whole surah from the first source that answers.
// The reciter's own file is tried first, then each mirror, each with its own
// timeout until the response headers arrive.
func (s *Server) handleAudioStream(w http.ResponseWriter, r *http.Request) {
	reciterID, ok := s.recitationParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "reciter must be a numeric recitation id")
		return
	}
	surah, ok := surahParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "surah must be between 1 and 114")
		return
	}

	var candidates []string
	if file, err := s.catalog.GetChapterAudio(r.Context(), reciterID, surah); err == nil {
		candidates = append(candidates, file.URL)
	} else {
		hlog.FromRequest(r).Debug().Err(err).Str("reciter", reciterID).Msg("No reciter audio, using mirrors")
	}
	for _, m := range s.mirrors {
		candidates = append(candidates, mirrorURL(m, surah))
	}
	candidates = lo.Uniq(lo.Compact(candidates))

	var failures []mirrorFailure
	for _, candidate := range candidates {
		up, err := s.open(r, candidate)
		if err != nil {
			metrics.MirrorAttempts.WithLabelValues("error").Inc()
			hlog.FromRequest(r).Debug().Err(err).Str("url", candidate).Msg("Mirror failed")
			failures = append(failures, mirrorFailure{URL: candidate, Error: err.Error()})
			if r.Context().Err() != nil {
				return
			}
			continue
		}
		metrics.MirrorAttempts.WithLabelValues("ok").Inc()
		s.relay(w, r, up)
		return
	}

	hlog.FromRequest(r).Warn().Int("surah", surah).Int("attempts", len(failures)).Msg("All audio mirrors failed")
	writeJSON(w, http.StatusServiceUnavailable, envelope{
		Status:  statusError,
		Message: fmt.Sprintf("no mirror could serve surah %d", surah),
		Details: failures,
	})
}

// handleAudioProxy relays an audio URL from an allowed CDN.
func (s *Server) handleAudioProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	target, err := url.Parse(raw)
	if raw == "" || err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}
	if !s.allowedHosts[target.Host] {
		writeError(w, http.StatusBadRequest, "host not allowed: "+target.Host)
		return
	}

	up, err := s.open(r, target.String())
	if err != nil {
		code := http.StatusServiceUnavailable
		var statusErr *upstreamStatusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			code = http.StatusNotFound
		}
		hlog.FromRequest(r).Warn().Err(err).Str("url", raw).Msg("Proxy fetch failed")
		writeError(w, code, err.Error())
		return
	}
	s.relay(w, r, up)
}

// handleQuranAudio resolves the audio URL of one verse, given either its
// absolute number or its surah and ayah.
func (s *Server) handleQuranAudio(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ref, err := verseRef(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	edition := query.Get("reciter")
	if edition == "" {
		edition = s.edition
	}
	q := quran.ParseQuality(query.Get("quality"))

	var extra []string
	if s.texts != nil {
		if ayah, err := s.texts.GetAyah(r.Context(), ref.Number, edition); err == nil {
			extra = lo.Map(append([]string{ayah.Audio}, ayah.AudioSecondary...), func(u string, _ int) string {
				return quran.WithQuality(u, q)
			})
		}
	}

	audioURL, err := s.resolver.Resolve(r.Context(), edition, ref, q, extra...)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	writeData(w, map[string]interface{}{
		"url":     audioURL,
		"number":  ref.Number,
		"surah":   ref.Surah,
		"ayah":    ref.Ayah,
		"reciter": edition,
		"quality": q,
	})
}

func verseRef(query url.Values) (resolver.VerseRef, error) {
	if n := query.Get("number"); n != "" {
		number, err := strconv.Atoi(n)
		if err != nil {
			return resolver.VerseRef{}, fmt.Errorf("number must be an integer")
		}
		surah, ayah, ok := quran.SplitAbsolute(number)
		if !ok {
			return resolver.VerseRef{}, fmt.Errorf("number must be between 1 and %d", quran.AyahCount)
		}
		return resolver.VerseRef{Number: number, Surah: surah, Ayah: ayah}, nil
	}

	surah, errS := strconv.Atoi(query.Get("surah"))
	ayah, errA := strconv.Atoi(query.Get("ayah"))
	if errS != nil || errA != nil {
		return resolver.VerseRef{}, fmt.Errorf("number or surah and ayah are required")
	}
	number, ok := quran.AbsoluteNumber(surah, ayah)
	if !ok {
		return resolver.VerseRef{}, fmt.Errorf("verse %d:%d does not exist", surah, ayah)
	}
	return resolver.VerseRef{Number: number, Surah: surah, Ayah: ayah}, nil
}

type upstreamStatusError struct {
	code   int
	status string
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.code, e.status)
}

// open starts a GET for an audio URL. The mirror timeout only covers the wait
// for response headers; the body may stream for as long as the client reads.
func (s *Server) open(r *http.Request, target string) (*upstream, error) {
	ctx, cancel := context.WithCancel(r.Context())
	timer := time.AfterFunc(s.mirrorTimeout, cancel)

	req := s.client.R().SetContext(ctx)
	if rng := r.Header.Get("Range"); rng != "" {
		req.SetHeader("Range", rng)
	}
	resp, err := req.Get(target)
	if !timer.Stop() && err == nil {
		err = fmt.Errorf("timed out after %s", s.mirrorTimeout)
	}
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		cancel()
		return nil, err
	}

	up := &upstream{resp: resp, cancel: cancel}
	if !resp.IsSuccess() {
		up.Close()
		return nil, &upstreamStatusError{code: resp.StatusCode(), status: resp.Status()}
	}
	if ct := resp.Header().Get("Content-Type"); !isAudio(ct) {
		up.Close()
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}
	return up, nil
}

func isAudio(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "application/octet-stream")
}

// relay copies an open upstream response to the client.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, up *upstream) {
	defer up.Close()

	for _, h := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := up.resp.Header().Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(up.resp.StatusCode())

	if _, err := io.Copy(w, up.resp.RawBody()); err != nil && r.Context().Err() == nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Audio relay interrupted")
	}
}
