// Package resolver builds ranked audio source candidates for a verse and finds
// the first one that is reachable.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/glebovdev/quran-radio/internal/quran"
	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	defaultValidateTimeout = 8 * time.Second
	defaultCacheSize       = 2048
)

// ErrNoSource is returned when no candidate validates.
var ErrNoSource = errors.New("no working audio source")

// VerseRef identifies a verse. Number is the absolute ayah number; Surah and
// Ayah are optional and enable the surah/verse-keyed mirrors.
type VerseRef struct {
	Number int
	Surah  int
	Ayah   int
}

// Ref builds a complete reference from an absolute ayah number.
func Ref(number int) VerseRef {
	surah, ayah, _ := quran.SplitAbsolute(number)
	return VerseRef{Number: number, Surah: surah, Ayah: ayah}
}

func (v VerseRef) keyed() bool {
	return v.Surah > 0 && v.Ayah > 0
}

func (v VerseRef) absolute() int {
	if v.Number > 0 {
		return v.Number
	}
	n, _ := quran.AbsoluteNumber(v.Surah, v.Ayah)
	return n
}

func (v VerseRef) String() string {
	if v.keyed() {
		return fmt.Sprintf("%d (%d:%d)", v.absolute(), v.Surah, v.Ayah)
	}
	return fmt.Sprintf("%d", v.Number)
}

// Hosts are the base URLs of the CDNs, overridable for tests.
type Hosts struct {
	Primary   string
	Secondary string
	EveryAyah string
	QuranCDN  string
}

// DefaultHosts are the public CDNs.
var DefaultHosts = Hosts{
	Primary:   "https://cdn.islamic.network/quran/audio",
	Secondary: "https://cdn.alquran.cloud/media/audio/ayah",
	EveryAyah: "https://everyayah.com/data",
	QuranCDN:  "https://verses.quran.com",
}

// Candidates returns the ranked candidate URLs for a verse without touching the
// network: the two absolute-number CDNs first, then the surah/verse-keyed
// mirrors when the reference carries surah and ayah. Duplicates are removed.
func (h Hosts) Candidates(edition string, ref VerseRef, q quran.Quality) []string {
	var urls []string

	if n := ref.absolute(); n > 0 {
		urls = append(urls,
			fmt.Sprintf("%s/%d/%s/%d.mp3", h.Primary, q.Bitrate(), edition, n),
			fmt.Sprintf("%s/%s/%d", h.Secondary, edition, n),
		)
	}

	if ref.keyed() {
		if rc, ok := LookupReciter(edition); ok {
			file := fmt.Sprintf("%03d%03d.mp3", ref.Surah, ref.Ayah)
			urls = append(urls,
				fmt.Sprintf("%s/%s_%dkbps/%s", h.EveryAyah, rc.EveryAyah, q.Bitrate(), file),
				fmt.Sprintf("%s/%s/%s", h.QuranCDN, rc.QuranCDN, file),
				fmt.Sprintf("%s/%s_%dkbps/%s", h.EveryAyah, rc.EveryAyah, q.Other().Bitrate(), file),
			)
		}
	}

	return lo.Uniq(urls)
}

// Candidates uses DefaultHosts.
func Candidates(edition string, ref VerseRef, q quran.Quality) []string {
	return DefaultHosts.Candidates(edition, ref, q)
}

type cacheKey struct {
	edition string
	number  int
	quality quran.Quality
}

// Resolver validates candidates with HEAD requests and remembers the winner
// per verse for the lifetime of the session.
type Resolver struct {
	client *resty.Client
	hosts  Hosts
	cache  *lru.Cache[cacheKey, string]
}

type Option func(*Resolver)

// WithHosts overrides the CDN base URLs.
func WithHosts(h Hosts) Option {
	return func(r *Resolver) { r.hosts = h }
}

// WithCacheSize sets the number of resolved verses remembered.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.cache, _ = lru.New[cacheKey, string](n)
		}
	}
}

// New creates a resolver whose HEAD requests time out after timeout.
func New(timeout time.Duration, opts ...Option) *Resolver {
	if timeout <= 0 {
		timeout = defaultValidateTimeout
	}
	cache, _ := lru.New[cacheKey, string](defaultCacheSize)
	r := &Resolver{
		client: resty.New().
			SetTimeout(timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		hosts: DefaultHosts,
		cache: cache,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hosts returns the CDN base URLs in use.
func (r *Resolver) Hosts() Hosts {
	return r.hosts
}

// Validate reports whether url answers a HEAD request with a 2xx status and an
// audio content type. Network errors count as invalid.
func (r *Resolver) Validate(ctx context.Context, url string) bool {
	resp, err := r.client.R().SetContext(ctx).Head(url)
	if err != nil {
		metrics.SourceValidations.WithLabelValues("error").Inc()
		log.Debug().Err(err).Str("url", url).Msg("Audio source unreachable")
		return false
	}

	ok := resp.IsSuccess() && strings.HasPrefix(resp.Header().Get("Content-Type"), "audio/")
	if !ok {
		metrics.SourceValidations.WithLabelValues("rejected").Inc()
		log.Debug().Str("url", url).Int("status", resp.StatusCode()).
			Str("content_type", resp.Header().Get("Content-Type")).Msg("Audio source rejected")
		return false
	}

	metrics.SourceValidations.WithLabelValues("ok").Inc()
	return true
}

// FirstWorking validates urls strictly in order and returns the first valid
// one. It stops early when ctx is done.
func (r *Resolver) FirstWorking(ctx context.Context, urls []string) (string, bool) {
	for _, url := range urls {
		if ctx.Err() != nil {
			return "", false
		}
		if r.Validate(ctx, url) {
			return url, true
		}
	}
	return "", false
}

// Resolve returns a working URL for a verse. extra candidates, such as the
// URLs reported by the ayah endpoint, are tried before the built-in list.
func (r *Resolver) Resolve(ctx context.Context, edition string, ref VerseRef, q quran.Quality, extra ...string) (string, error) {
	key := cacheKey{edition: edition, number: ref.absolute(), quality: q}
	if key.number > 0 {
		if url, ok := r.cache.Get(key); ok {
			return url, nil
		}
	}

	candidates := lo.Uniq(append(lo.Compact(extra), r.hosts.Candidates(edition, ref, q)...))
	url, ok := r.FirstWorking(ctx, candidates)
	if !ok {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("verse %s: %w", ref, ErrNoSource)
	}

	if key.number > 0 {
		r.cache.Add(key, url)
	}
	log.Debug().Str("verse", ref.String()).Str("url", url).Msg("Resolved audio source")
	return url, nil
}

// Forget drops every remembered resolution.
func (r *Resolver) Forget() {
	r.cache.Purge()
}
