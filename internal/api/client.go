// Package api provides the HTTP clients for the alquran.cloud and quran.com APIs.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/glebovdev/quran-radio/internal/cache"
	"github.com/glebovdev/quran-radio/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const requestTimeout = 30 * time.Second

// ErrNotFound is matched by a StatusError carrying a 404.
var ErrNotFound = errors.New("not found")

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Upstream string
	Code     int
	Status   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.Code, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// fetcher performs cached JSON GETs against one upstream.
type fetcher struct {
	name   string
	client *resty.Client
	cache  *cache.Cache
}

func newFetcher(name, baseURL string, timeout time.Duration, c *cache.Cache) fetcher {
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return fetcher{
		name: name,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		cache: c,
	}
}

// getJSON fetches path into out. Successful bodies are cached for ttl when a
// cache is configured; ttl of zero disables caching for the call.
func (f *fetcher) getJSON(ctx context.Context, path string, params map[string]string, ttl time.Duration, out interface{}) error {
	key := f.name + ":" + path
	keys := lo.Keys(params)
	sort.Strings(keys)
	for _, k := range keys {
		key += "&" + k + "=" + params[k]
	}

	if f.cache != nil && ttl > 0 {
		if data, ok := f.cache.Get(key, ttl); ok {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
			log.Debug().Str("key", key).Msg("Discarding unreadable cache entry")
		}
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(f.name, "error").Inc()
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	if !resp.IsSuccess() {
		metrics.UpstreamRequests.WithLabelValues(f.name, "status").Inc()
		return &StatusError{Upstream: f.name, Code: resp.StatusCode(), Status: resp.Status()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.UpstreamRequests.WithLabelValues(f.name, "decode").Inc()
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	metrics.UpstreamRequests.WithLabelValues(f.name, "ok").Inc()

	if f.cache != nil && ttl > 0 {
		if err := f.cache.Set(key, resp.Body()); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}

	return nil
}
