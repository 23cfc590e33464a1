package mediafinder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/callumgare/media-finder-cli/internal/pkg/circuitbreaker"
)

// CacheMode controls caching of upstream responses.
type CacheMode string

const (
	// CacheNever bypasses the cache.
	CacheNever CacheMode = "never"
	// CacheAuto caches responses for as long as Cache-Control allows.
	CacheAuto CacheMode = "auto"
	// CacheAlways caches every successful response without expiry.
	CacheAlways CacheMode = "always"
)

// CacheModes lists the valid cache modes.
var CacheModes = []CacheMode{CacheNever, CacheAuto, CacheAlways}

// ParseCacheMode validates s as a cache mode. An empty string is CacheAlways.
func ParseCacheMode(s string) (CacheMode, error) {
	if s == "" {
		return CacheAlways, nil
	}
	for _, m := range CacheModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid cache mode %q", s)
}

// Cache stores upstream responses. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CacheStatusHeader is set to "hit" on responses served from the cache.
const CacheStatusHeader = "X-Media-Finder-Cache"

func newTransport(opts QueryOptions, breakers *circuitbreaker.Group) http.RoundTripper {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = otelhttp.NewTransport(base)
	rt = &breakerTransport{next: rt, breakers: breakers}
	if opts.Cache != nil && opts.CacheMode != CacheNever {
		mode := opts.CacheMode
		if mode == "" {
			mode = CacheAlways
		}
		rt = &cachingTransport{next: rt, cache: opts.Cache, mode: mode}
	}
	return rt
}

var errRetryableStatus = errors.New("retryable upstream status")

type breakerTransport struct {
	next     http.RoundTripper
	breakers *circuitbreaker.Group
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := t.breakers.Do(req.URL.Host, func() error {
		var err error
		resp, err = t.next.RoundTrip(req)
		if err == nil && (resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests) {
			return errRetryableStatus
		}
		return err
	})
	switch {
	case errors.Is(err, errRetryableStatus):
		return resp, nil
	case errors.Is(err, circuitbreaker.ErrOpen):
		return nil, fmt.Errorf("%s: %w", req.URL.Host, err)
	}
	return resp, err
}

type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

type cachingTransport struct {
	next  http.RoundTripper
	cache Cache
	mode  CacheMode
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}
	ctx := req.Context()
	key := cacheKey(req)

	if raw, ok, err := t.cache.Get(ctx, key); err == nil && ok {
		var entry cachedResponse
		if err := json.Unmarshal(raw, &entry); err == nil {
			return entry.toResponse(req), nil
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}
	ttl, ok := cacheTTL(t.mode, resp.Header)
	if !ok {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	raw, err := json.Marshal(cachedResponse{Status: resp.StatusCode, Header: resp.Header, Body: body})
	if err == nil {
		_ = t.cache.Set(ctx, key, raw, ttl)
	}
	return resp, nil
}

func (e cachedResponse) toResponse(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(CacheStatusHeader, "hit")
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// cacheKey covers the URL and the headers that can change the response
// body. Header values are hashed, never stored.
func cacheKey(req *http.Request) string {
	h := sha256.New()
	io.WriteString(h, req.Method+" "+req.URL.String())
	for _, name := range []string{"Authorization", "Accept", "Accept-Language", "Cookie"} {
		if v := req.Header.Get(name); v != "" {
			io.WriteString(h, "\n"+name+": "+v)
		}
	}
	return "media-finder:http:" + hex.EncodeToString(h.Sum(nil))
}

// cacheTTL decides whether and for how long a response is cached.
func cacheTTL(mode CacheMode, header http.Header) (time.Duration, bool) {
	if mode == CacheAlways {
		return 0, true
	}
	var maxAge time.Duration
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(strings.ToLower(directive)), "=")
		switch name {
		case "no-store", "no-cache", "private":
			return 0, false
		case "max-age":
			secs, err := strconv.Atoi(strings.Trim(value, `"`))
			if err != nil || secs <= 0 {
				return 0, false
			}
			maxAge = time.Duration(secs) * time.Second
		}
	}
	return maxAge, maxAge > 0
}
