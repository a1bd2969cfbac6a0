package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cliwizard/cliwizard/pkg/config"
)

// Loader reads OpenAPI documents from files and URLs and parses them.
// Remote documents go through Cache when one is set.
type Loader struct {
	// Parser is used to parse the loaded spec
	Parser *Parser
	// Cache stores fetched specs
	Cache SpecCache
	// HTTPClient for fetching remote specs
	HTTPClient *http.Client
	// CacheTTL is how long a cached spec is used without revalidation
	CacheTTL time.Duration
	// UserAgent is sent with every request
	UserAgent string
}

// SpecCache stores fetched documents by URL.
type SpecCache interface {
	Get(ctx context.Context, key string) (*CachedSpec, error)
	Set(ctx context.Context, key string, spec *CachedSpec) error
	Invalidate(ctx context.Context, key string) error
}

// CachedSpec is a fetched document with its validators.
type CachedSpec struct {
	Data         []byte    `json:"data"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	URL          string    `json:"url"`
}

// LoadOptions controls how remote specs are loaded.
type LoadOptions struct {
	// ForceRefresh bypasses cache and fetches fresh spec
	ForceRefresh bool
	// SkipConditional skips ETag-based conditional requests
	SkipConditional bool
	// Headers to include in HTTP request
	Headers map[string]string
}

// NewLoader creates a Loader. cache may be nil.
func NewLoader(cache SpecCache) *Loader {
	return &Loader{
		Parser: NewParser(),
		Cache:  cache,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		CacheTTL:  5 * time.Minute,
		UserAgent: "cliwizard OpenAPI Loader",
	}
}

// Load loads the spec at location: an http(s) URL, or a file path taken
// relative to baseDir.
func (l *Loader) Load(ctx context.Context, location, baseDir string) (*Catalog, error) {
	if config.IsURL(location) {
		return l.LoadURL(ctx, location, nil)
	}
	return l.LoadFile(ctx, config.ResolvePath(baseDir, location))
}

// LoadFile loads a spec from a file.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return l.Parser.Parse(ctx, data)
}

// LoadURL fetches and parses a remote spec with the cache policy of Fetch.
func (l *Loader) LoadURL(ctx context.Context, specURL string, options *LoadOptions) (*Catalog, error) {
	data, err := l.Fetch(ctx, specURL, options)
	if err != nil {
		return nil, err
	}
	return l.Parser.Parse(ctx, data)
}

// Fetch returns the raw bytes of a remote spec.
//
// A cached copy younger than CacheTTL is revalidated with its ETag or
// Last-Modified validator when it has one, and served as is when
// revalidation fails. An older copy is refetched and served only when the
// fetch fails.
func (l *Loader) Fetch(ctx context.Context, specURL string, options *LoadOptions) ([]byte, error) {
	if options == nil {
		options = &LoadOptions{}
	}
	if u, err := url.Parse(specURL); err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", specURL)
	}

	cached := l.cached(ctx, specURL, options)
	if cached == nil {
		resp, err := l.get(ctx, specURL, nil, options.Headers)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch spec: %w", err)
		}
		return l.keep(ctx, specURL, resp), nil
	}

	if time.Since(cached.FetchedAt) >= l.CacheTTL {
		resp, err := l.get(ctx, specURL, nil, options.Headers)
		switch {
		case err == nil:
			return l.keep(ctx, specURL, resp), nil
		case cached.Data == nil:
			return nil, fmt.Errorf("failed to fetch spec and no cache available: %w", err)
		}
		return cached.Data, nil
	}

	if options.SkipConditional || (cached.ETag == "" && cached.LastModified == "") {
		return cached.Data, nil
	}
	resp, err := l.get(ctx, specURL, cached, options.Headers)
	if err != nil || resp.notModified {
		return cached.Data, nil
	}
	return l.keep(ctx, specURL, resp), nil
}

// InvalidateCache removes a cached spec.
func (l *Loader) InvalidateCache(ctx context.Context, specURL string) error {
	if l.Cache == nil {
		return nil
	}
	return l.Cache.Invalidate(ctx, specURL)
}

func (l *Loader) cached(ctx context.Context, specURL string, options *LoadOptions) *CachedSpec {
	if options.ForceRefresh || l.Cache == nil {
		return nil
	}
	spec, err := l.Cache.Get(ctx, specURL)
	if err != nil {
		return nil
	}
	return spec
}

// keep stores resp in the cache and returns its body.
func (l *Loader) keep(ctx context.Context, specURL string, resp *response) []byte {
	if l.Cache != nil {
		_ = l.Cache.Set(ctx, specURL, &CachedSpec{
			Data:         resp.data,
			ETag:         resp.etag,
			LastModified: resp.lastModified,
			FetchedAt:    time.Now(),
			URL:          specURL,
		})
	}
	return resp.data
}

type response struct {
	data         []byte
	etag         string
	lastModified string
	notModified  bool
}

// get performs a GET, conditional on the validators of prev when set.
func (l *Loader) get(ctx context.Context, specURL string, prev *CachedSpec, headers map[string]string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, specURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, application/x-yaml, text/yaml")
	req.Header.Set("User-Agent", l.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if prev != nil {
		if prev.ETag != "" {
			req.Header.Set("If-None-Match", prev.ETag)
		}
		if prev.LastModified != "" {
			req.Header.Set("If-Modified-Since", prev.LastModified)
		}
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case prev != nil && resp.StatusCode == http.StatusNotModified:
		return &response{notModified: true}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{
		data:         data,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
