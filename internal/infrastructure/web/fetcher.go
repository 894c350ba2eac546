// Package web performs the outbound HTTP GETs for listings and detail pages.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/retry"
)

const (
	// DefaultTimeout bounds every request made through a Fetcher.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes  = 16 << 20
	maxErrorBytes = 1024
)

// Options configures a Fetcher.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
	Proxy   string
	Retry   retry.Config
}

// Fetcher issues GET requests with fixed headers, a timeout and bounded retry.
type Fetcher struct {
	client  *http.Client
	headers map[string]string
	retry   retry.Config
}

var _ ports.Fetcher = (*Fetcher)(nil)

// NewClient builds an http.Client with the given timeout and optional proxy URL.
func NewClient(timeout time.Duration, proxy string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	if proxy = strings.TrimSpace(proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// New builds a Fetcher from options.
func New(opts Options) (*Fetcher, error) {
	client, err := NewClient(opts.Timeout, opts.Proxy)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, opts.Headers, opts.Retry), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *http.Client, headers map[string]string, cfg retry.Config) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &Fetcher{client: client, headers: copied, retry: cfg}
}

// Get downloads pageURL and returns the body of a 200 response. Any other
// outcome is a *domain.TransportError.
func (f *Fetcher) Get(ctx context.Context, pageURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		var err error
		body, err = f.getOnce(ctx, pageURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) getOnce(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: "get", URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &domain.TransportError{
			Op:         "get",
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Op: "read", URL: pageURL, Err: err}
	}
	return body, nil
}
