package parser

import (
	"context"
	"net/http"

	"NewsRelay/internal/domain"
)

// pageFetcher serves canned bodies by URL; unknown URLs answer 404.
type pageFetcher map[string]string

func (f pageFetcher) Get(_ context.Context, url string) ([]byte, error) {
	body, ok := f[url]
	if !ok {
		return nil, &domain.TransportError{Op: "get", URL: url, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}
