package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/identity"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// JSONScanner reads feeds shaped {data: {list: [...]}} where every record
// carries its upstream document id.
type JSONScanner struct {
	fetcher ports.Fetcher
	logger  *slog.Logger
}

var _ scanner.Scanner = (*JSONScanner)(nil)

// NewJSONScanner is a scanner.Factory. Feed records bring their own identity,
// so deps.Identity is unused.
func NewJSONScanner(deps scanner.Deps) scanner.Scanner {
	return &JSONScanner{fetcher: deps.Fetcher, logger: deps.Logger}
}

// Name identifies the strategy inside the registry.
func (j *JSONScanner) Name() string {
	return "json"
}

type feedPayload struct {
	Data struct {
		List []feedRecord `json:"list"`
	} `json:"data"`
}

type feedRecord struct {
	DocID      looseString `json:"DocID"`
	LinkURL    looseString `json:"LinkUrl"`
	Title      looseString `json:"Title"`
	PubTime    looseString `json:"PubTime"`
	SourceName looseString `json:"SourceName"`
	Author     looseString `json:"Author"`
}

// looseString accepts JSON strings, numbers and null.
type looseString string

func (s *looseString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(raw)
	return nil
}

// Scan returns feed records in payload order.
func (j *JSONScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleStub, error) {
	body, err := j.fetcher.Get(ctx, req.ListURL)
	if err != nil {
		return nil, err
	}

	payload, err := decodeFeed(body)
	if err != nil {
		return nil, &domain.ParseError{Source: req.ListURL, Err: err}
	}

	stubs := make([]domain.ArticleStub, 0, len(payload.Data.List))
	for _, rec := range payload.Data.List {
		id := strings.TrimSpace(string(rec.DocID))
		link, err := identity.Resolve(string(rec.LinkURL), req.ListURL)
		if id == "" || err != nil {
			if j.logger != nil {
				j.logger.Debug("skip feed record", "doc_id", id, "link", rec.LinkURL)
			}
			continue
		}

		stubs = append(stubs, domain.ArticleStub{
			ID:    id,
			Title: strings.TrimSpace(string(rec.Title)),
			Link:  link,
			Feed: &domain.FeedMeta{
				PubTime:    strings.TrimSpace(string(rec.PubTime)),
				SourceName: strings.TrimSpace(string(rec.SourceName)),
				Author:     strings.TrimSpace(string(rec.Author)),
			},
		})
	}

	return stubs, nil
}

// decodeFeed parses strictly first, then retries on the outermost {...} span,
// which unwraps JSONP callbacks and stray bracket wrappers.
func decodeFeed(body []byte) (feedPayload, error) {
	var payload feedPayload
	strictErr := json.Unmarshal(body, &payload)
	if strictErr == nil {
		return payload, nil
	}

	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return feedPayload{}, strictErr
	}

	payload = feedPayload{}
	if err := json.Unmarshal(body[start:end+1], &payload); err != nil {
		return feedPayload{}, strictErr
	}
	return payload, nil
}
