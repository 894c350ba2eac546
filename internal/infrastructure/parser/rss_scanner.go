package parser

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/identity"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// RSSScanner reads RSS and Atom feeds.
type RSSScanner struct {
	fetcher  ports.Fetcher
	identity identity.Policy
	logger   *slog.Logger
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner is a scanner.Factory.
func NewRSSScanner(deps scanner.Deps) scanner.Scanner {
	return &RSSScanner{fetcher: deps.Fetcher, identity: policyOrDefault(deps.Identity), logger: deps.Logger}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan returns feed items in document order (feeds list newest first).
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleStub, error) {
	body, err := r.fetcher.Get(ctx, req.ListURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParseError{Source: req.ListURL, Err: err}
	}

	stubs := make([]domain.ArticleStub, 0, len(feed.Items))
	seen := map[string]struct{}{}
	for _, item := range feed.Items {
		link, err := identity.Resolve(item.Link, req.ListURL)
		if err != nil {
			if r.logger != nil {
				r.logger.Debug("skip feed item", "title", item.Title, "error", err)
			}
			continue
		}

		id := r.identity.IdentityOf(link)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		stubs = append(stubs, domain.ArticleStub{
			ID:    id,
			Title: strings.TrimSpace(item.Title),
			Link:  link,
			Feed: &domain.FeedMeta{
				PubTime:    strings.TrimSpace(item.Published),
				SourceName: strings.TrimSpace(feed.Title),
				Author:     itemAuthor(item),
			},
		})
	}

	return stubs, nil
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}
