package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/identity"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// HTMLScanner reads listing pages with a CSS selector pointing at article anchors.
type HTMLScanner struct {
	fetcher  ports.Fetcher
	identity identity.Policy
	logger   *slog.Logger
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner is a scanner.Factory.
func NewHTMLScanner(deps scanner.Deps) scanner.Scanner {
	return &HTMLScanner{fetcher: deps.Fetcher, identity: policyOrDefault(deps.Identity), logger: deps.Logger}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan returns listing entries in page order.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ArticleStub, error) {
	if strings.TrimSpace(req.ListSelector) == "" {
		return nil, errors.New("html listing requires a list selector")
	}

	body, err := h.fetcher.Get(ctx, req.ListURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ParseError{Source: req.ListURL, Err: fmt.Errorf("parse document: %w", err)}
	}

	return h.extractStubs(doc.Selection, req), nil
}

func (h *HTMLScanner) extractStubs(doc *goquery.Selection, req scanner.Request) []domain.ArticleStub {
	var stubs []domain.ArticleStub
	seen := map[string]struct{}{}

	doc.Find(req.ListSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, err := identity.Resolve(href, req.ListURL)
		if err != nil {
			if h.logger != nil {
				h.logger.Debug("skip listing entry", "href", href, "error", err)
			}
			return
		}

		id := h.identity.IdentityOf(link)
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}

		stubs = append(stubs, domain.ArticleStub{
			ID:    id,
			Title: strings.TrimSpace(s.Text()),
			Link:  link,
		})
	})

	return stubs
}

func policyOrDefault(p identity.Policy) identity.Policy {
	if p == nil {
		return identity.HashIdentity{}
	}
	return p
}
