package parser

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/metrics"
	"NewsRelay/internal/ports"
)

// MaxTimeLength is the longest publish time kept; longer values mean the
// selector hit an unrelated block of the page.
const MaxTimeLength = 100

// timeCutset holds the characters after which a scraped time is noise: the
// full-width bars some layouts put before the source name, newline and tab.
var timeCutset = []string{"丨", "｜", "\n", "\t"}

// ArticleNormalizer fetches detail pages and extracts display-ready content.
type ArticleNormalizer struct {
	fetcher     ports.Fetcher
	selectors   config.SelectorConfig
	readability bool
	poller      string
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

var _ ports.Normalizer = (*ArticleNormalizer)(nil)

// NormalizerOptions configures an ArticleNormalizer.
type NormalizerOptions struct {
	Selectors           config.SelectorConfig
	ReadabilityFallback bool
	Poller              string
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
}

// NewArticleNormalizer wires a fetcher with the poller's selectors.
func NewArticleNormalizer(fetcher ports.Fetcher, opts NormalizerOptions) *ArticleNormalizer {
	return &ArticleNormalizer{
		fetcher:     fetcher,
		selectors:   opts.Selectors,
		readability: opts.ReadabilityFallback,
		poller:      opts.Poller,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Normalize never fails: every field missing from the page takes its fallback.
func (n *ArticleNormalizer) Normalize(ctx context.Context, stub domain.ArticleStub) domain.Article {
	article := domain.Article{
		ID:    stub.ID,
		Title: stub.Title,
		Link:  stub.Link,
	}
	if stub.Feed != nil {
		article.PublishTime = stub.Feed.PubTime
		article.Source = stub.Feed.SourceName
		article.Author = stub.Feed.Author
	}

	body, err := n.fetcher.Get(ctx, stub.Link)
	if err != nil {
		n.warn("detail fetch failed", "id", stub.ID, "url", stub.Link, "error", err)
		n.metrics.DetailFailed(n.poller)
		return article
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		n.warn("detail parse failed", "id", stub.ID, "url", stub.Link, "error", err)
		return article
	}

	if stub.Feed == nil {
		if title := firstText(doc.Selection, n.selectors.Title); title != "" {
			article.Title = title
		}
		article.PublishTime = extractTime(doc.Selection, n.selectors.Time)
		article.Source = strings.ReplaceAll(firstText(doc.Selection, n.selectors.Source), "\n", "")
	}

	article.Body = ExtractBody(doc.Selection, n.selectors.Paragraph, stub.Link)
	if article.Body == "" && n.readability {
		article.Body = readabilityBody(body, stub.Link)
		if article.Body != "" {
			n.debug("readability fallback used", "id", stub.ID)
		}
	}

	return article
}

// NormalizeTime cuts trailing noise from a scraped publish time and discards
// values longer than MaxTimeLength.
func NormalizeTime(raw string) string {
	t := strings.TrimSpace(raw)
	for _, sep := range timeCutset {
		t, _, _ = strings.Cut(t, sep)
	}
	t = strings.TrimSpace(t)
	if utf8.RuneCountInString(t) > MaxTimeLength {
		return ""
	}
	return t
}

// extractTime takes the first non-empty time candidate and normalizes it. An
// over-long first candidate blanks the time; later matches are not consulted.
func extractTime(doc *goquery.Selection, selectors []string) string {
	return NormalizeTime(firstText(doc, selectors))
}

// firstText returns the trimmed text of the first non-empty match, trying
// selectors in priority order.
func firstText(doc *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		var text string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text = strings.TrimSpace(s.Text())
			return text == ""
		})
		if text != "" {
			return text
		}
	}
	return ""
}

func readabilityBody(page []byte, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	extracted, err := readability.FromReader(bytes.NewReader(page), parsed)
	if err != nil || strings.TrimSpace(extracted.Content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(extracted.Content))
	if err != nil {
		return ""
	}
	return ExtractBody(doc.Selection, "p", pageURL)
}

func (n *ArticleNormalizer) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}

func (n *ArticleNormalizer) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
