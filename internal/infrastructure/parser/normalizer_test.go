package parser

import (
	"context"
	"strings"
	"testing"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
)

const detailURL = "https://news.example.com/2020-03/12/c_1125698441.htm"

const detailPage = `<html><body>
<div class="title">Site banner</div>
<h1 class="h-title">  Headline of the day </h1>
<div class="h-info"><span>2020-03-12 10:00:00丨来源：新华网</span><span>Xinhua
</span></div>
<div id="p-detail">
<p>　　First paragraph with <a href="/related/1.htm">a citation</a>.</p>
<p> </p>
<p>Second.</p>
</div>
</body></html>`

func newTestNormalizer(pages pageFetcher, readability bool) *ArticleNormalizer {
	return NewArticleNormalizer(pages, NormalizerOptions{
		Selectors:           config.DefaultSelectors(),
		ReadabilityFallback: readability,
		Poller:              "test",
	})
}

func TestNormalizeHTMLPage(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(pageFetcher{detailURL: detailPage}, false)
	article := n.Normalize(context.Background(), domain.ArticleStub{ID: "c_1125698441", Title: "Listing title", Link: detailURL})

	if article.Title != "Headline of the day" {
		t.Fatalf("title selectors must be tried in priority order, got %q", article.Title)
	}
	if article.PublishTime != "2020-03-12 10:00:00" {
		t.Fatalf("unexpected time %q", article.PublishTime)
	}
	if article.Source != "Xinhua" {
		t.Fatalf("unexpected source %q", article.Source)
	}
	wantBody := "First paragraph with <a href=\"https://news.example.com/related/1.htm\">a citation</a>.\n\nSecond.\n\n"
	if article.Body != wantBody {
		t.Fatalf("unexpected body %q", article.Body)
	}
	if article.ID != "c_1125698441" || article.Link != detailURL {
		t.Fatalf("identity and link must be carried over: %+v", article)
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	page := `<html><body><span class="time">` + strings.Repeat("x", MaxTimeLength+1) + `</span><p>Only text.</p></body></html>`
	n := newTestNormalizer(pageFetcher{detailURL: page}, false)

	article := n.Normalize(context.Background(), domain.ArticleStub{ID: "1", Title: "Listing title", Link: detailURL})
	if article.Title != "Listing title" {
		t.Fatalf("missing title should fall back to the listing title, got %q", article.Title)
	}
	if article.PublishTime != "" {
		t.Fatalf("over-long time should normalize to empty, got %q", article.PublishTime)
	}
	if article.Source != "" {
		t.Fatalf("missing source should be empty, got %q", article.Source)
	}
	if article.Body != "Only text.\n\n" {
		t.Fatalf("unexpected body %q", article.Body)
	}
}

func TestNormalizeDetailFetchFailure(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(pageFetcher{}, false)
	article := n.Normalize(context.Background(), domain.ArticleStub{ID: "1", Title: "Listing title", Link: detailURL})

	if article.Title != "Listing title" || article.Body != "" || article.PublishTime != "" {
		t.Fatalf("failed fetch should leave fallbacks only: %+v", article)
	}
}

func TestNormalizeFeedStubUsesFeedFields(t *testing.T) {
	t.Parallel()

	n := newTestNormalizer(pageFetcher{detailURL: detailPage}, false)
	stub := domain.ArticleStub{
		ID:    "1125698441",
		Title: "Feed title",
		Link:  detailURL,
		Feed:  &domain.FeedMeta{PubTime: "2020-03-12 09:00:00", SourceName: "Feed source", Author: "Desk"},
	}

	article := n.Normalize(context.Background(), stub)
	if article.Title != "Feed title" || article.PublishTime != "2020-03-12 09:00:00" || article.Source != "Feed source" {
		t.Fatalf("feed fields must be used verbatim: %+v", article)
	}
	if article.Author != "Desk" {
		t.Fatalf("unexpected author %q", article.Author)
	}
	if !strings.HasPrefix(article.Body, "First paragraph") {
		t.Fatalf("body should still come from the page, got %q", article.Body)
	}
}

func TestNormalizeOverlongFirstTimeCandidateBlanks(t *testing.T) {
	t.Parallel()

	page := `<html><body><div class="h-info"><span>` + strings.Repeat("x", MaxTimeLength+1) + `</span></div>` +
		`<span class="time">2020-03-12 10:00:00</span><p>Text.</p></body></html>`
	n := newTestNormalizer(pageFetcher{detailURL: page}, false)

	article := n.Normalize(context.Background(), domain.ArticleStub{ID: "1", Title: "T", Link: detailURL})
	if article.PublishTime != "" {
		t.Fatalf("later candidates must not replace an over-long first match, got %q", article.PublishTime)
	}
}

func TestNormalizeTime(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  2020-03-12 10:00  ":               "2020-03-12 10:00",
		"2020-03-12｜来源":                      "2020-03-12",
		"2020-03-12\n来源：新华网":                 "2020-03-12",
		"2020-03-12\t编辑":                     "2020-03-12",
		"丨2020":                              "",
		strings.Repeat("9", MaxTimeLength):   strings.Repeat("9", MaxTimeLength),
		strings.Repeat("9", MaxTimeLength+1): "",
		strings.Repeat("时", MaxTimeLength):   strings.Repeat("时", MaxTimeLength),
	}
	for in, want := range cases {
		if got := NormalizeTime(in); got != want {
			t.Fatalf("NormalizeTime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeReadabilityFallback(t *testing.T) {
	t.Parallel()

	para := strings.Repeat("The council approved the new budget after a long debate about transport, housing and schools. ", 4)
	page := `<html><head><title>Budget</title></head><body>
<nav><a href="/">Home</a></nav>
<article><h1>Budget approved</h1>
<section><p>` + para + `</p><p>` + para + `</p><p>` + para + `</p></section>
</article>
<footer>Copyright</footer>
</body></html>`

	selectors := config.DefaultSelectors()
	selectors.Paragraph = "#p-detail > p"
	pages := pageFetcher{detailURL: page}

	without := NewArticleNormalizer(pages, NormalizerOptions{Selectors: selectors})
	if body := without.Normalize(context.Background(), domain.ArticleStub{ID: "1", Link: detailURL}).Body; body != "" {
		t.Fatalf("selector miss without fallback should yield empty body, got %q", body)
	}

	with := NewArticleNormalizer(pages, NormalizerOptions{Selectors: selectors, ReadabilityFallback: true})
	body := with.Normalize(context.Background(), domain.ArticleStub{ID: "1", Link: detailURL}).Body
	if !strings.Contains(body, "The council approved the new budget") {
		t.Fatalf("readability fallback should recover the article text, got %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("fallback body should use paragraph separators, got %q", body)
	}
}
