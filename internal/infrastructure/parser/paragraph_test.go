package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestReconstructParagraphsMergesCaption(t *testing.T) {
	t.Parallel()

	got := ReconstructParagraphs([]string{"", "<a>photo.jpg</a>", "Real text."})
	want := "<a>photo.jpg</a> \n\nReal text.\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReconstructParagraphsProse(t *testing.T) {
	t.Parallel()

	got := ReconstructParagraphs([]string{"First.", "Second."})
	if got != "First.\n\nSecond.\n\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestReconstructParagraphsEdgeCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input []string
		want  string
	}{
		{"nothing", nil, ""},
		{"whitespace only", []string{"  \n\t", "　　"}, ""},
		{"ideographic indent trimmed", []string{"　　Indented.　"}, "Indented.\n\n"},
		{"trailing caption", []string{"Text.", `<a href="https://x/p.png">[Media]</a>`}, "Text.\n\n<a href=\"https://x/p.png\">[Media]</a> "},
		{"two captions", []string{`<a href="a">[Media]</a>`, `<a href="b">[Media]</a>`, "After."}, "<a href=\"a\">[Media]</a> <a href=\"b\">[Media]</a> \n\nAfter.\n\n"},
		{"plain link is prose", []string{`<a href="https://x/report">the report</a>`, "Next."}, "<a href=\"https://x/report\">the report</a>\n\nNext.\n\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ReconstructParagraphs(tc.input); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsCaption(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		`<a>photo.jpg</a>`:                           true,
		`<a href="https://x/1.htm">[Media]</a>`:      true,
		`<a href="https://x/v">[Video]</a>`:          true,
		`<a href="https://x/clip.MP4">clip.MP4</a>`:  true,
		`<a href="https://x/1.htm">Read more</a>`:    false,
		`<a href="https://x/1.htm">[Media]</a> text`: false,
		`Photo: <a href="https://x/p.jpg">p.jpg</a>`: false,
		``: false,
	}
	for frag, want := range cases {
		if got := IsCaption(frag); got != want {
			t.Fatalf("IsCaption(%q) = %v, want %v", frag, got, want)
		}
	}
}

func TestRenderFragmentKeepsLinks(t *testing.T) {
	t.Parallel()

	html := "<p>　See <a href=\"/a/1.htm\">the  report</a> &amp; more<br>next<img src=\"//img.example.com/p.jpg\"><script>var x;</script></p>"
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := RenderFragment(doc.Find("p").First(), "https://news.example.com/list/index.htm")
	want := `See <a href="https://news.example.com/a/1.htm">the report</a> &amp; more` + "\n" +
		`next<a href="https://img.example.com/p.jpg">[Media]</a>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRenderFragmentUnresolvableLinkKeepsLabel(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p><a href="javascript:void(0)">Share</a> now<a href="/x"></a></p>`))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	if got := RenderFragment(doc.Find("p"), "https://news.example.com/"); got != "Share now" {
		t.Fatalf("unexpected fragment %q", got)
	}
}

func TestExtractBodyMediaOnlyParagraph(t *testing.T) {
	t.Parallel()

	html := `<div id="p-detail"><p></p><p><img src="/photo.jpg"></p><p>Real text.</p></div><p>outside</p>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := ExtractBody(doc.Selection, "#p-detail > p", "https://news.example.com/a.htm")
	want := "<a href=\"https://news.example.com/photo.jpg\">[Media]</a> \n\nReal text.\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractBodyImageInsideAnchor(t *testing.T) {
	t.Parallel()

	html := `<p><a href="/big.jpg"><img src="/small.jpg"></a></p><p>Caption follows.</p>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	got := ExtractBody(doc.Selection, "p", "https://news.example.com/")
	want := "<a href=\"https://news.example.com/big.jpg\">[Media]</a> \n\nCaption follows.\n\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
