package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NewsRelay/internal/identity"
)

// MediaLabel replaces embedded media when a paragraph is rendered.
const MediaLabel = "[Media]"

const paragraphBreak = "\n\n"

var (
	singleLinkExpr = regexp.MustCompile(`^<a(?:\s+href="[^"]*")?>([^<]*)</a>$`)
	mediaFileExpr  = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|bmp|svg|mp4|webm|mov|m4v|avi|mp3)$`)
	mediaLabels    = map[string]bool{"[media]": true, "[image]": true, "[video]": true, "[photo]": true}
)

// ExtractBody renders every node matching selector and reconstructs the body.
func ExtractBody(doc *goquery.Selection, selector, pageURL string) string {
	if selector == "" {
		selector = "p"
	}

	var fragments []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		fragments = append(fragments, RenderFragment(s, pageURL))
	})
	return ReconstructParagraphs(fragments)
}

// ReconstructParagraphs joins rendered fragments into a prose block. A fragment
// holding nothing but a media link is glued to the start of the next paragraph
// instead of standing alone.
func ReconstructParagraphs(fragments []string) string {
	var (
		b       strings.Builder
		pending bool
	)

	for _, frag := range fragments {
		frag = trimFragment(frag)
		if frag == "" {
			continue
		}

		if IsCaption(frag) {
			b.WriteString(frag)
			b.WriteByte(' ')
			pending = true
			continue
		}

		if pending {
			b.WriteString(paragraphBreak)
			pending = false
		}
		b.WriteString(frag)
		b.WriteString(paragraphBreak)
	}

	return b.String()
}

// IsCaption reports whether frag is exactly one link labelled as media.
func IsCaption(frag string) bool {
	m := singleLinkExpr.FindStringSubmatch(trimFragment(frag))
	if m == nil {
		return false
	}
	label := strings.TrimSpace(html.UnescapeString(m[1]))
	return mediaLabels[strings.ToLower(label)] || mediaFileExpr.MatchString(label)
}

// RenderFragment renders a node's children as escaped text where anchors and
// media survive as <a href="absolute">label</a>.
func RenderFragment(s *goquery.Selection, pageURL string) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNode(&b, c, pageURL)
		}
	}
	return trimFragment(b.String())
}

func renderNode(b *strings.Builder, n *html.Node, pageURL string) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
	default:
		renderChildren(b, n, pageURL)
		return
	}

	switch n.Data {
	case "script", "style", "noscript", "template":
	case "br":
		b.WriteByte('\n')
	case "a":
		renderAnchor(b, n, pageURL)
	case "img", "iframe", "embed", "video", "audio", "source":
		src := mediaSource(n)
		if src == "" {
			renderChildren(b, n, pageURL)
			return
		}
		writeLink(b, src, MediaLabel, pageURL)
	default:
		renderChildren(b, n, pageURL)
	}
}

func renderChildren(b *strings.Builder, n *html.Node, pageURL string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c, pageURL)
	}
}

func renderAnchor(b *strings.Builder, n *html.Node, pageURL string) {
	label := strings.Join(strings.Fields(textOf(n)), " ")
	if label == "" && containsMedia(n) {
		label = MediaLabel
	}
	if label == "" {
		return
	}
	writeLink(b, attr(n, "href"), label, pageURL)
}

func writeLink(b *strings.Builder, href, label, pageURL string) {
	abs, err := identity.Resolve(href, pageURL)
	if err != nil {
		b.WriteString(html.EscapeString(label))
		return
	}
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(abs))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</a>`)
}

func mediaSource(n *html.Node) string {
	for _, key := range []string{"src", "data-src", "data-original"} {
		if v := strings.TrimSpace(attr(n, key)); v != "" {
			return v
		}
	}
	return ""
}

func containsMedia(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "img", "video", "iframe", "embed", "audio":
				return true
			}
		}
		if containsMedia(c) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			continue
		}
		b.WriteString(textOf(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// trimFragment strips whitespace including the ideographic space U+3000 that
// Chinese layouts use for indentation.
func trimFragment(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\u3000'
	})
}
