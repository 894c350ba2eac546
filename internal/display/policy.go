// Package display renders normalized articles into Telegram messages.
package display

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	// ParseModeHTML is the Telegram parse mode used by every policy.
	ParseModeHTML = "HTML"

	// MaxMessageLength is Telegram's limit for one text message, in UTF-16
	// code units.
	MaxMessageLength = 4096

	truncationMark = "…\n\n"
)

// DefaultPolicy renders title, metadata line, body and link with previews off.
type DefaultPolicy struct{}

// IdentityAwarePolicy renders feed articles (numeric upstream identities) as a
// compact card with a link preview, and everything else like DefaultPolicy.
type IdentityAwarePolicy struct{}

var (
	_ ports.DisplayPolicy = DefaultPolicy{}
	_ ports.DisplayPolicy = IdentityAwarePolicy{}
)

// ByName maps a configuration name to a policy.
func ByName(name string) (ports.DisplayPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultPolicy{}, nil
	case "identity", "id":
		return IdentityAwarePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown display policy %q", name)
	}
}

// Render implements ports.DisplayPolicy.
func (DefaultPolicy) Render(a domain.Article) domain.Message {
	head := header(a)
	tail := footer(a)

	budget := MaxMessageLength - TextLength(head) - TextLength(tail)
	body := fitBody(a.Body, budget)

	return domain.Message{
		Text:           head + body + tail,
		ParseMode:      ParseModeHTML,
		DisablePreview: true,
	}
}

// Render implements ports.DisplayPolicy.
func (IdentityAwarePolicy) Render(a domain.Article) domain.Message {
	if !isNumeric(a.ID) {
		return DefaultPolicy{}.Render(a)
	}
	return domain.Message{
		Text:           header(a) + footer(a),
		ParseMode:      ParseModeHTML,
		DisablePreview: false,
	}
}

func header(a domain.Article) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(strings.TrimSpace(a.Title)))
	b.WriteString("</b>\n")

	meta := strings.TrimSpace(strings.Join(nonEmpty(a.PublishTime, a.Source), " "))
	if meta != "" {
		b.WriteString("<i>")
		b.WriteString(html.EscapeString(meta))
		b.WriteString("</i>\n")
	}
	b.WriteString("\n")
	return b.String()
}

func footer(a domain.Article) string {
	if a.Link == "" {
		return ""
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(a.Link), html.EscapeString(a.Link))
}

// TextLength measures s the way Telegram does, in UTF-16 code units.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// fitBody keeps whole paragraphs while the body fits in budget. When not even
// the first paragraph fits, that paragraph is cut instead.
func fitBody(body string, budget int) string {
	if TextLength(body) <= budget {
		return body
	}

	limit := budget - TextLength(truncationMark)
	if limit <= 0 {
		return ""
	}

	var b strings.Builder
	used := 0
	paragraphs := strings.SplitAfter(body, "\n\n")
	for _, para := range paragraphs {
		n := TextLength(para)
		if used+n > limit {
			break
		}
		b.WriteString(para)
		used += n
	}

	kept := strings.TrimRight(b.String(), "\n")
	if kept == "" {
		kept = strings.TrimRight(cutMarkup(paragraphs[0], limit), " \n")
	}
	if kept == "" {
		return ""
	}
	return kept + truncationMark
}

// cutMarkup returns the longest prefix of s within limit that does not end
// inside a tag, an entity or an <a> element.
func cutMarkup(s string, limit int) string {
	var (
		safe     int
		used     int
		anchors  int
		inTag    bool
		inEntity bool
	)
	for i, r := range s {
		if !inTag && !inEntity && anchors == 0 {
			safe = i
		}
		if used+utf16.RuneLen(r) > limit {
			return s[:safe]
		}
		used += utf16.RuneLen(r)

		switch {
		case inTag:
			inTag = r != '>'
		case inEntity:
			inEntity = r != ';'
		case r == '<':
			inTag = true
			rest := strings.ToLower(s[i:min(i+4, len(s))])
			if strings.HasPrefix(rest, "<a ") || strings.HasPrefix(rest, "<a>") {
				anchors++
			} else if strings.HasPrefix(rest, "</a>") && anchors > 0 {
				anchors--
			}
		case r == '&':
			inEntity = true
		}
	}
	if !inTag && !inEntity && anchors == 0 {
		return s
	}
	return s[:safe]
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isNumeric(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
