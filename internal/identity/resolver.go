// Package identity turns listing hrefs into absolute article URLs and derives
// the stable identities used as ledger keys.
package identity

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnresolvable signals that an href cannot be turned into an article URL.
// It is never a transport failure; callers skip the entry.
var ErrUnresolvable = errors.New("unresolvable link")

// Resolve returns the absolute form of href relative to pageURL.
func Resolve(href, pageURL string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", ErrUnresolvable
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnresolvable, href, err)
	}

	switch strings.ToLower(ref.Scheme) {
	case "", "http", "https":
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnresolvable, ref.Scheme)
	}

	if ref.IsAbs() {
		ref.Fragment = ""
		return ref.String(), nil
	}

	base, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("%w: no absolute base for %s", ErrUnresolvable, href)
	}

	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	return abs.String(), nil
}
