package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Policy derives an article identity from its absolute URL. Implementations
// must be pure: the same URL always yields the same identity.
type Policy interface {
	IdentityOf(absURL string) string
}

// HashIdentity is the hex SHA-256 of the normalized URL.
type HashIdentity struct{}

// IdentityOf implements Policy.
func (HashIdentity) IdentityOf(absURL string) string {
	sum := sha256.Sum256([]byte(normalize(absURL)))
	return hex.EncodeToString(sum[:])
}

// PathIdentity uses the last path segment without its extension, which is how
// most news CMSes number their documents. URLs carrying a query string fall
// back to HashIdentity, since the query may be what tells documents apart.
type PathIdentity struct{}

// IdentityOf implements Policy.
func (PathIdentity) IdentityOf(absURL string) string {
	u, err := url.Parse(absURL)
	if err == nil && u.RawQuery == "" {
		seg := path.Base(strings.TrimSuffix(u.Path, "/"))
		seg = strings.TrimSuffix(seg, path.Ext(seg))
		if seg != "" && seg != "." && seg != "/" {
			return seg
		}
	}
	return HashIdentity{}.IdentityOf(absURL)
}

// URLIdentity uses the normalized URL itself.
type URLIdentity struct{}

// IdentityOf implements Policy.
func (URLIdentity) IdentityOf(absURL string) string {
	return normalize(absURL)
}

// ByName maps a configuration name to a Policy.
func ByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hash":
		return HashIdentity{}, nil
	case "path":
		return PathIdentity{}, nil
	case "url":
		return URLIdentity{}, nil
	default:
		return nil, fmt.Errorf("unknown identity policy %q", name)
	}
}

func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
