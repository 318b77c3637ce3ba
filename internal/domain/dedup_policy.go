package domain

import (
	"net/url"
	"strings"
)

// NormalizeSourceURL produces the canonical dedup key for a source URL:
// lowercased scheme and host, no fragment, no trailing slash. The
// store's primary uniqueness invariant is defined over this form.
func NormalizeSourceURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	normalized := u.String()
	normalized = strings.TrimRight(normalized, "/")
	return normalized, nil
}

// NormalizeNameKey produces the fallback dedup key: the recipe name
// lowercased with collapsed whitespace. Paired with the source domain
// it forms the secondary uniqueness invariant.
func NormalizeNameKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// DomainOf extracts the source domain of a URL, without a leading
// "www." prefix. Returns "" when the URL cannot be parsed.
func DomainOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
