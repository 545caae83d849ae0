package feed

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	ipv4Pattern   = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)
	domainPattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
)

// placeholders are values the feed uses when a tool has no fixed domain.
var placeholders = map[string]struct{}{
	"":             {},
	"user_managed": {},
	"unknown":      {},
	"n/a":          {},
	"na":           {},
	"none":         {},
}

// NormalizeDomain canonicalizes a raw feed value into a bare lowercase domain.
// It never fails; unusable input yields an empty string. The stripping pass is
// repeated until it no longer changes the value, so inputs such as "-.a.com"
// or "a.com.." settle on the same result a second call would produce.
func NormalizeDomain(raw string) string {
	domain := raw
	for {
		next := normalizeOnce(domain)
		if next == domain {
			return next
		}
		domain = next
	}
}

func normalizeOnce(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	if domain == "" {
		return ""
	}
	if _, rest, ok := strings.Cut(domain, "://"); ok {
		domain = rest
	}
	domain, _, _ = strings.Cut(domain, "/")
	domain = strings.TrimSpace(domain)
	if host, _, ok := strings.Cut(domain, ":"); ok {
		domain = strings.TrimSpace(host)
	}
	domain = strings.TrimLeft(domain, "*")
	domain = strings.TrimPrefix(domain, ".")
	domain = strings.TrimLeft(domain, "-")
	return strings.TrimSuffix(domain, ".")
}

// IsPlaceholder reports whether value is one of the feed's placeholder sentinels.
func IsPlaceholder(value string) bool {
	_, ok := placeholders[strings.ToLower(value)]
	return ok
}

// IsIPv4Literal reports whether value is a dotted-quad IPv4 address.
func IsIPv4Literal(value string) bool {
	if !ipv4Pattern.MatchString(value) {
		return false
	}
	for _, part := range strings.Split(value, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// IsSafeDomainForm reports whether value may be submitted as a domain indicator.
func IsSafeDomainForm(value string) bool {
	if strings.Contains(value, "*") || strings.IndexFunc(value, isSpace) >= 0 {
		return false
	}
	return domainPattern.MatchString(value)
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
