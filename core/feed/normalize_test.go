package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"Whitespace", "  google.com  ", "google.com"},
		{"SchemeAndPath", "HTTP://GOOGLE.COM/foo", "google.com"},
		{"Wildcard", "*.google.com", "google.com"},
		{"TrailingDot", "test.com.", "test.com"},
		{"Empty", "", ""},
		{"Port", "relay.example.net:443", "relay.example.net"},
		{"SchemePortPath", "https://*.relay.example.net:8443/path?q=1", "relay.example.net"},
		{"MultipleWildcards", "**.example.org", "example.org"},
		{"LeadingHyphens", "--example.org", "example.org"},
		{"HyphenThenDot", "-.example.org", "example.org"},
		{"DoubleTrailingDot", "example.org..", "example.org"},
		{"OnlyWildcard", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.raw))
		})
	}
}

// TestNormalizeDomain_Idempotent checks that a second pass never changes the result.
func TestNormalizeDomain_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "*", ".", "-", "*.-.a.com", "-.a.com", "a.com..", "HTTP://X.COM:80/y",
		"ftp://user@host.example.com/", "a://b://c", "  *.*.x.io.  ", "user_managed",
		"1.2.3.4:3389", "...", "*-*-x.com", "ÄÖ.example", "host name.com",
	}
	for _, in := range inputs {
		once := NormalizeDomain(in)
		assert.Equal(t, once, NormalizeDomain(once), "input %q", in)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "user_managed", "unknown", "n/a", "na", "none", "NONE", "N/A"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"example.com", "nonee", "unknown.com"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}

func TestIsIPv4Literal(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1.2.3.4", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"256.0.0.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"google.com", false},
		{"1.2.3.a", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIPv4Literal(tt.value))
		})
	}
}

func TestIsSafeDomainForm(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"google.com", true},
		{"sub.domain.co.uk", true},
		{"a-b.example.io", true},
		{"x1.example.museum", true},
		{"-start.com", false},
		{"end-.com", false},
		{"localhost", false},
		{"*.example.com", false},
		{"exa mple.com", false},
		{"example.c", false},
		{"example.c0m", false},
		{"1.2.3.4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeDomainForm(tt.value))
		})
	}
}
