package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://Example.App/NFL",
			expected: "https://example.app/NFL",
		},
		{
			name:     "strips trailing slash on root",
			input:    "https://example.app/",
			expected: "https://example.app",
		},
		{
			name:     "strips trailing slash on path",
			input:    "https://example.app/live/",
			expected: "https://example.app/live",
		},
		{
			name:     "drops fragment",
			input:    "https://example.app/page#section",
			expected: "https://example.app/page",
		},
		{
			name:     "strips tracking parameters",
			input:    "https://example.app/page?utm_source=x&utm_medium=y&id=5",
			expected: "https://example.app/page?id=5",
		},
		{
			name:     "sorts remaining parameters",
			input:    "https://example.app/page?b=2&a=1",
			expected: "https://example.app/page?a=1&b=2",
		},
		{
			name:     "drops fbclid",
			input:    "https://example.app?fbclid=abc123",
			expected: "https://example.app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalizeURL(tt.input))
		})
	}
}

func TestCanonicalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"HTTPS://Example.App/path/?utm_source=a&z=1&a=2#frag",
		"https://streameast.app",
		"http://WWW.Sports.TV/live/",
	}
	for _, input := range inputs {
		once := CanonicalizeURL(input)
		twice := CanonicalizeURL(once)
		assert.Equal(t, once, twice, "canonicalization must be idempotent for %s", input)
	}
}

func TestSiteNameFromURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.streameast.app/nfl", "Streameast"},
		{"https://sportssurge.net", "Sportssurge"},
		{"https://m.example.com", "Example"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SiteNameFromURL(tt.input))
	}
}

func TestExtractHost(t *testing.T) {
	assert.Equal(t, "example.app", ExtractHost("https://Example.App/live"))
	assert.Equal(t, "", ExtractHost("://bad"))
}
