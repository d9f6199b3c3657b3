package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name     string
		target   Target
		expected string
	}{
		{
			name:     "leading slash stripped",
			target:   Target{Hostname: "localhost", Port: 8443, Resource: "/items"},
			expected: "https://localhost:8443/items",
		},
		{
			name:     "no leading slash",
			target:   Target{Hostname: "localhost", Port: 8443, Resource: "items"},
			expected: "https://localhost:8443/items",
		},
		{
			name:     "only first slash stripped",
			target:   Target{Hostname: "localhost", Port: 8443, Resource: "//items"},
			expected: "https://localhost:8443//items",
		},
		{
			name:     "empty resource",
			target:   Target{Hostname: "localhost", Port: 8443, Resource: ""},
			expected: "https://localhost:8443/",
		},
		{
			name:     "bare slash",
			target:   Target{Hostname: "localhost", Port: 8443, Resource: "/"},
			expected: "https://localhost:8443/",
		},
		{
			name:     "nested path",
			target:   Target{Hostname: "gateway.example.com", Port: 443, Resource: "/devices/42/config"},
			expected: "https://gateway.example.com:443/devices/42/config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.target.URL())
		})
	}
}

// Both spellings of a resource must address the same URL.
func TestTargetURLSlashEquivalence(t *testing.T) {
	with := Target{Hostname: "localhost", Port: 8443, Resource: "/items"}
	without := Target{Hostname: "localhost", Port: 8443, Resource: "items"}
	assert.Equal(t, with.URL(), without.URL())
}

func TestTargetURLNormalizationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		resource := rapid.StringMatching(`[/a-zA-Z0-9._~-]{0,40}`).Draw(t, "resource")
		target := Target{Hostname: "localhost", Port: 8443, Resource: resource}

		url := target.URL()
		prefix := "https://localhost:8443/"
		if !strings.HasPrefix(url, prefix) {
			t.Fatalf("url %q missing prefix %q", url, prefix)
		}

		path := strings.TrimPrefix(url, prefix)
		expected := resource
		if strings.HasPrefix(resource, "/") {
			expected = resource[1:]
		}
		if path != expected {
			t.Fatalf("resource %q produced path %q, expected %q", resource, path, expected)
		}
	})
}
