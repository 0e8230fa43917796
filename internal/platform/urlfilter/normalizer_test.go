package urlfilter

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase scheme and host",
			input:    "HTTPS://EXAMPLE.COM/path",
			expected: "https://example.com/path/",
		},
		{
			name:     "remove default port 80",
			input:    "http://example.com:80/path",
			expected: "http://example.com/path/",
		},
		{
			name:     "remove default port 443",
			input:    "https://example.com:443/path",
			expected: "https://example.com/path/",
		},
		{
			name:     "keep non default port",
			input:    "http://example.com:8080/index.html",
			expected: "http://example.com:8080/index.html",
		},
		{
			name:     "remove fragment",
			input:    "https://example.com/page#section",
			expected: "https://example.com/page/",
		},
		{
			name:     "sort query parameters",
			input:    "https://example.com/path?z=3&a=1&m=2",
			expected: "https://example.com/path/?a=1&m=2&z=3",
		},
		{
			name:     "drop tracking parameters",
			input:    "https://example.com/login.php?utm_source=mail&next=%2Fhome&fbclid=x",
			expected: "https://example.com/login.php?next=%2Fhome",
		},
		{
			name:     "only tracking parameters",
			input:    "https://example.com/?utm_campaign=spring",
			expected: "https://example.com/",
		},
		{
			name:     "clean double slashes and dots",
			input:    "https://example.com//a/./b/../c.js",
			expected: "https://example.com/a/c.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalize_InvalidURL(t *testing.T) {
	if _, err := Normalize("http://[::1"); err == nil {
		t.Error("expected parse error")
	}
}

func TestDeduper(t *testing.T) {
	d := NewDeduper()

	if !d.Add("https://example.com/admin") {
		t.Fatal("first URL should be new")
	}
	for _, dup := range []string{
		"https://EXAMPLE.com/admin/",
		"https://example.com:443/admin#top",
		"https://example.com/admin?utm_source=x",
	} {
		if d.Add(dup) {
			t.Errorf("%q should be a duplicate", dup)
		}
	}
	if !d.Add("https://example.com/admin?page=2") {
		t.Error("different query should be new")
	}
	if !d.Add("http://[::1") {
		t.Error("unparseable URL is kept as is")
	}
	if d.Len() != 3 {
		t.Errorf("expected 3 distinct URLs, got %d", d.Len())
	}
}
