package urlutil

import (
	"reflect"
	"testing"
)

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"absolute", "https://example.com/path", "https://example.com/path", true},
		{"protocol relative", "//example.com/path", "https://example.com/path", true},
		{"bare hostname", "example.com", "example.com", true},
		{"bare hostname uppercase", "Example.COM", "example.com", true},
		{"schemeless with path", "example.com/assets/app.js", "https://example.com/assets/app.js", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"malformed", "https://exa mple.com/%zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalizeURL(tt.input)
			if ok != tt.ok {
				t.Fatalf("CanonicalizeURL(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("CanonicalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestProtocolRelativeMatchesHTTPS(t *testing.T) {
	inputs := []string{"example.com/a", "cdn.example.org/x/y?z=1", "deep.sub.example.net"}

	for _, in := range inputs {
		relHost, ok1 := ExtractHostname("//" + in)
		httpsHost, ok2 := ExtractHostname("https://" + in)
		if !ok1 || !ok2 {
			t.Fatalf("extraction failed for %q", in)
		}
		if relHost != httpsHost {
			t.Errorf("hostname mismatch for %q: %q vs %q", in, relHost, httpsHost)
		}
	}
}

func TestExtractHostname(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"https://Example.COM/path", "example.com", true},
		{"//cdn.example.org/app.js", "cdn.example.org", true},
		{"example.com", "example.com", true},
		{"https://example.com:8443/x", "example.com", true},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractHostname(tt.input)
		if ok != tt.ok {
			t.Fatalf("ExtractHostname(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Errorf("ExtractHostname(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsCheckableHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"sub.example.com", true},
		{"localhost", false},
		{"app.localhost", false},
		{"127.0.0.1", false},
		{"intranet", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCheckableHost(tt.host); got != tt.want {
			t.Errorf("IsCheckableHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestFindURLs(t *testing.T) {
	text := `<script>var api = "https://api.example.com/v1";</script>
	fetch('http://cdn.example.org/bundle.js');
	// see https://docs.example.net/guide.`

	got := FindURLs(text)
	want := []string{
		"https://api.example.com/v1",
		"http://cdn.example.org/bundle.js",
		"https://docs.example.net/guide",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindURLs = %v, want %v", got, want)
	}
}

func TestFindURLsNoMatches(t *testing.T) {
	if got := FindURLs("no urls here, just text"); got != nil {
		t.Errorf("FindURLs on plain text = %v, want nil", got)
	}
}

func TestHostMatchesDomain(t *testing.T) {
	tests := []struct {
		host  string
		entry string
		want  bool
	}{
		{"google-analytics.com", "google-analytics.com", true},
		{"www.google-analytics.com", "google-analytics.com", true},
		{"ssl.google-analytics.com", "google-analytics.com", true},
		{"notgoogle-analytics.com", "google-analytics.com", false},
		{"example.com", "google-analytics.com", false},
	}

	for _, tt := range tests {
		if got := HostMatchesDomain(tt.host, tt.entry); got != tt.want {
			t.Errorf("HostMatchesDomain(%q, %q) = %v, want %v", tt.host, tt.entry, got, tt.want)
		}
	}
}
