package urlutil

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// urlPattern matches absolute-URL-shaped substrings in raw markup or script
// text. This is a recall-oriented heuristic: false positives are expected
// and dropped downstream by hostname validation.
var urlPattern = regexp.MustCompile(`https?://[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+`)

// trailing punctuation that commonly terminates a URL-shaped match inside
// markup or quoted script text
const trailingJunk = `.,;:!?'")]}>`

// CanonicalizeURL turns a raw string into a canonical URL form.
// Protocol-relative inputs are coerced to https, bare hostnames are returned
// as-is, and schemeless inputs with a path get an https prefix.
// Returns false for malformed input; callers should drop those silently.
func CanonicalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	if !strings.Contains(raw, "://") {
		// Bare hostname: no scheme and no path separator
		if !strings.Contains(raw, "/") {
			return strings.ToLower(raw), true
		}
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	return parsed.String(), true
}

// ExtractHostname extracts the lowercase hostname from a raw URL string,
// accepting the same input shapes as CanonicalizeURL.
func ExtractHostname(raw string) (string, bool) {
	canonical, ok := CanonicalizeURL(raw)
	if !ok {
		return "", false
	}

	if !strings.Contains(canonical, "://") {
		// Bare hostname passed through; strip any port
		host := canonical
		if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host, "]") {
			host = host[:i]
		}
		return strings.ToLower(host), true
	}

	parsed, err := url.Parse(canonical)
	if err != nil {
		return "", false
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", false
	}

	return strings.ToLower(hostname), true
}

// IsCheckableHost reports whether a hostname is worth sending to any
// reputation or liveness check. Loopback names and dotless hosts carry no
// useful signal.
func IsCheckableHost(host string) bool {
	if host == "" {
		return false
	}
	if strings.Contains(host, "localhost") {
		return false
	}
	if strings.Contains(host, "127.0.0.1") {
		return false
	}
	return strings.Contains(host, ".")
}

// FindURLs scans arbitrary text (serialized markup, script file content) for
// absolute-URL-shaped substrings and returns them with trailing punctuation
// trimmed. Matches are returned in order of appearance, duplicates included.
func FindURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, trailingJunk)
		if m == "" {
			continue
		}
		urls = append(urls, m)
	}
	return urls
}

// RegistrableDomain returns the eTLD+1 of a hostname, or the hostname itself
// when the public suffix list cannot derive one.
func RegistrableDomain(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return strings.ToLower(etld1)
}

// HostMatchesDomain reports whether host equals entry, is a subdomain of
// entry, or shares its registrable domain with entry. Used by the script
// skip-list to match both exact hosts and whole domains.
func HostMatchesDomain(host, entry string) bool {
	host = strings.ToLower(host)
	entry = strings.ToLower(entry)
	if host == entry {
		return true
	}
	if strings.HasSuffix(host, "."+entry) {
		return true
	}
	return RegistrableDomain(host) == entry
}
