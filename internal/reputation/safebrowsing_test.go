package reputation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSafeBrowsingMissingKeySkips(t *testing.T) {
	client := NewSafeBrowsingClient("")

	result := client.CheckURL(context.Background(), "https://example.com")

	if result.Status != SafeBrowsingSkipped {
		t.Errorf("status = %s, want skipped", result.Status)
	}
	if result.Status == SafeBrowsingClean || result.Status == SafeBrowsingError {
		t.Error("skipped must be distinct from clean and error")
	}
	if len(result.Matches) != 0 {
		t.Errorf("matches = %v, want none", result.Matches)
	}
	if result.Details == "" {
		t.Error("skipped result should explain why")
	}
}

func TestSafeBrowsingCleanResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client := NewSafeBrowsingClient("test-key")
	client.endpoint = srv.URL

	result := client.CheckURL(context.Background(), "https://example.com")

	if result.Status != SafeBrowsingClean {
		t.Errorf("status = %s, want clean", result.Status)
	}
	if len(result.Matches) != 0 {
		t.Errorf("matches = %v, want none", result.Matches)
	}
}

func TestSafeBrowsingUnsafeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var match ThreatMatch
		match.ThreatType = "MALWARE"
		match.PlatformType = "ANY_PLATFORM"
		match.ThreatEntryType = "URL"
		match.Threat.URL = "https://bad.example.com"
		json.NewEncoder(w).Encode(threatResponse{Matches: []ThreatMatch{match}})
	}))
	defer srv.Close()

	client := NewSafeBrowsingClient("test-key")
	client.endpoint = srv.URL

	result := client.CheckURL(context.Background(), "https://bad.example.com")

	if result.Status != SafeBrowsingUnsafe {
		t.Errorf("status = %s, want unsafe", result.Status)
	}
	if len(result.Matches) != 1 || result.Matches[0].ThreatType != "MALWARE" {
		t.Errorf("matches = %+v, want one MALWARE match", result.Matches)
	}
}

func TestSafeBrowsingServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewSafeBrowsingClient("test-key")
	client.endpoint = srv.URL

	result := client.CheckURL(context.Background(), "https://example.com")

	if result.Status != SafeBrowsingError {
		t.Errorf("status = %s, want error", result.Status)
	}
}
