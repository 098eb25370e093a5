package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const safeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// SafeBrowsingStatus values mirror the persisted report vocabulary
const (
	SafeBrowsingClean   = "clean"
	SafeBrowsingUnsafe  = "unsafe"
	SafeBrowsingError   = "error"
	SafeBrowsingSkipped = "skipped"
)

// ThreatMatch is one Safe Browsing API match entry
type ThreatMatch struct {
	ThreatType      string `json:"threatType"`
	PlatformType    string `json:"platformType"`
	ThreatEntryType string `json:"threatEntryType"`
	Threat          struct {
		URL string `json:"url"`
	} `json:"threat"`
}

// SafeBrowsingResult is the verdict for one full URL. A missing API key
// yields status "skipped", which is distinct from both "clean" and "error"
// and contributes nothing to the issue total.
type SafeBrowsingResult struct {
	URL     string        `json:"url"`
	Status  string        `json:"status"`
	Matches []ThreatMatch `json:"matches"`
	Details string        `json:"details"`
}

// SafeBrowsingClient checks full URLs against the Google Safe Browsing v4
// lookup API.
type SafeBrowsingClient struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

// NewSafeBrowsingClient creates a client; an empty key degrades every check
// to the skipped status.
func NewSafeBrowsingClient(apiKey string) *SafeBrowsingClient {
	return &SafeBrowsingClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		endpoint:   safeBrowsingEndpoint,
	}
}

type threatRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string            `json:"threatTypes"`
		PlatformTypes    []string            `json:"platformTypes"`
		ThreatEntryTypes []string            `json:"threatEntryTypes"`
		ThreatEntries    []map[string]string `json:"threatEntries"`
	} `json:"threatInfo"`
}

type threatResponse struct {
	Matches []ThreatMatch `json:"matches"`
}

// CheckURL queries the Safe Browsing API for one URL
func (c *SafeBrowsingClient) CheckURL(ctx context.Context, targetURL string) SafeBrowsingResult {
	result := SafeBrowsingResult{URL: targetURL, Matches: []ThreatMatch{}}

	if c.apiKey == "" {
		result.Status = SafeBrowsingSkipped
		result.Details = "GOOGLE_SAFE_BROWSING_KEY not set, check skipped"
		return result
	}

	var reqBody threatRequest
	reqBody.Client.ClientID = "website-security-scanner"
	reqBody.Client.ClientVersion = "1.0"
	reqBody.ThreatInfo.ThreatTypes = []string{
		"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION",
	}
	reqBody.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	reqBody.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	reqBody.ThreatInfo.ThreatEntries = []map[string]string{{"url": targetURL}}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		result.Status = SafeBrowsingError
		result.Details = err.Error()
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		result.Status = SafeBrowsingError
		result.Details = err.Error()
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Status = SafeBrowsingError
		result.Details = err.Error()
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		result.Status = SafeBrowsingError
		result.Details = err.Error()
		return result
	}

	if resp.StatusCode != http.StatusOK {
		result.Status = SafeBrowsingError
		result.Details = fmt.Sprintf("Safe Browsing API returned status %d", resp.StatusCode)
		return result
	}

	var parsed threatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		result.Status = SafeBrowsingError
		result.Details = err.Error()
		return result
	}

	if len(parsed.Matches) > 0 {
		result.Status = SafeBrowsingUnsafe
		result.Matches = parsed.Matches
		result.Details = fmt.Sprintf("%d threat match(es) reported", len(parsed.Matches))
	} else {
		result.Status = SafeBrowsingClean
		result.Details = "No threats found"
	}
	return result
}
