package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dcoric/website-security-scanner/internal/crawler"
	"github.com/dcoric/website-security-scanner/internal/liveness"
	"github.com/dcoric/website-security-scanner/internal/reputation"
)

// Artifact filenames within the output directory
const (
	FoundURLsFile          = "found_urls.json"
	DownloadedScriptsFile  = "downloaded_scripts.json"
	ScanMetadataFile       = "scan-metadata.json"
	DeadDomainsFile        = "dead-domains.json"
	BlacklistReportFile    = "blacklist-report.json"
	SafeBrowsingReportFile = "safebrowsing-report.json"
	SummaryFile            = "security-report.txt"
)

// PageURLs is one found_urls.json entry: every resource URL extracted from
// one page.
type PageURLs struct {
	Page string   `json:"page"`
	URLs []string `json:"urls"`
}

// ScanMetadata counts one crawl run
type ScanMetadata struct {
	ScannedURLCount       int `json:"scannedUrlCount"`
	DownloadedScriptCount int `json:"downloadedScriptCount"`
}

// DeadDomainsReport is the dead-domains.json shape
type DeadDomainsReport struct {
	DeadDomains  []liveness.DeadDomain `json:"deadDomains"`
	TotalChecked int                   `json:"totalChecked"`
	Timestamp    string                `json:"timestamp"`
}

// BlacklistReport is the blacklist-report.json shape: one domain's overall
// status across all configured oracles.
type BlacklistReport struct {
	Domain    string `json:"domain"`
	Status    string `json:"status"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// SafeBrowsingReport is the safebrowsing-report.json shape
type SafeBrowsingReport struct {
	URL       string                   `json:"url"`
	Status    string                   `json:"status"`
	Matches   []reputation.ThreatMatch `json:"matches"`
	Details   string                   `json:"details"`
	Timestamp string                   `json:"timestamp"`
}

// WriteJSON persists any report structure as indented JSON
func WriteJSON(dir, filename string, v any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// GroupByPage folds resource references into the found_urls.json shape,
// preserving page order of first appearance.
func GroupByPage(refs []crawler.ResourceReference) []PageURLs {
	index := make(map[string]int)
	var grouped []PageURLs

	for _, ref := range refs {
		i, ok := index[ref.FoundOnPage]
		if !ok {
			i = len(grouped)
			index[ref.FoundOnPage] = i
			grouped = append(grouped, PageURLs{Page: ref.FoundOnPage})
		}
		grouped[i].URLs = append(grouped[i].URLs, ref.URL)
	}
	return grouped
}

// ReadFoundURLs loads found_urls.json as a page -> urls map
func ReadFoundURLs(dir string) (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FoundURLsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FoundURLsFile, err)
	}

	var entries []PageURLs
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FoundURLsFile, err)
	}

	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		out[e.Page] = append(out[e.Page], e.URLs...)
	}
	return out, nil
}

// ReadDownloadedScripts loads downloaded_scripts.json
func ReadDownloadedScripts(dir string) ([]crawler.ScriptAsset, error) {
	data, err := os.ReadFile(filepath.Join(dir, DownloadedScriptsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DownloadedScriptsFile, err)
	}

	var scripts []crawler.ScriptAsset
	if err := json.Unmarshal(data, &scripts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DownloadedScriptsFile, err)
	}
	return scripts, nil
}
