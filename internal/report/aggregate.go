package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dcoric/website-security-scanner/internal/reputation"
)

// Run classification labels used verbatim at the reporting boundary
const (
	StatusClean       = "Clean"
	StatusIssuesFound = "Issues Found"
)

// Summary is the combined outcome of one full scan
type Summary struct {
	Target             string `json:"target"`
	Status             string `json:"status"`
	TotalIssues        int    `json:"totalIssues"`
	DeadDomainCount    int    `json:"deadDomainCount"`
	BlacklistListed    bool   `json:"blacklistListed"`
	SafeBrowsingListed bool   `json:"safeBrowsingListed"`
	ScannedURLCount    int    `json:"scannedUrlCount"`
	DownloadedScripts  int    `json:"downloadedScriptCount"`
	Timestamp          string `json:"timestamp"`
}

// Aggregate merges the per-check reports into one run classification.
// Total issues = dead-domain count + blacklist listing (0 or 1) + Safe
// Browsing listing (0 or 1). A skipped Safe Browsing check contributes
// nothing.
func Aggregate(target string, dead *DeadDomainsReport, blacklist *BlacklistReport, safeBrowsing *SafeBrowsingReport, meta ScanMetadata) Summary {
	summary := Summary{
		Target:            target,
		ScannedURLCount:   meta.ScannedURLCount,
		DownloadedScripts: meta.DownloadedScriptCount,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	}

	if dead != nil {
		summary.DeadDomainCount = len(dead.DeadDomains)
		summary.TotalIssues += len(dead.DeadDomains)
	}
	if blacklist != nil && blacklist.Status == string(reputation.ClassListed) {
		summary.BlacklistListed = true
		summary.TotalIssues++
	}
	if safeBrowsing != nil && safeBrowsing.Status == reputation.SafeBrowsingUnsafe {
		summary.SafeBrowsingListed = true
		summary.TotalIssues++
	}

	if summary.TotalIssues == 0 {
		summary.Status = StatusClean
	} else {
		summary.Status = StatusIssuesFound
	}
	return summary
}

// RenderSummaryText produces the combined human-readable report artifact
func RenderSummaryText(summary Summary, dead *DeadDomainsReport, blacklist *BlacklistReport, safeBrowsing *SafeBrowsingReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Website Security Scan Report\n")
	fmt.Fprintf(&b, "============================\n\n")
	fmt.Fprintf(&b, "Target:    %s\n", summary.Target)
	fmt.Fprintf(&b, "Generated: %s\n", summary.Timestamp)
	fmt.Fprintf(&b, "Status:    %s (%d issue(s))\n\n", summary.Status, summary.TotalIssues)

	fmt.Fprintf(&b, "Crawl\n-----\n")
	fmt.Fprintf(&b, "Pages scanned:      %d\n", summary.ScannedURLCount)
	fmt.Fprintf(&b, "Scripts downloaded: %d\n\n", summary.DownloadedScripts)

	fmt.Fprintf(&b, "Dead Domains\n------------\n")
	if dead == nil || len(dead.DeadDomains) == 0 {
		fmt.Fprintf(&b, "None found.\n\n")
	} else {
		for _, d := range dead.DeadDomains {
			fmt.Fprintf(&b, "- %s (%s)\n", d.Domain, d.Error)
			for _, src := range d.Sources {
				fmt.Fprintf(&b, "    %s\n", src)
			}
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "Blacklists\n----------\n")
	if blacklist == nil {
		fmt.Fprintf(&b, "Not checked.\n\n")
	} else {
		fmt.Fprintf(&b, "%s: %s\n%s\n\n", blacklist.Domain, blacklist.Status, blacklist.Details)
	}

	fmt.Fprintf(&b, "Safe Browsing\n-------------\n")
	if safeBrowsing == nil {
		fmt.Fprintf(&b, "Not checked.\n")
	} else {
		fmt.Fprintf(&b, "%s: %s\n%s\n", safeBrowsing.URL, safeBrowsing.Status, safeBrowsing.Details)
	}

	return b.String()
}

// BuildBlacklistReport derives the persisted blacklist report from a domain's
// oracle verdicts.
func BuildBlacklistReport(domainReport reputation.DomainReport) BlacklistReport {
	rep := BlacklistReport{
		Domain:    domainReport.Domain,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var listed, blocked, errored, clean []string
	var details []string
	for _, v := range domainReport.Verdicts {
		switch v.Class {
		case reputation.ClassListed:
			listed = append(listed, v.Oracle)
			details = append(details, fmt.Sprintf("%s listed %s with codes %s",
				v.Oracle, v.Target, strings.Join(v.Codes, ", ")))
		case reputation.ClassBlocked:
			blocked = append(blocked, v.Oracle)
			details = append(details, fmt.Sprintf("%s refused the query (codes %s)",
				v.Oracle, strings.Join(v.IgnoredCodes, ", ")))
		case reputation.ClassError:
			errored = append(errored, v.Oracle)
			details = append(details, fmt.Sprintf("%s lookup failed: %s", v.Oracle, v.Error))
		case reputation.ClassClean:
			clean = append(clean, v.Oracle)
		}
	}

	switch {
	case len(listed) > 0:
		rep.Status = string(reputation.ClassListed)
	case len(blocked) > 0:
		rep.Status = string(reputation.ClassBlocked)
	case len(clean) == 0 && len(errored) > 0:
		rep.Status = string(reputation.ClassError)
	default:
		rep.Status = string(reputation.ClassClean)
	}

	if len(details) == 0 {
		details = append(details, fmt.Sprintf("No listings across %d blocklists", len(domainReport.Verdicts)))
	}
	rep.Details = strings.Join(details, "; ")
	return rep
}
