package main

import (
	"context"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/crawler"
	"github.com/dcoric/website-security-scanner/internal/fetcher"
	"github.com/dcoric/website-security-scanner/internal/liveness"
	"github.com/dcoric/website-security-scanner/internal/metrics"
	"github.com/dcoric/website-security-scanner/internal/report"
	"github.com/dcoric/website-security-scanner/internal/reputation"
	"github.com/dcoric/website-security-scanner/internal/sitemap"
	"github.com/dcoric/website-security-scanner/internal/storage"
	"github.com/dcoric/website-security-scanner/internal/urlutil"
	"github.com/dcoric/website-security-scanner/internal/version"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if len(os.Args) < 2 {
		logrus.Error("Usage: scan <target-URL>")
		os.Exit(1)
	}
	target := os.Args[1]
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	logrus.Infof("Website Security Scanner v%s starting full scan of %s", version.Version, target)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	targetURL, err := url.Parse(target)
	if err != nil || targetURL.Host == "" {
		logrus.Fatalf("Invalid target URL: %s", target)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		logrus.Warnf("Received signal %v, finishing in-flight checks...", sig)
		cancel()
	}()

	tracker := metrics.NewTracker()

	stopProgress := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	// 1. Crawl
	f := fetcher.NewCollyFetcher(
		time.Duration(cfg.NavigationTimeoutMs)*time.Millisecond,
		cfg.UserAgent,
	)
	sitemapURL := (&url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/sitemap.xml"}).String()
	resolved := sitemap.Resolve(ctx, f, sitemapURL)
	pages := sitemap.MergeAndTruncate(target, resolved, cfg.MaxPages)
	logrus.Infof("Crawling %d page(s)", len(pages))

	session := crawler.NewSession()
	c := crawler.New(cfg, f, session, func(visited, failed, downloaded int) {
		if visited > 0 {
			tracker.IncrementPagesVisited()
		}
		if failed > 0 {
			tracker.IncrementPagesFailed()
		}
		if downloaded > 0 {
			tracker.IncrementScriptsDownloaded()
		}
	})
	refs, scripts, meta := c.Crawl(ctx, pages)
	if scripts == nil {
		scripts = []crawler.ScriptAsset{}
	}

	scanMeta := report.ScanMetadata{
		ScannedURLCount:       meta.ScannedURLCount,
		DownloadedScriptCount: meta.DownloadedScriptCount,
	}
	writeOrLog(cfg, report.FoundURLsFile, report.GroupByPage(refs))
	writeOrLog(cfg, report.DownloadedScriptsFile, scripts)
	writeOrLog(cfg, report.ScanMetadataFile, scanMeta)

	// 2. Dead-domain liveness check
	var scriptEntries []liveness.ScriptEntry
	for _, s := range scripts {
		scriptEntries = append(scriptEntries, liveness.ScriptEntry{
			Filename:    s.Filename,
			OriginalURL: s.OriginalURL,
			FoundOnPage: s.FoundOnPage,
		})
	}
	pageURLs := make(map[string][]string)
	for _, group := range report.GroupByPage(refs) {
		pageURLs[group.Page] = group.URLs
	}

	targets := liveness.GatherTargets(pageURLs, scriptEntries, cfg.ScriptsDir)
	logrus.Infof("Checking %d unique domain(s) for dangling DNS records", len(targets))
	tracker.AddDomainsChecked(len(targets))

	dnsTimeout := time.Duration(cfg.DNSTimeoutMs) * time.Millisecond
	dead := liveness.NewChecker(net.DefaultResolver, dnsTimeout).Check(ctx, targets)
	if dead == nil {
		dead = []liveness.DeadDomain{}
	}
	tracker.AddDeadDomains(len(dead))

	deadReport := report.DeadDomainsReport{
		DeadDomains:  dead,
		TotalChecked: len(targets),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	writeOrLog(cfg, report.DeadDomainsFile, deadReport)

	// 3. Blocklist check for the target's own domain
	var blacklistReport *report.BlacklistReport
	if domain, ok := urlutil.ExtractHostname(target); ok && urlutil.IsCheckableHost(domain) {
		checker := reputation.NewChecker(net.DefaultResolver, reputation.DefaultOracles(), dnsTimeout)
		domainReport := checker.CheckDomain(ctx, domain)
		rep := report.BuildBlacklistReport(domainReport)
		blacklistReport = &rep
		writeOrLog(cfg, report.BlacklistReportFile, rep)
	} else {
		logrus.Warnf("Target %s has no checkable domain, skipping blocklists", target)
	}

	// 4. Safe Browsing check for the full URL
	sbResult := reputation.NewSafeBrowsingClient(cfg.SafeBrowsingKey).CheckURL(ctx, target)
	sbReport := report.SafeBrowsingReport{
		URL:       sbResult.URL,
		Status:    sbResult.Status,
		Matches:   sbResult.Matches,
		Details:   sbResult.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	writeOrLog(cfg, report.SafeBrowsingReportFile, sbReport)

	// 5. Aggregate
	summary := report.Aggregate(target, &deadReport, blacklistReport, &sbReport, scanMeta)
	summaryText := report.RenderSummaryText(summary, &deadReport, blacklistReport, &sbReport)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err == nil {
		if err := os.WriteFile(cfg.OutputDir+"/"+report.SummaryFile, []byte(summaryText), 0644); err != nil {
			logrus.Errorf("Failed to write summary report: %v", err)
		}
	}

	close(stopProgress)
	logrus.Info("Final stats: " + tracker.LogProgress())
	if err := tracker.WriteToFile(cfg.OutputDir+"/scan-metrics.json", "completed"); err != nil {
		logrus.Warnf("Failed to write metrics file: %v", err)
	}

	recordHistory(cfg, target, session, meta, deadReport, blacklistReport, sbReport)

	logrus.Infof("Scan result: %s (%d issue(s))", summary.Status, summary.TotalIssues)
	if summary.Status != report.StatusClean {
		os.Exit(1)
	}
}

func writeOrLog(cfg *config.Config, filename string, v any) {
	if err := report.WriteJSON(cfg.OutputDir, filename, v); err != nil {
		logrus.Errorf("Failed to write %s: %v", filename, err)
	}
}

func recordHistory(cfg *config.Config, target string, session *crawler.Session, meta crawler.Metadata,
	deadReport report.DeadDomainsReport, blacklistReport *report.BlacklistReport, sbReport report.SafeBrowsingReport) {

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logrus.Warnf("Scan history unavailable: %v", err)
		return
	}
	defer store.Close()

	runID := uuid.NewString()
	if err := store.RecordRun(runID, target, time.Now().UTC()); err != nil {
		logrus.Warnf("Failed to record run: %v", err)
		return
	}
	if err := store.RecordDomains(runID, session.DomainSources()); err != nil {
		logrus.Warnf("Failed to record domains: %v", err)
	}
	for _, d := range deadReport.DeadDomains {
		if err := store.RecordFinding(runID, "dead-domain", d.Domain, "dead", d.Error); err != nil {
			logrus.Warnf("Failed to record finding: %v", err)
		}
	}
	if blacklistReport != nil {
		if err := store.RecordFinding(runID, "blacklist", blacklistReport.Domain,
			blacklistReport.Status, blacklistReport.Details); err != nil {
			logrus.Warnf("Failed to record finding: %v", err)
		}
	}
	if err := store.RecordFinding(runID, "safebrowsing", sbReport.URL,
		sbReport.Status, sbReport.Details); err != nil {
		logrus.Warnf("Failed to record finding: %v", err)
	}
	if err := store.FinishRun(runID, meta.ScannedURLCount, meta.DownloadedScriptCount); err != nil {
		logrus.Warnf("Failed to finalize run record: %v", err)
	}
}
