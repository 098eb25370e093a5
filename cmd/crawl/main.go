package main

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/crawler"
	"github.com/dcoric/website-security-scanner/internal/fetcher"
	"github.com/dcoric/website-security-scanner/internal/report"
	"github.com/dcoric/website-security-scanner/internal/sitemap"
	"github.com/dcoric/website-security-scanner/internal/storage"
	"github.com/dcoric/website-security-scanner/internal/version"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if len(os.Args) < 2 {
		logrus.Error("Usage: crawl <target-URL>")
		os.Exit(1)
	}
	target := os.Args[1]

	logrus.Infof("Website Security Scanner v%s crawling %s", version.Version, target)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	targetURL, err := url.Parse(target)
	if err != nil || targetURL.Host == "" {
		logrus.Fatalf("Invalid target URL: %s", target)
	}

	ctx := context.Background()
	f := fetcher.NewCollyFetcher(
		time.Duration(cfg.NavigationTimeoutMs)*time.Millisecond,
		cfg.UserAgent,
	)

	sitemapURL := (&url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/sitemap.xml"}).String()
	resolved := sitemap.Resolve(ctx, f, sitemapURL)
	pages := sitemap.MergeAndTruncate(target, resolved, cfg.MaxPages)
	logrus.Infof("Crawling %d page(s) (sitemap resolved %d)", len(pages), len(resolved))

	session := crawler.NewSession()
	c := crawler.New(cfg, f, session, nil)
	refs, scripts, meta := c.Crawl(ctx, pages)

	logrus.Infof("Crawl complete: %d pages visited, %d resource URLs, %d scripts downloaded",
		meta.ScannedURLCount, len(refs), meta.DownloadedScriptCount)

	writeArtifacts(cfg, refs, scripts, meta)
	recordHistory(cfg, target, session, meta)
}

func writeArtifacts(cfg *config.Config, refs []crawler.ResourceReference, scripts []crawler.ScriptAsset, meta crawler.Metadata) {
	if scripts == nil {
		scripts = []crawler.ScriptAsset{}
	}

	if err := report.WriteJSON(cfg.OutputDir, report.FoundURLsFile, report.GroupByPage(refs)); err != nil {
		logrus.Errorf("Failed to write found URLs: %v", err)
	}
	if err := report.WriteJSON(cfg.OutputDir, report.DownloadedScriptsFile, scripts); err != nil {
		logrus.Errorf("Failed to write script inventory: %v", err)
	}
	scanMeta := report.ScanMetadata{
		ScannedURLCount:       meta.ScannedURLCount,
		DownloadedScriptCount: meta.DownloadedScriptCount,
	}
	if err := report.WriteJSON(cfg.OutputDir, report.ScanMetadataFile, scanMeta); err != nil {
		logrus.Errorf("Failed to write scan metadata: %v", err)
	}
}

func recordHistory(cfg *config.Config, target string, session *crawler.Session, meta crawler.Metadata) {
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
	if err := store.FinishRun(runID, meta.ScannedURLCount, meta.DownloadedScriptCount); err != nil {
		logrus.Warnf("Failed to finalize run record: %v", err)
	}
}
