package crawler

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/fetcher"
	"github.com/dcoric/website-security-scanner/internal/urlutil"
)

// ResourceReference is a (url, foundOnPage) pair for any href/src/action or
// URL-pattern match discovered on a page. The same URL may appear with
// multiple source pages; within one page's extraction pass duplicates are
// removed.
type ResourceReference struct {
	URL         string `json:"url"`
	FoundOnPage string `json:"foundOnPage"`
}

// ScriptAsset describes a downloaded script file
type ScriptAsset struct {
	Filename    string `json:"filename"`
	OriginalURL string `json:"originalUrl"`
	FoundOnPage string `json:"foundOnPage"`
	LocalPath   string `json:"-"`
}

// Metadata counts one crawl run
type Metadata struct {
	ScannedURLCount       int
	DownloadedScriptCount int
}

// Crawler visits each candidate page exactly once, extracts resource
// references with provenance, and downloads first-party scripts.
type Crawler struct {
	cfg             *config.Config
	fetcher         fetcher.PageFetcher
	session         *Session
	robots          *robotsGuard
	metricsCallback func(pagesVisited, pagesFailed, scriptsDownloaded int)
}

// New creates a crawler bound to one session. The metrics callback may be
// nil.
func New(cfg *config.Config, f fetcher.PageFetcher, session *Session, metricsCallback func(int, int, int)) *Crawler {
	return &Crawler{
		cfg:             cfg,
		fetcher:         f,
		session:         session,
		metricsCallback: metricsCallback,
	}
}

// Crawl visits the given page URLs sequentially. A single page failure never
// aborts the crawl.
func (c *Crawler) Crawl(ctx context.Context, pages []string) ([]ResourceReference, []ScriptAsset, Metadata) {
	var refs []ResourceReference
	var scripts []ScriptAsset
	var meta Metadata

	if c.cfg.RespectRobots && len(pages) > 0 {
		c.robots = fetchRobots(ctx, c.fetcher, pages[0], c.cfg.UserAgent)
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("Crawl interrupted: %v", err)
			break
		}

		if !c.pathAllowed(page) {
			logrus.Infof("Skipping %s (excluded by URL prefix filter)", page)
			continue
		}

		if !c.session.MarkPageSeen(page) {
			continue
		}

		if c.robots != nil && !c.robots.Allowed(page) {
			logrus.Infof("Skipping %s (disallowed by robots.txt)", page)
			continue
		}

		logrus.Infof("Visiting %s", page)
		result, err := c.fetcher.Navigate(ctx, page)
		if err != nil {
			logrus.Warnf("Failed to visit %s: %v", page, err)
			if c.metricsCallback != nil {
				c.metricsCallback(0, 1, 0)
			}
			continue
		}
		meta.ScannedURLCount++
		if c.metricsCallback != nil {
			c.metricsCallback(1, 0, 0)
		}

		pageRefs := c.extract(result)
		for _, ref := range pageRefs {
			refs = append(refs, ResourceReference{URL: ref, FoundOnPage: page})
			if host, ok := urlutil.ExtractHostname(ref); ok && urlutil.IsCheckableHost(host) {
				c.session.AddSource(host, "Found on page: "+page)
			}
		}
		logrus.Infof("Found %d resource URLs on %s", len(pageRefs), page)

		for _, src := range result.ScriptSrcs {
			asset := c.downloadScript(ctx, src, page)
			if asset != nil {
				scripts = append(scripts, *asset)
				meta.DownloadedScriptCount++
				if c.metricsCallback != nil {
					c.metricsCallback(0, 0, 1)
				}
			}
		}
	}

	return refs, scripts, meta
}

// extract collects candidate resource URLs from one page: every URL-bearing
// attribute plus every absolute-URL-shaped substring in the serialized
// markup. Duplicates within the page are removed; order follows first
// appearance.
func (c *Crawler) extract(result *fetcher.PageResult) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(raw string) {
		canonical, ok := urlutil.CanonicalizeURL(raw)
		if !ok || seen[canonical] {
			return
		}
		seen[canonical] = true
		out = append(out, canonical)
	}

	for _, link := range result.Links {
		add(link)
	}
	for _, match := range urlutil.FindURLs(result.Markup) {
		add(match)
	}

	return out
}

// pathAllowed applies the skip/include prefix filter: a page is excluded iff
// its path starts with a skip prefix and no include prefix overrides it.
func (c *Crawler) pathAllowed(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	path := parsed.Path

	skipped := false
	for _, prefix := range c.cfg.SkipURLPrefixes {
		if strings.HasPrefix(path, prefix) {
			skipped = true
			break
		}
	}
	if !skipped {
		return true
	}

	for _, prefix := range c.cfg.IncludeURLPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
