package sitemap

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxNodes bounds the total number of sitemap documents fetched during one
// resolution. Cyclic or adversarial sitemap indexes terminate at this cap.
const maxNodes = 50

// TextFetcher is the subset of the page-fetcher capability sitemap
// resolution needs.
type TextFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}

type sitemapIndex struct {
	Sitemaps []locEntry `xml:"sitemap"`
}

type urlSet struct {
	URLs []locEntry `xml:"url"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// Resolve recursively flattens a sitemap (index or url-set) into page URLs
// in discovery order. Fetch or parse failures for a single sitemap node are
// logged and yield nothing for that node; resolution continues.
func Resolve(ctx context.Context, f TextFetcher, sitemapURL string) []string {
	queue := []string{sitemapURL}
	visited := make(map[string]bool)
	var pages []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		if len(visited) >= maxNodes {
			logrus.Warnf("Sitemap node cap (%d) reached, skipping remaining sitemaps", maxNodes)
			break
		}
		visited[current] = true

		body, err := f.FetchText(ctx, current)
		if err != nil {
			logrus.Warnf("Failed to fetch sitemap %s: %v", current, err)
			continue
		}

		children, leaves, err := parse([]byte(body))
		if err != nil {
			logrus.Warnf("Failed to parse sitemap %s: %v", current, err)
			continue
		}

		queue = append(queue, children...)
		pages = append(pages, leaves...)
	}

	return pages
}

// parse handles the two sitemap shapes: an index of child sitemaps and a
// flat url-set of leaf pages.
func parse(data []byte) (children []string, pages []string, err error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err == nil && len(index.Sitemaps) > 0 {
		for _, sm := range index.Sitemaps {
			if loc := strings.TrimSpace(sm.Loc); loc != "" {
				children = append(children, loc)
			}
		}
		return children, nil, nil
	}

	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, nil, err
	}
	for _, entry := range set.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			pages = append(pages, loc)
		}
	}
	return nil, pages, nil
}

// MergeAndTruncate prepends the seed URL, deduplicates preserving discovery
// order, and keeps the first max entries.
func MergeAndTruncate(seed string, resolved []string, max int) []string {
	seen := make(map[string]bool)
	var merged []string

	for _, u := range append([]string{seed}, resolved...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		merged = append(merged, u)
	}

	if max > 0 && len(merged) > max {
		logrus.Warnf("Discovered %d pages, truncating to first %d", len(merged), max)
		merged = merged[:max]
	}

	return merged
}
