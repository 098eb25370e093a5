package crawler

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/dcoric/website-security-scanner/internal/fetcher"
)

// robotsGuard gates page visits on the target's robots.txt. Fetch or parse
// failures fail open: the crawl proceeds unrestricted.
type robotsGuard struct {
	rules *robotstxt.RobotsData
	agent string
}

func fetchRobots(ctx context.Context, f fetcher.PageFetcher, seedURL, agent string) *robotsGuard {
	guard := &robotsGuard{agent: agent}

	seed, err := url.Parse(seedURL)
	if err != nil || seed.Host == "" {
		return guard
	}

	robotsURL := (&url.URL{Scheme: seed.Scheme, Host: seed.Host, Path: "/robots.txt"}).String()
	body, err := f.FetchText(ctx, robotsURL)
	if err != nil {
		logrus.Warnf("Failed to fetch %s, crawling unrestricted: %v", robotsURL, err)
		return guard
	}

	rules, err := robotstxt.FromString(body)
	if err != nil {
		logrus.Warnf("Failed to parse %s, crawling unrestricted: %v", robotsURL, err)
		return guard
	}

	guard.rules = rules
	return guard
}

func (g *robotsGuard) Allowed(pageURL string) bool {
	if g == nil || g.rules == nil {
		return true
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return true
	}
	group := g.rules.FindGroup(g.agent)
	if group == nil {
		group = g.rules.FindGroup("*")
	}
	if group == nil {
		return true
	}
	return group.Test(parsed.Path)
}
