package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements PageFetcher on top of a Colly collector. Each
// navigation uses a fresh collector so no visit state leaks between pages.
type CollyFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewCollyFetcher creates a Colly-backed page fetcher
func NewCollyFetcher(timeout time.Duration, userAgent string) *CollyFetcher {
	return &CollyFetcher{
		timeout:   timeout,
		userAgent: userAgent,
	}
}

func (f *CollyFetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(f.timeout)
	return c
}

// Navigate fetches a page and extracts its link attributes, script sources
// and serialized markup.
func (f *CollyFetcher) Navigate(ctx context.Context, pageURL string) (*PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &PageResult{URL: pageURL}
	var fetchErr error

	c := f.newCollector()

	c.OnResponse(func(r *colly.Response) {
		result.URL = r.Request.URL.String()
		result.Markup = string(r.Body)
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		e.DOM.Find("[href], [src], form[action]").Each(func(_ int, s *goquery.Selection) {
			for _, attr := range []string{"href", "src", "action"} {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					result.Links = append(result.Links, strings.TrimSpace(v))
				}
			}
		})
		e.DOM.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			src = strings.TrimSpace(src)
			if !ok || src == "" || isExtensionScheme(src) {
				return
			}
			result.ScriptSrcs = append(result.ScriptSrcs, src)
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("navigation failed: %w", fetchErr)
	}
	if result.Markup == "" {
		return nil, fmt.Errorf("navigation to %s returned no content", pageURL)
	}

	return result, nil
}

// FetchText retrieves the raw body of a URL
func (f *CollyFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var body string
	var fetchErr error

	c := f.newCollector()

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(rawURL); err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("fetch failed: %w", fetchErr)
	}

	return body, nil
}

// isExtensionScheme filters browser-extension script sources
// (chrome-extension://, moz-extension:// and similar)
func isExtensionScheme(src string) bool {
	return strings.Contains(src, "-extension://")
}
