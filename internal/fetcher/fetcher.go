package fetcher

import "context"

// PageResult captures the observable state of a fetched page: where
// navigation actually landed, every URL-bearing attribute in the rendered
// markup, the script sources, and the serialized markup itself.
type PageResult struct {
	// URL is the final URL after redirects
	URL string
	// Links holds every href, src and form action attribute value
	Links []string
	// ScriptSrcs holds the src of every script tag with a non-extension-scheme source
	ScriptSrcs []string
	// Markup is the serialized page markup
	Markup string
}

// PageFetcher is the external page-fetching capability the crawl pipeline
// depends on. The crawl logic must not assume any concrete fetch mechanism;
// an implementation may be a headless browser client or a plain HTTP fetcher.
type PageFetcher interface {
	// Navigate fetches a page and returns its extracted state. It fails on
	// timeout, network error or non-2xx status.
	Navigate(ctx context.Context, pageURL string) (*PageResult, error)

	// FetchText retrieves the raw body of a URL (sitemap XML, script files)
	// using the same network context as page navigation.
	FetchText(ctx context.Context, rawURL string) (string, error)
}
