package crawler

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/urlutil"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// downloadScript resolves a script src against its page, applies the
// skip-domain filter and the seen-scripts set, and downloads the script to a
// collision-resistant local filename. Returns nil when the script is
// skipped or the download fails; failed URLs stay marked seen so they are
// not retried.
func (c *Crawler) downloadScript(ctx context.Context, src, page string) *ScriptAsset {
	scriptURL, ok := resolveScriptURL(src, page)
	if !ok {
		return nil
	}

	host, ok := urlutil.ExtractHostname(scriptURL)
	if !ok {
		return nil
	}

	if c.isSkippedScriptDomain(host) {
		logrus.Debugf("Skipping script %s (domain %s on skip list)", scriptURL, host)
		return nil
	}

	// Mark before downloading: a failed download must not be retried
	if !c.session.MarkScriptSeen(scriptURL) {
		return nil
	}

	body, err := c.fetcher.FetchText(ctx, scriptURL)
	if err != nil {
		logrus.Warnf("Failed to download script %s: %v", scriptURL, err)
		return nil
	}

	filename := scriptFilename(scriptURL)
	localPath := filepath.Join(c.cfg.ScriptsDir, filename)

	if err := os.MkdirAll(c.cfg.ScriptsDir, 0755); err != nil {
		logrus.Warnf("Failed to create scripts directory: %v", err)
		return nil
	}
	if err := os.WriteFile(localPath, []byte(body), 0644); err != nil {
		logrus.Warnf("Failed to save script %s: %v", scriptURL, err)
		return nil
	}

	logrus.Infof("Downloaded script %s -> %s", scriptURL, filename)

	return &ScriptAsset{
		Filename:    filename,
		OriginalURL: scriptURL,
		FoundOnPage: page,
		LocalPath:   localPath,
	}
}

// isSkippedScriptDomain matches the script host against the configured
// skip-list, exact or subdomain match.
func (c *Crawler) isSkippedScriptDomain(host string) bool {
	for _, entry := range c.cfg.SkipScriptDomains {
		if urlutil.HostMatchesDomain(host, entry) {
			return true
		}
	}
	return false
}

// resolveScriptURL resolves a possibly-relative script src against the page
// it was found on.
func resolveScriptURL(src, page string) (string, bool) {
	if strings.HasPrefix(src, "//") {
		src = "https:" + src
	}
	if strings.Contains(src, "://") {
		canonical, ok := urlutil.CanonicalizeURL(src)
		return canonical, ok
	}

	base, err := url.Parse(page)
	if err != nil {
		return "", false
	}
	resolved, err := base.Parse(src)
	if err != nil || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

// scriptFilename builds a destination filename that cannot collide across
// repeated runs sharing one output directory, even for scripts from
// different sources with the same basename.
func scriptFilename(scriptURL string) string {
	base := "script.js"
	if parsed, err := url.Parse(scriptURL); err == nil {
		if b := path.Base(parsed.Path); b != "" && b != "." && b != "/" {
			base = unsafeFilenameChars.ReplaceAllString(b, "_")
		}
	}
	return strings.Join([]string{
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString()[:8],
		base,
	}, "-")
}
