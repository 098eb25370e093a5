package liveness

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/urlutil"
)

// ScriptEntry links a downloaded script filename back to its origin
type ScriptEntry struct {
	Filename    string
	OriginalURL string
	FoundOnPage string
}

// GatherTargets builds the liveness check input: every domain surfaced by
// the crawl plus every URL-shaped substring found in downloaded script
// files, each carrying its deduplicated provenance list. When a script file
// has no matching metadata entry its provenance falls back to
// "(source unknown)".
func GatherTargets(pageURLs map[string][]string, scripts []ScriptEntry, scriptsDir string) map[string][]string {
	acc := newSourceAccumulator()

	for page, urls := range pageURLs {
		for _, raw := range urls {
			acc.add(raw, "Found on page: "+page)
		}
	}

	byFilename := make(map[string]ScriptEntry, len(scripts))
	for _, s := range scripts {
		byFilename[s.Filename] = s
	}

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Could not read scripts directory %s: %v", scriptsDir, err)
		}
		return acc.result()
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		content, err := os.ReadFile(filepath.Join(scriptsDir, name))
		if err != nil {
			logrus.Warnf("Could not read script file %s: %v", name, err)
			continue
		}

		source := "Found in Script File: " + name + " (source unknown)"
		if meta, ok := byFilename[name]; ok {
			source = "Found in Script File: " + name + " (loaded by " + meta.FoundOnPage + ")"
		}

		for _, raw := range urlutil.FindURLs(string(content)) {
			acc.add(raw, source)
		}
	}

	return acc.result()
}

// sourceAccumulator deduplicates provenance strings per domain
type sourceAccumulator struct {
	sources map[string]map[string]bool
}

func newSourceAccumulator() *sourceAccumulator {
	return &sourceAccumulator{sources: make(map[string]map[string]bool)}
}

func (a *sourceAccumulator) add(rawURL, source string) {
	host, ok := urlutil.ExtractHostname(rawURL)
	if !ok || !urlutil.IsCheckableHost(host) {
		return
	}
	if a.sources[host] == nil {
		a.sources[host] = make(map[string]bool)
	}
	a.sources[host][source] = true
}

func (a *sourceAccumulator) result() map[string][]string {
	out := make(map[string][]string, len(a.sources))
	for domain, set := range a.sources {
		list := make([]string, 0, len(set))
		for src := range set {
			list = append(list, src)
		}
		sort.Strings(list)
		out[domain] = list
	}
	return out
}
