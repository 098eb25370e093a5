package crawler

import (
	"sort"
	"sync"
)

// Session owns the mutable state of one crawl run: the seen-pages and
// seen-scripts sets and the per-domain provenance map. A session is never
// shared across runs; a host process may run multiple sessions concurrently.
type Session struct {
	mu          sync.Mutex
	seenPages   map[string]bool
	seenScripts map[string]bool
	sources     map[string]map[string]bool
}

// NewSession creates an empty crawl session
func NewSession() *Session {
	return &Session{
		seenPages:   make(map[string]bool),
		seenScripts: make(map[string]bool),
		sources:     make(map[string]map[string]bool),
	}
}

// MarkPageSeen records a page URL as visited. Returns true only the first
// time a URL is marked; the check and mark are a single atomic step.
func (s *Session) MarkPageSeen(pageURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenPages[pageURL] {
		return false
	}
	s.seenPages[pageURL] = true
	return true
}

// MarkScriptSeen records a script URL as handled, whether or not its
// download later succeeds. Returns true only the first time.
func (s *Session) MarkScriptSeen(scriptURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenScripts[scriptURL] {
		return false
	}
	s.seenScripts[scriptURL] = true
	return true
}

// AddSource accumulates a provenance description for a domain. Sources
// deduplicate across all discovery paths.
func (s *Session) AddSource(domain, source string) {
	if domain == "" || source == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sources[domain] == nil {
		s.sources[domain] = make(map[string]bool)
	}
	s.sources[domain][source] = true
}

// DomainSources returns a snapshot of the provenance map with sources
// sorted for deterministic output.
func (s *Session) DomainSources() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string][]string, len(s.sources))
	for domain, set := range s.sources {
		list := make([]string, 0, len(set))
		for src := range set {
			list = append(list, src)
		}
		sort.Strings(list)
		snapshot[domain] = list
	}
	return snapshot
}
