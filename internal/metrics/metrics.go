package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Snapshot is the exported view of one run's progress counters
type Snapshot struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	PagesVisited      int       `json:"pages_visited"`
	PagesFailed       int       `json:"pages_failed"`
	ScriptsDownloaded int       `json:"scripts_downloaded"`
	DomainsChecked    int       `json:"domains_checked"`
	DeadDomains       int       `json:"dead_domains"`
	TerminationReason string    `json:"termination_reason"`
}

// Tracker holds and manages scan progress metrics
type Tracker struct {
	mu   sync.Mutex
	data Snapshot
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: Snapshot{
			StartTime: time.Now(),
		},
	}
}

// IncrementPagesVisited increments the visited page counter
func (t *Tracker) IncrementPagesVisited() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesVisited++
}

// IncrementPagesFailed increments the failed navigation counter
func (t *Tracker) IncrementPagesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFailed++
}

// IncrementScriptsDownloaded increments the downloaded script counter
func (t *Tracker) IncrementScriptsDownloaded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ScriptsDownloaded++
}

// AddDomainsChecked adds to the checked-domain counter
func (t *Tracker) AddDomainsChecked(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.DomainsChecked += n
}

// AddDeadDomains adds to the dead-domain counter
func (t *Tracker) AddDeadDomains(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.DeadDomains += n
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress prints current metrics to console (for periodic updates)
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Pages: %d visited, %d failed | Scripts: %d | Domains: %d checked, %d dead",
		t.data.PagesVisited,
		t.data.PagesFailed,
		t.data.ScriptsDownloaded,
		t.data.DomainsChecked,
		t.data.DeadDomains,
	)
}
