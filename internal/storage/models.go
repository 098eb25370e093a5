package storage

import "time"

// Run is one recorded scan invocation
type Run struct {
	RunID             string
	TargetURL         string
	StartedAt         time.Time
	FinishedAt        time.Time
	PagesScanned      int
	ScriptsDownloaded int
}

// DomainRecord is one discovered domain within a run, with its provenance
type DomainRecord struct {
	RunID   string
	Domain  string
	Sources []string
}

// FindingRecord is one persisted check outcome within a run
type FindingRecord struct {
	RunID     string
	Category  string // dead-domain | blacklist | safebrowsing
	Subject   string // domain or URL the finding is about
	Status    string
	Details   string
	CreatedAt time.Time
}
