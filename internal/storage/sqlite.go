package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps scan history so repeated runs against one property can be
// compared. The JSON artifacts remain the authoritative report output; this
// is the supplementary record.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database and initializes the schema
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		target_url TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		pages_scanned INTEGER DEFAULT 0,
		scripts_downloaded INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS domains (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		sources TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, domain)
	);

	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		subject TEXT NOT NULL,
		status TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_domains_run ON domains(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_category ON findings(category);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun inserts a new run row
func (s *Store) RecordRun(runID, targetURL string, startedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, target_url, started_at)
		VALUES (?, ?, ?)
	`, runID, targetURL, startedAt)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// FinishRun stamps a run's completion time and crawl counts
func (s *Store) FinishRun(runID string, pagesScanned, scriptsDownloaded int) error {
	_, err := s.db.Exec(`
		UPDATE runs
		SET finished_at = ?, pages_scanned = ?, scripts_downloaded = ?
		WHERE run_id = ?
	`, time.Now().UTC(), pagesScanned, scriptsDownloaded, runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordDomains stores every discovered domain with its provenance list
func (s *Store) RecordDomains(runID string, sources map[string][]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO domains (run_id, domain, sources)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, domain) DO UPDATE SET sources = EXCLUDED.sources
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare domain insert: %w", err)
	}
	defer stmt.Close()

	for domain, srcs := range sources {
		encoded, err := json.Marshal(srcs)
		if err != nil {
			return fmt.Errorf("failed to encode sources for %s: %w", domain, err)
		}
		if _, err := stmt.Exec(runID, domain, string(encoded)); err != nil {
			return fmt.Errorf("failed to record domain %s: %w", domain, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit domains: %w", err)
	}
	return nil
}

// RecordFinding stores one check outcome
func (s *Store) RecordFinding(runID, category, subject, status, details string) error {
	_, err := s.db.Exec(`
		INSERT INTO findings (run_id, category, subject, status, details)
		VALUES (?, ?, ?, ?, ?)
	`, runID, category, subject, status, details)

	if err != nil {
		return fmt.Errorf("failed to record finding: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, target_url, started_at,
		       COALESCE(finished_at, started_at),
		       pages_scanned, scripts_downloaded
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)

	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.TargetURL, &run.StartedAt,
			&run.FinishedAt, &run.PagesScanned, &run.ScriptsDownloaded); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// ListDomains returns every domain recorded for a run with its provenance
func (s *Store) ListDomains(runID string) ([]*DomainRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, domain, sources
		FROM domains
		WHERE run_id = ?
		ORDER BY domain
	`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var records []*DomainRecord
	for rows.Next() {
		var rec DomainRecord
		var encoded string
		if err := rows.Scan(&rec.RunID, &rec.Domain, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		if err := json.Unmarshal([]byte(encoded), &rec.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources for %s: %w", rec.Domain, err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating domains: %w", err)
	}

	return records, nil
}

// ListFindings returns every finding recorded for a run
func (s *Store) ListFindings(runID string) ([]*FindingRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, category, subject, status, COALESCE(details, ''), created_at
		FROM findings
		WHERE run_id = ?
		ORDER BY id
	`, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	var records []*FindingRecord
	for rows.Next() {
		var rec FindingRecord
		if err := rows.Scan(&rec.RunID, &rec.Category, &rec.Subject,
			&rec.Status, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
