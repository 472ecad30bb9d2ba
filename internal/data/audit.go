package data

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// auditRepo appends entries to per-day JSON journal files. One file per UTC
// day, named YYYY-MM-DD.json, holding a JSON array of entries.
type auditRepo struct {
	dir string
	now func() time.Time
	log *slog.Logger
	mu  sync.Mutex
}

// NewAuditRepo creates an audit journal rooted at dir.
func NewAuditRepo(dir string, log *slog.Logger) repo.AuditRepo {
	return &auditRepo{dir: dir, now: time.Now, log: log}
}

// NewAuditRepoAt is NewAuditRepo with an injected clock.
func NewAuditRepoAt(dir string, now func() time.Time, log *slog.Logger) repo.AuditRepo {
	return &auditRepo{dir: dir, now: now, log: log}
}

// Append adds one entry to today's journal. The day boundary is UTC. An
// unreadable journal is replaced rather than blocking the append; audit
// write failure must never stop dispatch.
func (r *auditRepo) Append(entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format(time.RFC3339)
	}
	path := filepath.Join(r.dir, now.Format("2006-01-02")+".json")

	var entries []domain.AuditEntry
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(raw, &entries); err != nil {
			r.log.Warn("corrupted audit journal, starting a new one", "path", path, "err", err)
			entries = nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read audit journal: %w", err)
	}

	entries = append(entries, entry)

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit journal: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write audit journal: %w", err)
	}
	return nil
}
