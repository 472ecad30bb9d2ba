package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// vaultRepo implements the record directories on the local filesystem.
type vaultRepo struct {
	pendingDir  string
	approvedDir string
	doneDir     string
}

// NewVaultRepo creates a vault repository over the three record directories.
func NewVaultRepo(pendingDir, approvedDir, doneDir string) repo.VaultRepo {
	return &vaultRepo{pendingDir: pendingDir, approvedDir: approvedDir, doneDir: doneDir}
}

// WritePending writes a new record document into the pending inbox.
func (r *vaultRepo) WritePending(filename, content string) error {
	if err := os.MkdirAll(r.pendingDir, 0755); err != nil {
		return fmt.Errorf("failed to create pending directory: %w", err)
	}
	path := filepath.Join(r.pendingDir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write pending record: %w", err)
	}
	return nil
}

// PendingExists reports whether a record file is already present.
func (r *vaultRepo) PendingExists(filename string) bool {
	_, err := os.Stat(filepath.Join(r.pendingDir, filename))
	return err == nil
}

// ListPending returns the markdown record filenames in the pending inbox,
// sorted.
func (r *vaultRepo) ListPending() ([]string, error) {
	return listMarkdown(r.pendingDir)
}

// ReadPending returns the content of one pending record.
func (r *vaultRepo) ReadPending(filename string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(r.pendingDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to read pending record: %w", err)
	}
	return string(raw), nil
}

// ListApproved returns the markdown record filenames awaiting dispatch, in
// sorted order so processing is deterministic.
func (r *vaultRepo) ListApproved() ([]string, error) {
	return listMarkdown(r.approvedDir)
}

func listMarkdown(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadApproved returns the content of one approved record.
func (r *vaultRepo) ReadApproved(filename string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(r.approvedDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to read approved record: %w", err)
	}
	return string(raw), nil
}

// ArchiveDone moves a processed record into the archive. The archive copy is
// written before the approved copy is removed, so a crash between the two
// steps leaves the record in both directories rather than lost.
func (r *vaultRepo) ArchiveDone(filename, content string) error {
	if err := os.MkdirAll(r.doneDir, 0755); err != nil {
		return fmt.Errorf("failed to create done directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.doneDir, filename), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write archived record: %w", err)
	}
	if err := os.Remove(filepath.Join(r.approvedDir, filename)); err != nil {
		return fmt.Errorf("failed to remove approved record: %w", err)
	}
	return nil
}
