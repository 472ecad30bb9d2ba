// Package channel contains the event-source adapters that feed the capture
// pipeline.
package channel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// Filesystem watches a drop directory for new files. Every scan reports the
// directory's current files; deduplication against already-captured names
// happens downstream.
type Filesystem struct {
	dir string
	now func() time.Time
}

// NewFilesystem creates the drop-directory channel.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{dir: dir, now: time.Now}
}

func (f *Filesystem) Name() string            { return "filesystem" }
func (f *Filesystem) Kind() domain.RecordKind { return domain.KindFileDrop }

// FetchNewEvents lists the files currently in the drop directory. Dotfiles
// and subdirectories are ignored.
func (f *Filesystem) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read drop directory: %w", err)
	}

	var events []domain.RawEvent
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		events = append(events, domain.RawEvent{
			Key:  e.Name(),
			Time: f.now(),
			Fields: map[string]string{
				"name": e.Name(),
				"path": filepath.Join(f.dir, e.Name()),
				"size": fmt.Sprintf("%d", info.Size()),
				"ext":  strings.TrimPrefix(filepath.Ext(e.Name()), "."),
			},
		})
	}
	return events, nil
}

// BuildRecord turns one dropped file into an action record.
func (f *Filesystem) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	name := ev.Fields["name"]
	if name == "" {
		return nil, fmt.Errorf("file event %q has no name", ev.Key)
	}
	safe := strings.ReplaceAll(name, " ", "_")

	details := fmt.Sprintf("- **Original name**: %s\n- **Location**: %s\n- **Size**: %s bytes\n- **Type**: %s",
		name, ev.Fields["path"], ev.Fields["size"], ev.Fields["ext"])

	return &domain.ActionRecord{
		Kind:          domain.KindFileDrop,
		SourceChannel: f.Name(),
		DedupKey:      ev.Key,
		Priority:      domain.PriorityNormal,
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      "FILE_" + safe + ".md",
		Title:         "File Drop: " + name,
		Payload: []domain.Field{
			{Key: "original_filename", Value: name},
			{Key: "original_path", Value: ev.Fields["path"]},
			{Key: "file_size_bytes", Value: ev.Fields["size"]},
			{Key: "file_extension", Value: ev.Fields["ext"]},
		},
		Sections: []domain.Section{
			{Name: "Details", Text: details},
			{Name: "Suggested Actions", Text: "- [ ] Review the file\n- [ ] File it where it belongs\n- [ ] Delete it from the drop folder"},
		},
	}, nil
}

var _ repo.Channel = (*Filesystem)(nil)
