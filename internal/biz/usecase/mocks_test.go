package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStateRepo keeps state in memory and counts saves.
type mockStateRepo struct {
	sets  map[string]map[string]bool
	maps  map[string]map[string]string
	saves int
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{
		sets: map[string]map[string]bool{},
		maps: map[string]map[string]string{},
	}
}

func (m *mockStateRepo) LoadSet(channel string) map[string]bool {
	out := map[string]bool{}
	for k, v := range m.sets[channel] {
		out[k] = v
	}
	return out
}

func (m *mockStateRepo) SaveSet(channel string, keys map[string]bool) error {
	saved := map[string]bool{}
	for k, v := range keys {
		saved[k] = v
	}
	m.sets[channel] = saved
	m.saves++
	return nil
}

func (m *mockStateRepo) LoadMap(channel string) map[string]string {
	out := map[string]string{}
	for k, v := range m.maps[channel] {
		out[k] = v
	}
	return out
}

func (m *mockStateRepo) SaveMap(channel string, state map[string]string) error {
	saved := map[string]string{}
	for k, v := range state {
		saved[k] = v
	}
	m.maps[channel] = saved
	m.saves++
	return nil
}

// mockVaultRepo keeps documents in memory.
type mockVaultRepo struct {
	pending    map[string]string
	approved   map[string]string
	done       map[string]string
	archiveErr error
}

func newMockVaultRepo() *mockVaultRepo {
	return &mockVaultRepo{
		pending:  map[string]string{},
		approved: map[string]string{},
		done:     map[string]string{},
	}
}

func (m *mockVaultRepo) WritePending(filename, content string) error {
	m.pending[filename] = content
	return nil
}

func (m *mockVaultRepo) PendingExists(filename string) bool {
	_, ok := m.pending[filename]
	return ok
}

func (m *mockVaultRepo) ListPending() ([]string, error) {
	var names []string
	for name := range m.pending {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockVaultRepo) ReadPending(filename string) (string, error) {
	content, ok := m.pending[filename]
	if !ok {
		return "", fmt.Errorf("no such pending record %s", filename)
	}
	return content, nil
}

func (m *mockVaultRepo) ListApproved() ([]string, error) {
	var names []string
	for name := range m.approved {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockVaultRepo) ReadApproved(filename string) (string, error) {
	content, ok := m.approved[filename]
	if !ok {
		return "", fmt.Errorf("no such approved record %s", filename)
	}
	return content, nil
}

func (m *mockVaultRepo) ArchiveDone(filename, content string) error {
	if m.archiveErr != nil {
		return m.archiveErr
	}
	m.done[filename] = content
	delete(m.approved, filename)
	return nil
}

// mockAuditRepo records appended entries.
type mockAuditRepo struct {
	entries []domain.AuditEntry
}

func (m *mockAuditRepo) Append(entry domain.AuditEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

// mockChannel serves canned events.
type mockChannel struct {
	name     string
	kind     domain.RecordKind
	events   []domain.RawEvent
	fetchErr error
	buildErr error
}

func (m *mockChannel) Name() string            { return m.name }
func (m *mockChannel) Kind() domain.RecordKind { return m.kind }

func (m *mockChannel) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.events, nil
}

func (m *mockChannel) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &domain.ActionRecord{
		Kind:          m.kind,
		SourceChannel: m.name,
		DedupKey:      ev.Key,
		Priority:      domain.EscalatePriority(ev.Text),
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      "REC_" + domain.SanitizeName(ev.Key) + ".md",
		Title:         "Record " + ev.Key,
	}, nil
}

// mockMailer records sends.
type mockMailer struct {
	sent    []repo.OutboundMail
	sendErr error
}

func (m *mockMailer) SendMail(ctx context.Context, msg repo.OutboundMail) (repo.MailReceipt, error) {
	if m.sendErr != nil {
		return repo.MailReceipt{}, m.sendErr
	}
	m.sent = append(m.sent, msg)
	return repo.MailReceipt{ID: fmt.Sprintf("msg-%d", len(m.sent)), ThreadID: msg.ThreadID}, nil
}

// mockSocial records published posts.
type mockSocial struct {
	posts   []string
	postErr error
}

func (m *mockSocial) PostUpdate(ctx context.Context, text string) (repo.PostReceipt, error) {
	if m.postErr != nil {
		return repo.PostReceipt{}, m.postErr
	}
	m.posts = append(m.posts, text)
	return repo.PostReceipt{ID: fmt.Sprintf("post-%d", len(m.posts))}, nil
}

// mockBuffer is an in-memory BufferRepo.
type mockBuffer struct {
	msgs      []*domain.BufferedMessage
	nextID    int64
	processed map[int64]bool
}

func newMockBuffer() *mockBuffer {
	return &mockBuffer{processed: map[int64]bool{}}
}

func (m *mockBuffer) AddMessage(ctx context.Context, msg *domain.BufferedMessage) error {
	m.nextID++
	copied := *msg
	copied.ID = m.nextID
	m.msgs = append(m.msgs, &copied)
	return nil
}

func (m *mockBuffer) GetUnprocessed(ctx context.Context) ([]*domain.BufferedMessage, error) {
	var out []*domain.BufferedMessage
	for _, msg := range m.msgs {
		if !m.processed[msg.ID] {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockBuffer) MarkProcessed(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		m.processed[id] = true
	}
	return nil
}

func (m *mockBuffer) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (m *mockBuffer) Close() error { return nil }
