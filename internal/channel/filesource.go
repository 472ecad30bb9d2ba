package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileConversationSource reads unread conversation previews from a JSON
// file. The browser automation that scrapes the chat surface drops its
// findings there; a missing file simply means nothing unread.
//
// File format: [{"contact": "...", "preview": "..."}, ...]
type FileConversationSource struct {
	path string
}

// NewFileConversationSource creates a conversation source over a drop file.
func NewFileConversationSource(path string) *FileConversationSource {
	return &FileConversationSource{path: path}
}

func (s *FileConversationSource) UnreadConversations(ctx context.Context) ([]Conversation, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read conversation drop file: %w", err)
	}
	var convos []struct {
		Contact string `json:"contact"`
		Preview string `json:"preview"`
	}
	if err := json.Unmarshal(raw, &convos); err != nil {
		return nil, fmt.Errorf("parse conversation drop file %s: %w", s.path, err)
	}
	out := make([]Conversation, 0, len(convos))
	for _, c := range convos {
		out = append(out, Conversation{Contact: c.Contact, Preview: c.Preview})
	}
	return out, nil
}

var _ ConversationSource = (*FileConversationSource)(nil)

// FileMailSource reads unread mail metadata from a JSON drop file, the same
// integration contract as FileConversationSource. The mail fetcher (an
// external script or API sync) writes the file; records are deduplicated
// downstream by message ID, so leaving old entries in place is harmless.
//
// File format: [{"id": "...", "thread_id": "...", "from": "...", "to": "...",
// "subject": "...", "date": "...", "snippet": "..."}, ...]
type FileMailSource struct {
	path string
}

// NewFileMailSource creates a mail source over a drop file.
func NewFileMailSource(path string) *FileMailSource {
	return &FileMailSource{path: path}
}

func (s *FileMailSource) ListUnread(ctx context.Context, max int) ([]MailMessage, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mail drop file: %w", err)
	}
	var msgs []struct {
		ID       string `json:"id"`
		ThreadID string `json:"thread_id"`
		From     string `json:"from"`
		To       string `json:"to"`
		Subject  string `json:"subject"`
		Date     string `json:"date"`
		Snippet  string `json:"snippet"`
	}
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("parse mail drop file %s: %w", s.path, err)
	}
	out := make([]MailMessage, 0, len(msgs))
	for _, m := range msgs {
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, MailMessage{
			ID:       m.ID,
			ThreadID: m.ThreadID,
			From:     m.From,
			To:       m.To,
			Subject:  m.Subject,
			Date:     m.Date,
			Snippet:  m.Snippet,
		})
	}
	return out, nil
}

var _ MailSource = (*FileMailSource)(nil)
