package domain

import "time"

// RawEvent is an event as produced by a channel's fetch step, before it is
// normalized into an ActionRecord.
//
// Key is the channel-scoped deduplication key. When Fingerprint is set the
// channel tracks changing content under a stable key (contact-keyed scrapes);
// otherwise the key alone identifies the event.
type RawEvent struct {
	Key         string
	Fingerprint string
	Text        string
	Fields      map[string]string
	Time        time.Time
}

// BufferedMessage is a chat message held back for inclusion in the next
// periodic digest instead of producing an immediate record.
type BufferedMessage struct {
	ID         int64
	ChatID     string
	ChatName   string
	MsgID      string
	SenderID   string
	SenderName string
	Content    string
	CreatedAt  time.Time
	Processed  bool
}
