package repo

import "context"

// OutboundMail is a message the dispatcher sends on behalf of the operator.
type OutboundMail struct {
	To       string
	CC       string
	Subject  string
	Body     string
	ThreadID string
}

// MailReceipt identifies a sent message.
type MailReceipt struct {
	ID       string
	ThreadID string
}

// Mailer sends electronic mail.
type Mailer interface {
	SendMail(ctx context.Context, msg OutboundMail) (MailReceipt, error)
}

// PostReceipt identifies a published social update.
type PostReceipt struct {
	ID string
}

// SocialPoster publishes a text update to the operator's social profile.
type SocialPoster interface {
	PostUpdate(ctx context.Context, text string) (PostReceipt, error)
}
