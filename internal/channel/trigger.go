package channel

import (
	"context"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// PostTrigger emits one scheduled social-post prompt per UTC day. The dedup
// key carries the date, so reruns and restarts within the same day are
// no-ops.
type PostTrigger struct {
	now func() time.Time
}

// NewPostTrigger creates the daily trigger channel.
func NewPostTrigger() *PostTrigger {
	return &PostTrigger{now: time.Now}
}

func (t *PostTrigger) Name() string            { return "post_trigger" }
func (t *PostTrigger) Kind() domain.RecordKind { return domain.KindScheduledTrigger }

func (t *PostTrigger) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	now := t.now().UTC()
	date := now.Format("2006-01-02")
	return []domain.RawEvent{{
		Key:    "post_trigger_" + date,
		Time:   now,
		Fields: map[string]string{"date": date},
	}}, nil
}

func (t *PostTrigger) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	date := ev.Fields["date"]
	return &domain.ActionRecord{
		Kind:          domain.KindScheduledTrigger,
		SourceChannel: t.Name(),
		DedupKey:      ev.Key,
		Priority:      domain.PriorityNormal,
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      "POST_TRIGGER_" + date + ".md",
		Title:         "Social Post Trigger: " + date,
		Payload: []domain.Field{
			{Key: "trigger_date", Value: date},
			{Key: "platform", Value: "linkedin"},
		},
		Sections: []domain.Section{
			{Name: "Suggested Topics", Text: "- Something you shipped recently\n- A lesson learned this week\n- A tool or workflow worth sharing"},
			{Name: "Context", Text: "Daily reminder to draft a post. Write the draft under a \"## Draft Content\" section, set action to post_update, and move this file to Approved when ready."},
		},
	}, nil
}

var _ repo.Channel = (*PostTrigger)(nil)
