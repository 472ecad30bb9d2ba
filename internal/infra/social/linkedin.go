// Package social implements social-network publishing.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/conf"
)

const ugcPostsURL = "https://api.linkedin.com/v2/ugcPosts"

// LinkedIn publishes text updates through the UGC posts API.
type LinkedIn struct {
	cfg     conf.SocialConfig
	httpCli *http.Client
	baseURL string
	log     *slog.Logger
}

// NewLinkedIn creates a LinkedIn poster.
func NewLinkedIn(cfg conf.SocialConfig, log *slog.Logger) *LinkedIn {
	return &LinkedIn{
		cfg:     cfg,
		httpCli: &http.Client{Timeout: 30 * time.Second},
		baseURL: ugcPostsURL,
		log:     log,
	}
}

// PostUpdate publishes a public text share on the configured profile and
// returns the platform's post ID.
func (l *LinkedIn) PostUpdate(ctx context.Context, text string) (repo.PostReceipt, error) {
	payload := map[string]interface{}{
		"author":         l.cfg.PersonURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": text,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return repo.PostReceipt{}, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL, bytes.NewReader(body))
	if err != nil {
		return repo.PostReceipt{}, fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.httpCli.Do(req)
	if err != nil {
		return repo.PostReceipt{}, fmt.Errorf("post update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return repo.PostReceipt{}, fmt.Errorf("post update: status %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return repo.PostReceipt{}, fmt.Errorf("decode post response: %w", err)
	}

	l.log.Debug("post published", "id", result.ID)
	return repo.PostReceipt{ID: result.ID}, nil
}

var _ repo.SocialPoster = (*LinkedIn)(nil)
