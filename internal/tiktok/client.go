package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UnfollowRequest is the payload the external TikTok service expects.
type UnfollowRequest struct {
	UserID       string `json:"userId"`
	TikTokUserID string `json:"tiktokUserId"`
	MsToken      string `json:"msToken"`
	SessionID    string `json:"sessionId"`
}

// Client talks to the TikTok sidecar service over HTTP. The sidecar is a
// black box: it accepts an unfollow request and reports success or failure.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a Client with a request timeout. The original design had
// no timeout here; a hung sidecar call would block the sequential unfollow
// loop indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Unfollow asks the sidecar to unfollow one TikTok account.
func (c *Client) Unfollow(ctx context.Context, req UnfollowRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal unfollow request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/unfollow", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build unfollow request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("unfollow call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("unfollow call rejected",
			zap.String("tiktok_user_id", req.TikTokUserID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail))
		return fmt.Errorf("unfollow call returned status %d", resp.StatusCode)
	}
	return nil
}
