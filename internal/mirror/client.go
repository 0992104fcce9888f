// Package mirror forwards submissions to an external spreadsheet endpoint.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/hourbank/internal/domain/ledger"
)

// DefaultTimeout bounds a single mirror request.
const DefaultTimeout = 5 * time.Second

const maxReasonBody = 200

// Observer counts mirror outcomes.
type Observer interface {
	ObserveMirror(uploaded bool)
}

// Client posts submissions to the configured URL. A Client with an empty
// URL is disabled and reports every submission as not uploaded.
type Client struct {
	url      string
	http     *http.Client
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// New creates a mirror client. timeout <= 0 uses DefaultTimeout.
func New(url string, timeout time.Duration, logger *slog.Logger, observer Observer) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:      strings.TrimSpace(url),
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

var _ ledger.Mirror = (*Client)(nil)

type payload struct {
	SubmissionID string    `json:"submission_id"`
	Name         string    `json:"name"`
	Hours        float64   `json:"hours"`
	Grams        int64     `json:"g"`
	Value        int64     `json:"v"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Notify sends one submission. It never returns an error: every failure is
// folded into the outcome's reason.
func (c *Client) Notify(ctx context.Context, sub ledger.Submission) ledger.MirrorOutcome {
	if c.url == "" {
		return failed("mirror disabled")
	}

	outcome := c.send(ctx, sub)
	if c.observer != nil {
		c.observer.ObserveMirror(outcome.Uploaded)
	}
	if !outcome.Uploaded && c.logger != nil {
		c.logger.WarnContext(ctx, "mirror notification failed", "name", sub.Name, "reason", outcome.Reason)
	}
	return outcome
}

func (c *Client) send(ctx context.Context, sub ledger.Submission) ledger.MirrorOutcome {
	body, err := json.Marshal(payload{
		SubmissionID: uuid.NewString(),
		Name:         sub.Name,
		Hours:        sub.Hours,
		Grams:        sub.Grams,
		Value:        sub.Value,
		SubmittedAt:  c.now().UTC(),
	})
	if err != nil {
		return failed(fmt.Sprintf("encode payload: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return failed(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBody))
		reason := fmt.Sprintf("mirror responded %d", resp.StatusCode)
		if text := strings.TrimSpace(string(snippet)); text != "" {
			reason += ": " + text
		}
		return failed(reason)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return ledger.MirrorOutcome{Uploaded: true, Reason: "ok"}
}

func failed(reason string) ledger.MirrorOutcome {
	return ledger.MirrorOutcome{Uploaded: false, Reason: reason}
}
