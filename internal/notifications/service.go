package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slate/internal/config"
)

const userAgent = "Slate/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyReviewReady(ctx context.Context, jobID int64, title string) error
	NotifyValidationReview(ctx context.Context, jobID int64, title string, criticalCount int) error
	NotifyApprovalReady(ctx context.Context, jobID int64, title string) error
	NotifyJobCompleted(ctx context.Context, jobID int64, title string) error
	NotifyPreprocessingFailed(ctx context.Context, jobID int64, stageName, detail string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) NotifyReviewReady(ctx context.Context, jobID int64, title string) error {
	if !n.cfg.Review {
		return nil
	}
	data := payload{
		title:   "Slate - Review Ready",
		message: fmt.Sprintf("Job %d (%s) is ready for match review", jobID, strings.TrimSpace(title)),
		tags:    []string{"slate", "review", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyValidationReview(ctx context.Context, jobID int64, title string, criticalCount int) error {
	if !n.cfg.Review {
		return nil
	}
	data := payload{
		title:    "Slate - Validation Issues",
		message:  fmt.Sprintf("Job %d (%s) has %d critical validation issues and needs review", jobID, strings.TrimSpace(title), criticalCount),
		tags:     []string{"slate", "validation", "review"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyApprovalReady(ctx context.Context, jobID int64, title string) error {
	if !n.cfg.Approval {
		return nil
	}
	data := payload{
		title:   "Slate - Preview Ready",
		message: fmt.Sprintf("Job %d (%s) has a rendered preview awaiting approval", jobID, strings.TrimSpace(title)),
		tags:    []string{"slate", "preview", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID int64, title string) error {
	if !n.cfg.Completion {
		return nil
	}
	data := payload{
		title:    "Slate - Complete",
		message:  fmt.Sprintf("Job %d (%s) approved and completed", jobID, strings.TrimSpace(title)),
		tags:     []string{"slate", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPreprocessingFailed(ctx context.Context, jobID int64, stageName, detail string) error {
	if !n.cfg.Errors {
		return nil
	}
	message := fmt.Sprintf("Job %d preprocessing failed at %s", jobID, stageName)
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}
	data := payload{
		title:    "Slate - Preprocessing Failed",
		message:  message,
		tags:     []string{"slate", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Slate - Test",
		message:  "Notification system test",
		tags:     []string{"slate", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyReviewReady(context.Context, int64, string) error                { return nil }
func (noopService) NotifyValidationReview(context.Context, int64, string, int) error      { return nil }
func (noopService) NotifyApprovalReady(context.Context, int64, string) error              { return nil }
func (noopService) NotifyJobCompleted(context.Context, int64, string) error               { return nil }
func (noopService) NotifyPreprocessingFailed(context.Context, int64, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
