package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"slate/internal/config"
	"slate/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyReviewReady(context.Background(), 1, "promo"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	priority string
	tags     string
	body     string
}

func captureServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			tags:     r.Header.Get("Tags"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	var received []captured
	server := captureServer(t, &received)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyReviewReady(ctx, 7, "spring promo"); err != nil {
		t.Fatalf("review ready: %v", err)
	}
	if err := svc.NotifyValidationReview(ctx, 7, "spring promo", 2); err != nil {
		t.Fatalf("validation review: %v", err)
	}
	if err := svc.NotifyJobCompleted(ctx, 7, "spring promo"); err != nil {
		t.Fatalf("job completed: %v", err)
	}

	if len(received) != 3 {
		t.Fatalf("requests = %d, want 3", len(received))
	}
	if received[0].title != "Slate - Review Ready" || !strings.Contains(received[0].body, "Job 7") {
		t.Fatalf("review payload = %+v", received[0])
	}
	if received[1].priority != "high" || !strings.Contains(received[1].body, "2 critical") {
		t.Fatalf("validation payload = %+v", received[1])
	}
	if received[2].tags != "slate,job,completed" {
		t.Fatalf("completion tags = %q", received[2].tags)
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	var received []captured
	server := captureServer(t, &received)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Review = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyReviewReady(ctx, 1, "promo"); err != nil {
		t.Fatal(err)
	}
	if err := svc.NotifyPreprocessingFailed(ctx, 1, "extraction", "boom"); err != nil {
		t.Fatal(err)
	}
	if len(received) != 0 {
		t.Fatalf("disabled notifications still sent: %+v", received)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
