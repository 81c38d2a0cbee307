package daemon

import (
	"context"
	"testing"

	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/pipeline"
	"slate/internal/testsupport"
)

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), notifications.NewService(cfg))

	d, err := New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	defer d.Stop()

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if addr := d.APIAddr(); addr == "" {
		t.Fatal("api server not listening")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.JobDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("status paths missing: %+v", status)
	}

	second := pipeline.NewManager(cfg, store, logging.NewNop(), notifications.NewService(cfg))
	other, err := New(cfg, store, logging.NewNop(), second)
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("second daemon should fail to acquire lock")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := pipeline.NewManager(cfg, store, logging.NewNop(), notifications.NewService(cfg))

	d, err := New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	defer d.Stop()

	sent, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if sent || detail == "" {
		t.Fatalf("sent = %v detail = %q", sent, detail)
	}
}
