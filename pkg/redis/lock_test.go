package redis

import (
	"context"
	"testing"
	"time"
)

func TestLockAcquireRelease(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.CommitLockKey("user-1")

	first, err := NewLock(client, key, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, _ := NewLock(client, key, time.Minute)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire ok=%v err=%v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("second acquire must fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner should be a no-op: %v", err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatalf("non-owner release must not free the lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, err := second.Acquire(ctx); err != nil || !ok {
		t.Fatalf("acquire after release ok=%v err=%v", ok, err)
	}
}

func TestLockReleaseAfterExpiryDoesNotStealNewOwner(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.CommitLockKey("user-2")

	stale, _ := NewLock(client, key, time.Minute)
	if ok, _ := stale.Acquire(ctx); !ok {
		t.Fatalf("acquire failed")
	}
	mock.data[key] = "someone-else"

	if err := stale.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mock.data[key] != "someone-else" {
		t.Fatalf("stale owner must not delete a lock it no longer holds")
	}
}

func TestNewLockValidates(t *testing.T) {
	if _, err := NewLock(nil, "k", time.Second); err == nil {
		t.Fatalf("expected error without client")
	}
	if _, err := NewLock(&Client{store: newMockCmdable()}, "", time.Second); err == nil {
		t.Fatalf("expected error without key")
	}
}
