package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aLoneMass/historybot/internal/domain"
)

func testSchedule(userID int64) *domain.PublicationSchedule {
	return &domain.PublicationSchedule{
		UserID:       userID,
		MediaFileID:  "file-abc",
		Link:         "https://example.com",
		Hour:         14,
		Minute:       30,
		IntervalDays: 3,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := m.Put(ctx, testSchedule(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	s, err := m.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Link != "https://example.com" || s.IntervalDays != 3 {
		t.Fatalf("unexpected schedule: %+v", s)
	}

	// Get hands out a copy; mutating it must not leak into the store.
	s.CancelNext = true
	again, _ := m.Get(ctx, 1)
	if again.CancelNext {
		t.Fatal("Get must return a copy, not the stored value")
	}

	if err := m.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	// Deleting an absent user is a no-op.
	if err := m.Delete(ctx, 1); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Put(ctx, testSchedule(7))
	repl := testSchedule(7)
	repl.IntervalDays = 1
	repl.MediaFileID = "file-new"
	_ = m.Put(ctx, repl)

	s, err := m.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.MediaFileID != "file-new" || s.IntervalDays != 1 {
		t.Fatalf("put did not replace: %+v", s)
	}
	all, _ := m.All(ctx)
	if len(all) != 1 {
		t.Fatalf("want exactly one schedule, got %d", len(all))
	}
}

func TestMemoryStore_ConsumeCancelNext(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Put(ctx, testSchedule(1))

	// Not set yet.
	set, err := m.ConsumeCancelNext(ctx, 1)
	if err != nil || set {
		t.Fatalf("want unset flag, got set=%v err=%v", set, err)
	}

	if err := m.SetCancelNext(ctx, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	set, err = m.ConsumeCancelNext(ctx, 1)
	if err != nil || !set {
		t.Fatalf("want set flag, got set=%v err=%v", set, err)
	}
	// Consumed exactly once: second consume observes false.
	set, err = m.ConsumeCancelNext(ctx, 1)
	if err != nil || set {
		t.Fatalf("flag must be consumed exactly once, got set=%v err=%v", set, err)
	}
}

func TestMemoryStore_CancelOpsWithoutSchedule(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetCancelNext(ctx, 42); err != nil {
		t.Fatalf("SetCancelNext on absent user must be a no-op, got %v", err)
	}
	set, err := m.ConsumeCancelNext(ctx, 42)
	if err != nil || set {
		t.Fatalf("ConsumeCancelNext on absent user: set=%v err=%v", set, err)
	}
}

func TestMemoryStore_SetPending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Put(ctx, testSchedule(1))

	next := time.Date(2025, time.May, 6, 11, 30, 0, 0, time.UTC)
	if err := m.SetPending(ctx, 1, "job-1", next); err != nil {
		t.Fatalf("set pending: %v", err)
	}
	s, _ := m.Get(ctx, 1)
	if s.PendingJobID != "job-1" || !s.NextAt.Equal(next) {
		t.Fatalf("pending not recorded: %+v", s)
	}
}
