package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)

	in := testSchedule(1)
	in.NextAt = time.Date(2025, time.May, 5, 11, 30, 0, 0, time.UTC)
	in.PendingJobID = "job-0"
	if err := r.Put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, err := r.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.MediaFileID != in.MediaFileID || out.Link != in.Link ||
		out.Hour != in.Hour || out.Minute != in.Minute ||
		out.IntervalDays != in.IntervalDays ||
		out.PendingJobID != in.PendingJobID || !out.NextAt.Equal(in.NextAt) {
		t.Fatalf("round trip mismatch:\n in  %+v\n out %+v", in, out)
	}

	if _, err := r.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)

	_ = r.Put(ctx, testSchedule(5))
	repl := testSchedule(5)
	repl.MediaFileID = "file-new"
	repl.IntervalDays = 1
	if err := r.Put(ctx, repl); err != nil {
		t.Fatalf("replace: %v", err)
	}

	all, err := r.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("want one row after upsert, got %d", len(all))
	}
	if all[0].MediaFileID != "file-new" || all[0].IntervalDays != 1 {
		t.Fatalf("upsert did not replace: %+v", all[0])
	}
}

func TestSQLiteStore_ConsumeCancelNext(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	_ = r.Put(ctx, testSchedule(1))

	set, err := r.ConsumeCancelNext(ctx, 1)
	if err != nil || set {
		t.Fatalf("want unset, got set=%v err=%v", set, err)
	}
	if err := r.SetCancelNext(ctx, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	set, err = r.ConsumeCancelNext(ctx, 1)
	if err != nil || !set {
		t.Fatalf("want set, got set=%v err=%v", set, err)
	}
	set, err = r.ConsumeCancelNext(ctx, 1)
	if err != nil || set {
		t.Fatalf("flag must be consumed exactly once, got set=%v err=%v", set, err)
	}
}

func TestSQLiteStore_SetPending(t *testing.T) {
	ctx := context.Background()
	r := openTestDB(t)
	_ = r.Put(ctx, testSchedule(1))

	next := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	if err := r.SetPending(ctx, 1, "job-7", next); err != nil {
		t.Fatalf("set pending: %v", err)
	}
	s, _ := r.Get(ctx, 1)
	if s.PendingJobID != "job-7" || !s.NextAt.Equal(next) {
		t.Fatalf("pending not recorded: %+v", s)
	}
}
