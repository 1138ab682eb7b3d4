package db

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/japaniel/creamy/pkg/upload"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := InitDB(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewStore(conn)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("Wort ", 100)
	first, err := s.Create(ctx, long, "a.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.Create(ctx, "", "b.png")
	if err != nil {
		t.Fatalf("create with empty text: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %s twice", first.ID)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(list))
	}
	// newest first
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}
	if list[1].Text != long[:upload.PreviewLength] {
		t.Fatalf("expected preview of %d chars, got %d", upload.PreviewLength, len(list[1].Text))
	}
	if list[1].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestListOrdersByInsertionWhenTimestampsTie(t *testing.T) {
	s := setupTestStore(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"1.png", "2.png", "3.png"} {
		r, err := s.Create(ctx, name, name)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, r.ID)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if list[i].ID != want {
			t.Fatalf("position %d: expected id %s, got %s", i, want, list[i].ID)
		}
	}
}

func TestTextByFilename(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.TextByFilename(ctx, "missing.png"); !errors.Is(err, upload.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.Create(ctx, "erste Fassung", "scan.png"); err != nil {
		t.Fatalf("create: %v", err)
	}
	// colliding filename must not fail
	if _, err := s.Create(ctx, "zweite Fassung", "scan.png"); err != nil {
		t.Fatalf("create duplicate filename: %v", err)
	}

	text, err := s.TextByFilename(ctx, "scan.png")
	if err != nil {
		t.Fatalf("text by filename: %v", err)
	}
	if text != "erste Fassung" {
		t.Fatalf("expected oldest match, got %q", text)
	}
}

func TestTexts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, text := range []string{"eins", "zwei", "drei"} {
		if _, err := s.Create(ctx, text, text+".png"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	texts, err := s.Texts(ctx)
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	if strings.Join(texts, ",") != "eins,zwei,drei" {
		t.Fatalf("expected insertion order, got %v", texts)
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	keep, _ := s.Create(ctx, "bleibt", "keep.png")
	gone, _ := s.Create(ctx, "weg", "gone.png")

	deleted, err := s.Delete(ctx, gone.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Filename != "gone.png" {
		t.Fatalf("expected deleted record to be returned, got %+v", deleted)
	}

	list, _ := s.List(ctx)
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("expected only %s to remain, got %+v", keep.ID, list)
	}

	for _, id := range []string{gone.ID, "999", "abc", "-1", ""} {
		if _, err := s.Delete(ctx, id); !errors.Is(err, upload.ErrNotFound) {
			t.Fatalf("delete %q: expected ErrNotFound, got %v", id, err)
		}
	}
	list, _ = s.List(ctx)
	if len(list) != 1 {
		t.Fatalf("failed delete must not mutate, got %d uploads", len(list))
	}
}

func TestDeleteAll(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if _, err := s.Create(ctx, "text", name); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	removed, err := s.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed records, got %d", len(removed))
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	removed, err = s.DeleteAll(ctx)
	if err != nil || len(removed) != 0 {
		t.Fatalf("delete all on empty store: %v, %d", err, len(removed))
	}
}

func TestCreateConcurrency(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, "gleichzeitig", "same.png"); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != n {
		t.Fatalf("expected %d rows, got %d", n, len(list))
	}
}
