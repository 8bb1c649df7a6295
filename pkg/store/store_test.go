package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/xob0t/festivecard/pkg/export"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "exports.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func artifact(i int) export.Artifact {
	return export.Artifact{
		Filename:  fmt.Sprintf("festival-card-animated-%d.gif", i),
		MIME:      "image/gif",
		Data:      bytes.Repeat([]byte{byte(i)}, 10+i),
		Width:     400,
		Height:    600,
		Frames:    45,
		Delay:     67 * time.Millisecond,
		Template:  "dashain2",
		CreatedAt: time.UnixMilli(1_700_000_000_000 + int64(i)*1000),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, artifact(3))
	if err != nil {
		t.Fatal(err)
	}
	got, data, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Errorf("record = %+v, want %+v", got, rec)
	}
	if !bytes.Equal(data, artifact(3).Data) {
		t.Error("payload changed")
	}
	if got.Delay != 67*time.Millisecond || got.Size != 13 {
		t.Errorf("delay=%v size=%d", got.Delay, got.Size)
	}

	if _, _, err := s.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
}

func TestListNewestFirstAndPrune(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := range 5 {
		if _, err := s.Save(ctx, artifact(i)); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 5 || list[0].Filename != artifact(4).Filename || list[4].Filename != artifact(0).Filename {
		t.Fatalf("list order wrong: %+v", list)
	}
	if top, _ := s.List(ctx, 2); len(top) != 2 {
		t.Fatalf("limit ignored: %d", len(top))
	}

	n, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("pruned %d, want 3", n)
	}
	list, _ = s.List(ctx, 0)
	if len(list) != 2 || list[0].Filename != artifact(4).Filename || list[1].Filename != artifact(3).Filename {
		t.Fatalf("prune kept the wrong artifacts: %+v", list)
	}
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	rec, _ := s.Save(ctx, artifact(1))
	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Save(context.Background(), artifact(0)); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.List(context.Background(), 0); len(list) != 1 {
		t.Fatalf("memory store lost data: %d", len(list))
	}
}
