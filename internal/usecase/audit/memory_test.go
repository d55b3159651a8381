package audit

import (
	"context"
	"fmt"
	"testing"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
)

func TestMemorySink_RecentOldestFirst(t *testing.T) {
	s := NewMemorySink(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Write(ctx, domaudit.Event{ID: fmt.Sprint(i)})
	}

	all, _ := s.Recent(ctx, 0)
	want := []string{"2", "3", "4"}
	if len(all) != len(want) {
		t.Fatalf("got %d events, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("event %d = %q, want %q", i, all[i].ID, id)
		}
	}

	last, _ := s.Recent(ctx, 2)
	if len(last) != 2 || last[0].ID != "3" || last[1].ID != "4" {
		t.Errorf("Recent(2) = %+v", last)
	}
}

func TestMemorySink_PartiallyFilled(t *testing.T) {
	s := NewMemorySink(0)
	ctx := context.Background()
	_ = s.Write(ctx, domaudit.Event{ID: "a"})

	got, _ := s.Recent(ctx, 10)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Recent = %+v", got)
	}

	empty, _ := NewMemorySink(4).Recent(ctx, 10)
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
