package repo

import (
	"context"
	"testing"
	"time"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

func TestComplaintsStats_Empty(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})

	count, max, err := ComplaintsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("ComplaintsStats: %v", err)
	}
	if count != 0 || max != nil {
		t.Fatalf("got count=%d max=%v; want 0, nil", count, max)
	}
}

func TestComplaintsStats_CountAndLatestUpdate(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})
	ctx := context.Background()

	a := newComplaint("a")
	b := newComplaint("b")
	for _, c := range []*domain.Complaint{a, b} {
		if err := CreateComplaint(ctx, db, c); err != nil {
			t.Fatalf("CreateComplaint: %v", err)
		}
	}

	// Push one row's updated_at into the future so the max is unambiguous.
	future := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	if err := db.Model(&domain.Complaint{}).Where("id = ?", a.ID).
		Update("updated_at", future).Error; err != nil {
		t.Fatalf("update updated_at: %v", err)
	}

	count, max, err := ComplaintsStats(ctx, db)
	if err != nil {
		t.Fatalf("ComplaintsStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d; want 2", count)
	}
	if max == nil || max.Unix() != future.Unix() {
		t.Fatalf("maxUpdatedAt = %v; want %v", max, future)
	}
}
