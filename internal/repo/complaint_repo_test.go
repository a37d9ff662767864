package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func newComplaint(title string) *domain.Complaint {
	now := time.Now().UTC()
	return &domain.Complaint{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "desc",
		Category:    "Academics",
		Department:  "IT Services",
		Status:      domain.StatusOpen,
		Urgency:     domain.UrgencyMedium,
		Level:       domain.MinLevel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateComplaint_AssignsMonotonicSeq(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{}, &domain.Comment{}, &domain.ProgressNote{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		c := newComplaint(fmt.Sprintf("c%d", i))
		if err := CreateComplaint(ctx, db, c); err != nil {
			t.Fatalf("CreateComplaint %d: %v", i, err)
		}
		if c.Seq != int64(i) {
			t.Fatalf("Seq = %d; want %d", c.Seq, i)
		}
	}

	list, err := ListComplaints(ctx, db)
	if err != nil {
		t.Fatalf("ListComplaints: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d; want 3", len(list))
	}
	for i, c := range list {
		if c.Seq != int64(i+1) {
			t.Fatalf("list[%d].Seq = %d; want ascending insertion order", i, c.Seq)
		}
	}
}

func TestGetComplaint_PreloadsSubRecordsInPositionOrder(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{}, &domain.Comment{}, &domain.ProgressNote{})
	ctx := context.Background()

	c := newComplaint("with comments")
	if err := CreateComplaint(ctx, db, c); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}

	// Insert comments out of position order to prove the preload sorts.
	for _, pos := range []int{2, 1, 3} {
		cm := &domain.Comment{
			ID:          uuid.NewString(),
			ComplaintID: c.ID,
			Position:    pos,
			Author:      "a",
			Text:        fmt.Sprintf("comment %d", pos),
			CreatedAt:   time.Now().UTC(),
		}
		if err := CreateComment(ctx, db, cm); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	got, err := GetComplaint(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetComplaint: %v", err)
	}
	if len(got.Comments) != 3 {
		t.Fatalf("comments = %d; want 3", len(got.Comments))
	}
	for i, cm := range got.Comments {
		if cm.Position != i+1 {
			t.Fatalf("comments[%d].Position = %d; want append order", i, cm.Position)
		}
	}
}

func TestGetComplaint_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{}, &domain.Comment{}, &domain.ProgressNote{})
	_, err := GetComplaint(context.Background(), db, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestUpdateComplaint_AtomicReadModifyWrite(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})
	ctx := context.Background()

	c := newComplaint("rmw")
	if err := CreateComplaint(ctx, db, c); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}

	got, err := UpdateComplaint(ctx, db, c.ID, func(cur *domain.Complaint) error {
		cur.Status = domain.StatusInProgress
		cur.Level = 2
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateComplaint: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Level != 2 {
		t.Fatalf("mutation not applied: %+v", got)
	}

	// Mutator error rolls back everything.
	boom := errors.New("boom")
	if _, err := UpdateComplaint(ctx, db, c.ID, func(cur *domain.Complaint) error {
		cur.Status = domain.StatusResolved
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want mutator error", err)
	}
	after, err := GetComplaintRow(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetComplaintRow: %v", err)
	}
	if after.Status != domain.StatusInProgress {
		t.Fatalf("rolled-back mutation leaked: status = %s", after.Status)
	}
}

func TestUpdateComplaint_UnknownID(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})
	_, err := UpdateComplaint(context.Background(), db, uuid.NewString(), func(*domain.Complaint) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestDeleteComplaint_NotFoundAndSuccess(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})
	ctx := context.Background()

	if err := DeleteComplaint(ctx, db, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: err = %v; want ErrNotFound", err)
	}

	c := newComplaint("to delete")
	if err := CreateComplaint(ctx, db, c); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}
	if err := DeleteComplaint(ctx, db, c.ID); err != nil {
		t.Fatalf("DeleteComplaint: %v", err)
	}
	if _, err := GetComplaintRow(ctx, db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("row survived delete")
	}
}

func TestTouchComplaint_BumpsUpdatedAt(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{})
	ctx := context.Background()

	c := newComplaint("touch")
	c.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	if err := CreateComplaint(ctx, db, c); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}

	now := time.Now().UTC()
	if err := TouchComplaint(ctx, db, c.ID, now); err != nil {
		t.Fatalf("TouchComplaint: %v", err)
	}
	got, err := GetComplaintRow(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetComplaintRow: %v", err)
	}
	if got.UpdatedAt.Before(now.Add(-time.Second)) {
		t.Fatalf("UpdatedAt not bumped: %v", got.UpdatedAt)
	}

	if err := TouchComplaint(ctx, db, uuid.NewString(), now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("touch missing: err = %v; want ErrNotFound", err)
	}
}

func TestCountCommentsAndNotes(t *testing.T) {
	db := newTestDB(t, &domain.Complaint{}, &domain.Comment{}, &domain.ProgressNote{})
	ctx := context.Background()

	c := newComplaint("counts")
	if err := CreateComplaint(ctx, db, c); err != nil {
		t.Fatalf("CreateComplaint: %v", err)
	}

	n, err := CountComments(ctx, db, c.ID)
	if err != nil || n != 0 {
		t.Fatalf("initial comment count = %d, err %v", n, err)
	}

	for i := 1; i <= 2; i++ {
		pn := &domain.ProgressNote{
			ID:          uuid.NewString(),
			ComplaintID: c.ID,
			Position:    i,
			Author:      "admin",
			Note:        "n",
			CreatedAt:   time.Now().UTC(),
		}
		if err := CreateProgressNote(ctx, db, pn); err != nil {
			t.Fatalf("CreateProgressNote: %v", err)
		}
	}
	n, err = CountProgressNotes(ctx, db, c.ID)
	if err != nil || n != 2 {
		t.Fatalf("note count = %d, err %v; want 2", n, err)
	}
}
