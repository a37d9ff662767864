// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Complaint
// aggregate and its append-only sub-records.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a complaint is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Ordering: complaints carry a strictly increasing Seq assigned inside the
// insert transaction. Seq is the canonical creation order; wall-clock
// timestamps are never used for ordering so that ties stay deterministic.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateComplaint inserts a new complaint row, assigning the next insertion
// sequence number inside a transaction so that Seq is gapless under
// concurrent submissions. The caller is expected to have populated ID,
// timestamps, and validated fields.
func CreateComplaint(ctx context.Context, db *gorm.DB, c *domain.Complaint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&domain.Complaint{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		c.Seq = maxSeq + 1
		return tx.Omit(clause.Associations).Create(c).Error
	})
}

// ListComplaints returns every complaint with comments and progress notes
// preloaded in append order, sorted by insertion sequence ascending. The
// query/aggregation layer derives all filtered and sorted views from this
// canonical slice.
func ListComplaints(ctx context.Context, db *gorm.DB) ([]domain.Complaint, error) {
	var out []domain.Complaint
	err := db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("ProgressNotes", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Order("seq asc").
		Find(&out).Error
	return out, err
}

// GetComplaint fetches a single complaint by ID with sub-records preloaded
// in append order. If the record does not exist, it returns ErrNotFound.
func GetComplaint(ctx context.Context, db *gorm.DB, id string) (*domain.Complaint, error) {
	var c domain.Complaint
	err := db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("ProgressNotes", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetComplaintRow fetches the bare complaint row (no sub-records). Used for
// read-modify-write cycles where only scalar fields are touched.
func GetComplaintRow(ctx context.Context, db *gorm.DB, id string) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveComplaint persists the scalar fields of a complaint row. Associations
// are deliberately omitted: comments and progress notes are append-only and
// written through their own repository functions, never via a full save.
func SaveComplaint(ctx context.Context, db *gorm.DB, c *domain.Complaint) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

// UpdateComplaint applies mutate to the latest stored revision of the
// complaint inside a single transaction (atomic read-modify-write). The
// mutator receives the freshly loaded row, so concurrent sub-record appends
// or field patches against the same complaint are never clobbered by a stale
// client copy. Returns ErrNotFound when the id is unknown; if mutate returns
// an error the transaction is rolled back and nothing is persisted.
func UpdateComplaint(ctx context.Context, db *gorm.DB, id string, mutate func(*domain.Complaint) error) (*domain.Complaint, error) {
	var out *domain.Complaint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := GetComplaintRow(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(c); err != nil {
			return err
		}
		if err := SaveComplaint(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteComplaint removes a complaint row; cascades take the sub-records and
// upvotes with it. Normal complaint flow never deletes; this exists for the
// admin surface and cleanup jobs. Returns ErrNotFound when no row matched.
func DeleteComplaint(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Complaint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountComments returns the number of comments attached to a complaint.
func CountComments(ctx context.Context, db *gorm.DB, complaintID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("complaint_id = ?", complaintID).
		Count(&n).Error
	return n, err
}

// CreateComment appends a comment row. Position must already be assigned by
// the caller (inside the same transaction as the CountComments read).
func CreateComment(ctx context.Context, db *gorm.DB, cm *domain.Comment) error {
	return db.WithContext(ctx).Create(cm).Error
}

// CountProgressNotes returns the number of progress notes attached to a complaint.
func CountProgressNotes(ctx context.Context, db *gorm.DB, complaintID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ProgressNote{}).
		Where("complaint_id = ?", complaintID).
		Count(&n).Error
	return n, err
}

// CreateProgressNote appends a progress note row. Position must already be
// assigned by the caller (inside the same transaction as the count read).
func CreateProgressNote(ctx context.Context, db *gorm.DB, pn *domain.ProgressNote) error {
	return db.WithContext(ctx).Create(pn).Error
}

// TouchComplaint bumps a complaint's updated_at to now. Returns ErrNotFound
// when no row matched.
func TouchComplaint(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Where("id = ?", id).
		Update("updated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
