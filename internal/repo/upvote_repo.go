// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Upvote model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving the toggle semantics to the services package.
//
// Error semantics:
//   - A duplicate upvote (same complaint_id, user_id) relies on the database
//     unique constraint and is returned as a raw DB error. The service layer
//     translates that into the committed toggle state.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
)

// CreateUpvote inserts an upvote row for the given complaint and user.
//
// The combination (complaint_id, user_id) must be unique, enforced by the
// database schema (unique index). If a duplicate exists, the database will
// return an error which the service layer translates into the winning state.
func CreateUpvote(ctx context.Context, db *gorm.DB, complaintID, userID string) error {
	uv := &domain.Upvote{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(uv).Error
}

// DeleteUpvote removes the upvote row for (complaintID, userID) if present.
// It returns the number of rows removed (0 or 1) so the caller can tell
// whether the user had an upvote to withdraw.
func DeleteUpvote(ctx context.Context, db *gorm.DB, complaintID, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("complaint_id = ? AND user_id = ?", complaintID, userID).
		Delete(&domain.Upvote{})
	return res.RowsAffected, res.Error
}

// HasUpvote reports whether the user currently has an upvote on the complaint.
func HasUpvote(ctx context.Context, db *gorm.DB, complaintID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Where("complaint_id = ? AND user_id = ?", complaintID, userID).
		Count(&n).Error
	return n > 0, err
}

// CountUpvotes returns the cardinality of upvote rows for a complaint. This
// is the only source of the displayed upvote count; it is never cached on
// the complaint row.
func CountUpvotes(ctx context.Context, db *gorm.DB, complaintID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Where("complaint_id = ?", complaintID).
		Count(&n).Error
	return n, err
}

// CountUpvotesByComplaint returns upvote counts grouped by complaint id in a
// single query, for bulk view assembly. Complaints with zero upvotes are
// absent from the map.
func CountUpvotesByComplaint(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		ComplaintID string
		N           int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Select("complaint_id, COUNT(*) AS n").
		Group("complaint_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ComplaintID] = r.N
	}
	return out, nil
}
