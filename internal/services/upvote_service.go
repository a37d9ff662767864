// Package services – UpvoteService
//
// This file implements the UpvoteService, which governs the per-user upvote
// toggle on complaints. An upvote is existence-only state: toggling on
// creates the (complaint, user) row, toggling off deletes it, and the
// displayed count is always the cardinality of the rows, never a counter
// stored on the complaint, so the two can never drift apart.
//
// Upvote toggles are keyed by (complaintId, userId) and never contend with
// complaint-body mutations; it is safe to toggle concurrently with any edit.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusvoice/go-complaint-backend/internal/repo"
)

// UpvoteService implements the idempotent per-user upvote toggle.
type UpvoteService struct {
	// DB is the database handle used for all upvote operations.
	DB *gorm.DB
}

// Toggle flips the upvote state of (complaintID, userID) and reports the
// resulting state: nowLiked=true when the call created the upvote,
// nowLiked=false when it withdrew one.
//
// Concurrency & atomicity:
//   - The delete-or-create runs inside a transaction against the current
//     stored state, and the (complaint_id, user_id) unique index makes a
//     double-insert impossible. When two toggles race, the loser's insert
//     trips the constraint and is reported as the committed liked state;
//     a single winner, never two rows.
//
// Errors:
//   - ErrComplaintNotFound when the complaint does not exist.
//   - The underlying DB error for unexpected failures.
func (s *UpvoteService) Toggle(ctx context.Context, complaintID, userID string) (nowLiked bool, err error) {
	tr := otel.Tracer("services/UpvoteService")
	ctx, span := tr.Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("complaint_id", complaintID),
			attribute.String("user_id", userID),
		))
	defer span.End()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetComplaintRow(ctx, tx, complaintID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}

		removed, err := repo.DeleteUpvote(ctx, tx, complaintID, userID)
		if err != nil {
			return err
		}
		if removed > 0 {
			nowLiked = false
			return nil
		}

		if err := repo.CreateUpvote(ctx, tx, complaintID, userID); err != nil {
			// A racing toggle already inserted the row; its committed state wins.
			if isDuplicate(err) {
				nowLiked = true
				return nil
			}
			return err
		}
		nowLiked = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrComplaintNotFound) {
			return false, err
		}
		return false, storeErr(err)
	}
	return nowLiked, nil
}

// Count returns the displayed upvote count for a complaint, derived from the
// upvote rows.
func (s *UpvoteService) Count(ctx context.Context, complaintID string) (int64, error) {
	n, err := repo.CountUpvotes(ctx, s.DB, complaintID)
	return n, storeErr(err)
}

// Liked reports whether userID currently has an upvote on the complaint.
func (s *UpvoteService) Liked(ctx context.Context, complaintID, userID string) (bool, error) {
	liked, err := repo.HasUpvote(ctx, s.DB, complaintID, userID)
	return liked, storeErr(err)
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
