// Package services – ComplaintService
//
// This file implements the ComplaintService, which owns the complaint
// lifecycle: validated submission, field edits with an implicit audit trail,
// and the append-only comment/progress-note sequences. All mutations are
// applied read-modify-write against the latest stored revision inside a
// transaction, so independent concurrent mutations (a comment append and a
// status change, say) both survive.
//
// Service-level errors (ErrComplaintNotFound, *ValidationError) are returned
// for predictable cases so handlers can map them to HTTP results consistently.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// complaint identifiers where applicable.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
	"github.com/campusvoice/go-complaint-backend/internal/events"
	"github.com/campusvoice/go-complaint-backend/internal/query"
	"github.com/campusvoice/go-complaint-backend/internal/repo"
)

// DefaultAgingWindow is how old an unresolved complaint must be before it
// counts as escalation-eligible.
const DefaultAgingWindow = 14 * 24 * time.Hour

// Default recognized sets. Deployments override these through configuration;
// the sets are open in the sense that config can extend them, but a value
// outside the configured set is always rejected, never silently accepted.
var (
	DefaultCategories = []string{
		"Academics", "Micro Campus", "Hostel Life", "Placement", "Campus Infrastructure",
	}
	DefaultDepartments = []string{
		"IT Services", "Maintenance", "Mess Committee", "General Admin",
		"Computer Science", "Mechanical",
	}
)

// ComplaintService coordinates complaint persistence and lifecycle rules.
type ComplaintService struct {
	// DB is the GORM handle used for all complaint operations.
	DB *gorm.DB
	// Publisher receives a change event after every committed mutation.
	// May be nil when the sync boundary is disabled.
	Publisher events.Publisher

	// Categories and Departments are the recognized sets enforced at submit
	// and edit time.
	Categories  []string
	Departments []string

	// AgingWindow parameterizes the escalation-eligibility predicate.
	AgingWindow time.Duration

	// Now is the injected clock; defaults to time.Now().UTC. Timestamps and
	// the aging predicate go through it so tests control time.
	Now func() time.Time
}

// NewComplaintService constructs a ComplaintService with the default
// recognized sets and aging window.
func NewComplaintService(db *gorm.DB, pub events.Publisher) *ComplaintService {
	return &ComplaintService{
		DB:          db,
		Publisher:   pub,
		Categories:  DefaultCategories,
		Departments: DefaultDepartments,
		AgingWindow: DefaultAgingWindow,
	}
}

// SubmitInput carries the caller-supplied fields of a new complaint. Status
// and level are deliberately absent: submissions always start OPEN at level 1
// no matter what the transport layer received.
type SubmitInput struct {
	Title         string
	Description   string
	Category      string
	Department    string
	Urgency       string
	Anonymous     bool
	SubmitterName string
}

// Submit validates the input and files a new complaint.
//
// Semantics and validation:
//   - Title and description must be non-blank after trimming.
//   - Category and department must come from the recognized sets; unknown
//     values are rejected, not stored.
//   - Urgency defaults to MEDIUM when empty; otherwise it must be one of
//     HIGH/MEDIUM/LOW (case-insensitive).
//   - Status is forced to OPEN and level to 1 regardless of input.
//   - Anonymous submissions have the submitter name cleared before persisting.
//
// On success the stored complaint is returned and an insert event is
// published best-effort. Validation failures return *ValidationError naming
// the offending field, before any store mutation.
func (s *ComplaintService) Submit(ctx context.Context, in SubmitInput) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("category", in.Category)))
	defer span.End()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title", "must not be blank")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, invalid("description", "must not be blank")
	}
	if !slices.Contains(s.categories(), in.Category) {
		return nil, invalid("category", "unrecognized category")
	}
	if !slices.Contains(s.departments(), in.Department) {
		return nil, invalid("department", "unrecognized department")
	}

	urgency := strings.ToUpper(strings.TrimSpace(in.Urgency))
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	if !domain.ValidUrgency(urgency) {
		return nil, invalid("urgency", "must be HIGH, MEDIUM, or LOW")
	}

	name := strings.TrimSpace(in.SubmitterName)
	if in.Anonymous {
		name = ""
	}

	now := s.now()
	c := &domain.Complaint{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   desc,
		Category:      in.Category,
		Department:    in.Department,
		Status:        domain.StatusOpen,
		Urgency:       urgency,
		Anonymous:     in.Anonymous,
		SubmitterName: name,
		Level:         domain.MinLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.CreateComplaint(ctx, s.DB, c); err != nil {
		return nil, storeErr(err)
	}

	s.publish(ctx, events.TypeInsert, c.ID, c.UpdatedAt)
	return c, nil
}

// EditPatch is a partial update over the admin-editable complaint fields.
// Nil pointers leave the corresponding field untouched. An empty string in
// AssignedAuthorityID clears the assignment.
type EditPatch struct {
	Status              *string
	Department          *string
	AssignedAuthorityID *string
	Level               *int
}

// ApplyEdit patches a complaint's lifecycle fields atomically.
//
// No status transition is forbidden; any state is reachable from any other,
// but every status change appends an implicit progress note stamped with the
// actor and the old and new status, in the same transaction as the field
// patch, so the audit trail cannot drift from the record.
//
// The patch is merged against the latest stored revision (read-modify-write
// inside the transaction), never against a caller-held copy, and UpdatedAt is
// bumped. Returns ErrComplaintNotFound for unknown ids and *ValidationError
// for bad patch values; in both cases nothing is persisted.
func (s *ComplaintService) ApplyEdit(ctx context.Context, id, actor string, patch EditPatch) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "ApplyEdit",
		trace.WithAttributes(attribute.String("complaint_id", id)))
	defer span.End()

	// Validate before touching the store.
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return nil, invalid("status", "unrecognized status")
	}
	if patch.Department != nil && !slices.Contains(s.departments(), *patch.Department) {
		return nil, invalid("department", "unrecognized department")
	}
	if patch.Level != nil && (*patch.Level < domain.MinLevel || *patch.Level > domain.MaxLevel) {
		return nil, invalid("level", fmt.Sprintf("must be between %d and %d", domain.MinLevel, domain.MaxLevel))
	}

	if actor == "" {
		actor = "system"
	}
	now := s.now()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldStatus string
		c, err := repo.UpdateComplaint(ctx, tx, id, func(c *domain.Complaint) error {
			oldStatus = c.Status
			if patch.Status != nil {
				c.Status = *patch.Status
			}
			if patch.Department != nil {
				c.Department = *patch.Department
			}
			if patch.AssignedAuthorityID != nil {
				if *patch.AssignedAuthorityID == "" {
					c.AssignedAuthorityID = nil
				} else {
					aid := *patch.AssignedAuthorityID
					c.AssignedAuthorityID = &aid
				}
			}
			if patch.Level != nil {
				c.Level = *patch.Level
			}
			c.UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}

		// Audit the transition in the same outer transaction as the patch.
		if patch.Status != nil && oldStatus != c.Status {
			n, err := repo.CountProgressNotes(ctx, tx, c.ID)
			if err != nil {
				return err
			}
			note := &domain.ProgressNote{
				ID:          uuid.NewString(),
				ComplaintID: c.ID,
				Position:    int(n) + 1,
				Author:      actor,
				Note:        fmt.Sprintf("status changed %s -> %s", oldStatus, c.Status),
				CreatedAt:   now,
			}
			if err := repo.CreateProgressNote(ctx, tx, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, storeErr(err)
	}

	s.publish(ctx, events.TypeUpdate, id, now)
	return s.Get(ctx, id)
}

// AddComment appends a user comment to a complaint. Comments are immutable
// once written; the append assigns the next position inside the transaction
// and bumps the parent's UpdatedAt. Blank text is rejected before any store
// mutation.
func (s *ComplaintService) AddComment(ctx context.Context, id, author, text string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "AddComment",
		trace.WithAttributes(attribute.String("complaint_id", id)))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "must not be blank")
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "Anonymous"
	}

	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetComplaintRow(ctx, tx, id); err != nil {
			return err
		}
		n, err := repo.CountComments(ctx, tx, id)
		if err != nil {
			return err
		}
		cm := &domain.Comment{
			ID:          uuid.NewString(),
			ComplaintID: id,
			Position:    int(n) + 1,
			Author:      author,
			Text:        text,
			CreatedAt:   now,
		}
		if err := repo.CreateComment(ctx, tx, cm); err != nil {
			return err
		}
		return repo.TouchComplaint(ctx, tx, id, now)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, storeErr(err)
	}

	s.publish(ctx, events.TypeUpdate, id, now)
	return s.Get(ctx, id)
}

// AddProgressNote appends an administrative progress note. Same contract as
// AddComment but targets the progress-note sequence.
func (s *ComplaintService) AddProgressNote(ctx context.Context, id, author, note string) (*domain.Complaint, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "AddProgressNote",
		trace.WithAttributes(attribute.String("complaint_id", id)))
	defer span.End()

	note = strings.TrimSpace(note)
	if note == "" {
		return nil, invalid("note", "must not be blank")
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "system"
	}

	now := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetComplaintRow(ctx, tx, id); err != nil {
			return err
		}
		n, err := repo.CountProgressNotes(ctx, tx, id)
		if err != nil {
			return err
		}
		pn := &domain.ProgressNote{
			ID:          uuid.NewString(),
			ComplaintID: id,
			Position:    int(n) + 1,
			Author:      author,
			Note:        note,
			CreatedAt:   now,
		}
		if err := repo.CreateProgressNote(ctx, tx, pn); err != nil {
			return err
		}
		return repo.TouchComplaint(ctx, tx, id, now)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, storeErr(err)
	}

	s.publish(ctx, events.TypeUpdate, id, now)
	return s.Get(ctx, id)
}

// Get fetches one complaint with its sub-records.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	c, err := repo.GetComplaint(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, storeErr(err)
	}
	return c, nil
}

// Delete removes a complaint and its dependents. Not part of the normal
// lifecycle (complaints are worked, not erased); exposed for the admin
// surface only.
func (s *ComplaintService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteComplaint(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrComplaintNotFound
		}
		return storeErr(err)
	}
	s.publish(ctx, events.TypeDelete, id, s.now())
	return nil
}

// ListRows returns the canonical row snapshot, every complaint in insertion
// order with its derived upvote count, which the query layer filters, sorts,
// and aggregates.
func (s *ComplaintService) ListRows(ctx context.Context) ([]query.Row, error) {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "ListRows")
	defer span.End()

	complaints, err := repo.ListComplaints(ctx, s.DB)
	if err != nil {
		return nil, storeErr(err)
	}
	counts, err := repo.CountUpvotesByComplaint(ctx, s.DB)
	if err != nil {
		return nil, storeErr(err)
	}

	rows := make([]query.Row, 0, len(complaints))
	for _, c := range complaints {
		rows = append(rows, query.Row{Complaint: c, Upvotes: counts[c.ID]})
	}
	return rows, nil
}

// EscalationEligible applies the derived aging predicate at the current
// injected-clock instant.
func (s *ComplaintService) EscalationEligible(c domain.Complaint) bool {
	return c.EscalationEligible(s.now(), s.agingWindow())
}

// Stats derives the admin dashboard aggregates from the full collection. The
// authority leaderboard carries resolved names, never stored ids, and a
// deactivated or deleted assignee counts as unassigned.
func (s *ComplaintService) Stats(ctx context.Context) (query.DashboardStats, error) {
	rows, err := s.ListRows(ctx)
	if err != nil {
		return query.DashboardStats{}, err
	}

	ids := make([]string, 0, len(rows))
	seen := map[string]struct{}{}
	for _, r := range rows {
		if r.Complaint.AssignedAuthorityID == nil || *r.Complaint.AssignedAuthorityID == "" {
			continue
		}
		id := *r.Complaint.AssignedAuthorityID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	var authorities map[string]domain.Authority
	if len(ids) > 0 {
		authorities, err = repo.GetAuthoritiesByID(ctx, s.DB, ids)
		if err != nil {
			return query.DashboardStats{}, storeErr(err)
		}
	}

	return query.Stats(rows, authorities, s.now(), s.agingWindow()), nil
}

// ExportCSV streams the flat reporting projection of every complaint to w,
// in insertion order, with ages computed at the service clock.
func (s *ComplaintService) ExportCSV(ctx context.Context, w io.Writer) error {
	tr := otel.Tracer("services/ComplaintService")
	ctx, span := tr.Start(ctx, "ExportCSV")
	defer span.End()

	rows, err := s.ListRows(ctx)
	if err != nil {
		return err
	}
	return query.WriteCSV(w, rows, s.now())
}

func (s *ComplaintService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ComplaintService) agingWindow() time.Duration {
	if s.AgingWindow > 0 {
		return s.AgingWindow
	}
	return DefaultAgingWindow
}

func (s *ComplaintService) categories() []string {
	if len(s.Categories) > 0 {
		return s.Categories
	}
	return DefaultCategories
}

func (s *ComplaintService) departments() []string {
	if len(s.Departments) > 0 {
		return s.Departments
	}
	return DefaultDepartments
}

// publish emits a change event after a committed mutation. Failures are
// logged, not returned: the mutation already happened and the store is the
// source of truth.
func (s *ComplaintService) publish(ctx context.Context, t events.Type, id string, at time.Time) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, events.Event{Type: t, ComplaintID: id, UpdatedAt: at}); err != nil {
		log.Warn().Err(err).Str("complaint_id", id).Str("event", string(t)).Msg("publish change event")
	}
}
