// Package domain defines the persistence models for complaints, their
// append-only sub-records (comments, progress notes), per-user upvotes, and
// authorities. These types are mapped with GORM and form the core data layer
// of the complaint application.
package domain

import (
	"time"
)

// Complaint status values. Any status is reachable from any other; every
// transition is recorded as an implicit progress note by the service layer.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusEscalated  = "ESCALATED"
)

// Complaint urgency values.
const (
	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
	UrgencyLow    = "LOW"
)

// Escalation level bounds (ordinal severity, 1 = lowest).
const (
	MinLevel = 1
	MaxLevel = 4
)

// ValidStatus reports whether s is one of the recognized complaint statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusEscalated:
		return true
	}
	return false
}

// ValidUrgency reports whether u is one of the recognized urgency values.
func ValidUrgency(u string) bool {
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// Complaint represents a single filed grievance with lifecycle state. It owns
// two append-only ordered sequences (comments and progress notes) and is
// referenced by Upvote rows that carry the per-user "like" state.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Seq: strictly increasing insertion sequence assigned at insert time.
//     Newest/oldest ordering and all sort tie-breaks use Seq, not wall-clock,
//     so identical timestamps never produce ambiguous orderings.
//   - Title / Description: free text, both required to be non-blank.
//   - Category / Department: validated against the recognized sets at the
//     service boundary before persisting.
//   - Status: lifecycle state; forced to OPEN on submission.
//   - Urgency: HIGH/MEDIUM/LOW, defaults to MEDIUM.
//   - Anonymous: when true, SubmitterName is cleared before persisting.
//   - AssignedAuthorityID: weak reference to an Authority; no FK constraint,
//     so deactivating or deleting an authority never cascades here.
//   - Level: escalation ordinal in [1,4], defaults to 1.
//   - CreatedAt: immutable. UpdatedAt: bumped on every mutation.
type Complaint struct {
	ID                  string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Seq                 int64     `json:"seq"         gorm:"not null;uniqueIndex:ux_complaint_seq"`
	Title               string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description         string    `json:"description" gorm:"type:text;not null"`
	Category            string    `json:"category"    gorm:"type:varchar(64);not null;index"`
	Department          string    `json:"department"  gorm:"type:varchar(64);not null;index"`
	Status              string    `json:"status"      gorm:"type:varchar(16);not null;default:'OPEN';check:status IN ('OPEN','IN_PROGRESS','RESOLVED','ESCALATED');index"`
	Urgency             string    `json:"urgency"     gorm:"type:varchar(8);not null;default:'MEDIUM';check:urgency IN ('HIGH','MEDIUM','LOW')"`
	Anonymous           bool      `json:"anonymous"   gorm:"not null;default:false"`
	SubmitterName       string    `json:"name"        gorm:"type:varchar(128)"`
	AssignedAuthorityID *string   `json:"assigned_authority_id,omitempty" gorm:"type:char(36);index"`
	Level               int       `json:"level"       gorm:"not null;default:1;check:level BETWEEN 1 AND 4"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Append-only sub-records, ordered by Position. Loaded on demand.
	Comments      []Comment      `json:"comments,omitempty"       gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ProgressNotes []ProgressNote `json:"progress_notes,omitempty" gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Complaint.
func (Complaint) TableName() string { return "complaints" }

// EscalationEligible reports whether the complaint is unresolved and older
// than the aging window at the given instant. The value is derived on read and
// never persisted, so it can never go stale. The admin dashboard's aged
// unresolved count is computed with this same predicate.
func (c Complaint) EscalationEligible(now time.Time, window time.Duration) bool {
	return c.Status != StatusResolved && now.Sub(c.CreatedAt) > window
}

// Comment is a user remark attached to a complaint. Comments are immutable
// once written: they are only ever appended, never edited, reordered, or
// deleted (short of the parent complaint being removed).
//
// Position is a 1-based index within the parent complaint, assigned inside
// the append transaction, which keeps the sequence gap-free and ordered even
// when two comments share a CreatedAt timestamp.
type Comment struct {
	ID          string    `json:"id"       gorm:"type:char(36);primaryKey"`
	ComplaintID string    `json:"-"        gorm:"type:char(36);not null;uniqueIndex:ux_comment_pos,priority:1"`
	Position    int       `json:"position" gorm:"not null;uniqueIndex:ux_comment_pos,priority:2"`
	Author      string    `json:"author"   gorm:"type:varchar(128);not null"`
	Text        string    `json:"text"     gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// ProgressNote is an administrative status update attached to a complaint,
// distinct from user comments. Status transitions applied through the service
// layer append one implicitly, so the notes double as an audit trail. The
// same append-only discipline as Comment applies.
type ProgressNote struct {
	ID          string    `json:"id"       gorm:"type:char(36);primaryKey"`
	ComplaintID string    `json:"-"        gorm:"type:char(36);not null;uniqueIndex:ux_note_pos,priority:1"`
	Position    int       `json:"position" gorm:"not null;uniqueIndex:ux_note_pos,priority:2"`
	Author      string    `json:"author"   gorm:"type:varchar(128);not null"`
	Note        string    `json:"note"     gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for ProgressNote.
func (ProgressNote) TableName() string { return "progress_notes" }

// Upvote marks "this user currently likes this complaint". Existence is the
// only state: rows are created on toggle-on and deleted on toggle-off, never
// updated. A complaint's displayed upvote count is the cardinality of its
// Upvote rows; the count is never stored redundantly on the complaint.
//
// The (complaint_id, user_id) pair is unique, enforced by the database index
// rather than a best-effort check, so concurrent toggles cannot double-insert.
type Upvote struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	ComplaintID string    `json:"complaint_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_upvote_complaint_user,priority:1"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;index;uniqueIndex:ux_upvote_complaint_user,priority:2"`
	CreatedAt   time.Time `json:"created_at"`

	// Complaint is the liked complaint. Upvotes are cascade-deleted if the
	// underlying complaint is removed.
	Complaint Complaint `json:"-" gorm:"foreignKey:ComplaintID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Upvote.
func (Upvote) TableName() string { return "upvotes" }

// Authority is an administrative actor eligible for complaint assignment.
// Complaints reference authorities weakly: deactivating one leaves the
// assignment in place, but views must render it as unassigned.
type Authority struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name       string    `json:"name"       gorm:"type:varchar(128);not null"`
	Department string    `json:"department" gorm:"type:varchar(64);not null"`
	Email      string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_authority_email"`
	Role       string    `json:"role"       gorm:"type:varchar(64);not null"`
	Active     bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Authority.
func (Authority) TableName() string { return "authorities" }
