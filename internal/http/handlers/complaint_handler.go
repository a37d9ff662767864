// Complaint HTTP handlers.
//
// This file exposes REST endpoints for complaint resources:
//   - POST   /complaints                (submit)
//   - GET    /complaints               (filtered/sorted list, paginated, ETag support)
//   - GET    /complaints/{id}          (detail with sub-records)
//   - PATCH  /complaints/{id}          (lifecycle field edit)
//   - POST   /complaints/{id}/comments (append comment)
//   - POST   /complaints/{id}/notes    (append progress note)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusvoice/go-complaint-backend/internal/domain"
	"github.com/campusvoice/go-complaint-backend/internal/http/middleware"
	"github.com/campusvoice/go-complaint-backend/internal/query"
	"github.com/campusvoice/go-complaint-backend/internal/repo"
	"github.com/campusvoice/go-complaint-backend/internal/services"
	"github.com/campusvoice/go-complaint-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ComplaintService defines the lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ComplaintService interface {
	// Submit validates and files a new complaint (status forced to OPEN).
	Submit(ctx context.Context, in services.SubmitInput) (*domain.Complaint, error)
	// ApplyEdit patches lifecycle fields, auditing status transitions.
	ApplyEdit(ctx context.Context, id, actor string, patch services.EditPatch) (*domain.Complaint, error)
	// AddComment appends an immutable user comment.
	AddComment(ctx context.Context, id, author, text string) (*domain.Complaint, error)
	// AddProgressNote appends an administrative progress note.
	AddProgressNote(ctx context.Context, id, author, note string) (*domain.Complaint, error)
	// Get fetches one complaint with sub-records.
	Get(ctx context.Context, id string) (*domain.Complaint, error)
	// Delete removes a complaint (admin only).
	Delete(ctx context.Context, id string) error
	// ListRows returns the canonical row snapshot for view derivation.
	ListRows(ctx context.Context) ([]query.Row, error)
	// Stats derives the admin dashboard aggregates.
	Stats(ctx context.Context) (query.DashboardStats, error)
	// ExportCSV streams the flat reporting projection to w.
	ExportCSV(ctx context.Context, w io.Writer) error
	// EscalationEligible applies the aging predicate at the service clock.
	EscalationEligible(c domain.Complaint) bool
}

// UpvoteService defines the per-user upvote toggle consumed by HTTP handlers.
type UpvoteService interface {
	// Toggle flips the (complaint, user) upvote and reports the new state.
	Toggle(ctx context.Context, complaintID, userID string) (bool, error)
	// Count returns the derived upvote count for a complaint.
	Count(ctx context.Context, complaintID string) (int64, error)
	// Liked reports whether the user currently upvotes the complaint.
	Liked(ctx context.Context, complaintID, userID string) (bool, error)
}

// AuthorityService defines the admin authority operations consumed by handlers.
type AuthorityService interface {
	Create(ctx context.Context, in services.AuthorityInput) (*domain.Authority, error)
	List(ctx context.Context) ([]domain.Authority, error)
	Get(ctx context.Context, id string) (*domain.Authority, error)
	ByID(ctx context.Context, ids []string) (map[string]domain.Authority, error)
	Update(ctx context.Context, id string, patch services.AuthorityPatch) (*domain.Authority, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for complaints, upvotes, and authorities.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	complaintSvc ComplaintService
	upvoteSvc    UpvoteService
	authoritySvc AuthorityService

	// IdempotencyTTL bounds how long a stored Idempotency-Key keeps replaying
	// the original submission. Zero falls back to the default.
	IdempotencyTTL time.Duration
}

// defaultIdempotencyTTL applies when no TTL was configured.
const defaultIdempotencyTTL = 24 * time.Hour

// New constructs and returns a Handlers instance bound to the given services.
func New(complaintSvc ComplaintService, upvoteSvc UpvoteService, authoritySvc AuthorityService) *Handlers {
	return &Handlers{complaintSvc: complaintSvc, upvoteSvc: upvoteSvc, authoritySvc: authoritySvc}
}

func (h *Handlers) idemTTL() time.Duration {
	if h.IdempotencyTTL > 0 {
		return h.IdempotencyTTL
	}
	return defaultIdempotencyTTL
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". Safe to call with a nil context or a context
// whose Request is nil.
func userID(c *gin.Context) string {
	if c == nil {
		return "demo-user"
	}
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SubmitComplaintRequest is the JSON payload for filing a complaint. Any
// status or upvote fields a client sends are ignored: submissions always
// start OPEN with zero upvotes.
type SubmitComplaintRequest struct {
	Title       string `json:"title"       binding:"required" example:"No WiFi in 3rd floor classrooms"`
	Description string `json:"description" binding:"required" example:"WiFi is not accessible during lectures."`
	Category    string `json:"category"    binding:"required" example:"Academics"`
	Department  string `json:"department"  binding:"required" example:"IT Services"`
	Urgency     string `json:"urgency"     example:"Medium"`
	Anonymous   bool   `json:"anonymous"`
	Name        string `json:"name"        example:"Ayesha R"`
}

// EditComplaintRequest is the JSON payload for patching lifecycle fields.
// Absent fields are left untouched; an empty assigned_authority_id clears
// the assignment.
type EditComplaintRequest struct {
	Status              *string `json:"status,omitempty"               example:"IN_PROGRESS"`
	Department          *string `json:"department,omitempty"           example:"Maintenance"`
	AssignedAuthorityID *string `json:"assigned_authority_id,omitempty"`
	Level               *int    `json:"level,omitempty"                example:"2"`
}

// AddCommentRequest is the JSON payload for appending a comment.
type AddCommentRequest struct {
	Author string `json:"author" example:"Vikram M"`
	Text   string `json:"text"   binding:"required" example:"Same issue in Block B."`
}

// AddNoteRequest is the JSON payload for appending a progress note.
type AddNoteRequest struct {
	Author string `json:"author" example:"admin"`
	Note   string `json:"note"   binding:"required" example:"Technician scheduled for Friday."`
}

// AuthorityRef is the resolved assignee shown on complaint views. Inactive or
// deleted authorities are never surfaced here; the complaint renders as
// unassigned even though the weak reference remains stored.
type AuthorityRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// ComplaintView is the complaint resource as rendered to clients: the stored
// record plus derived state (upvote count, caller's liked flag, escalation
// eligibility, resolved assignee).
type ComplaintView struct {
	domain.Complaint
	Upvotes            int64         `json:"upvotes"`
	CommentCount       int           `json:"comment_count"`
	Liked              *bool         `json:"liked,omitempty"`
	EscalationEligible bool          `json:"escalation_eligible"`
	AssignedAuthority  *AuthorityRef `json:"assigned_authority,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListComplaintsResponse wraps a filtered page of complaints and pagination
// information.
type ListComplaintsResponse struct {
	Complaints []ComplaintView `json:"complaints"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parseFilter builds the query-layer filter spec from URL query params.
func parseFilter(c *gin.Context) query.Filter {
	return query.Filter{
		Category:   c.DefaultQuery("category", query.All),
		Department: c.DefaultQuery("department", query.All),
		Status:     c.DefaultQuery("status", query.All),
		Level:      utils.AtoiDefault(c.Query("level"), 0),
		Search:     c.Query("search"),
		Sort:       c.DefaultQuery("sort", query.SortNewest),
	}
}

// mapServiceError translates service-layer errors into HTTP results. The
// fallthrough is a 500 with a generic code; validation errors surface the
// offending field in the message, and transient store outages surface as a
// retryable 503.
func mapServiceError(c *gin.Context, err error) {
	if ve, isValidation := services.AsValidation(err); isValidation {
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
		return
	}
	if errors.Is(err, services.ErrStoreUnavailable) {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "store temporarily unavailable, retry later")
		return
	}
	switch err {
	case services.ErrComplaintNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "complaint not found")
	case services.ErrAuthorityNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "authority not found")
	case services.ErrDuplicateAuthorityEmail:
		fail(c, http.StatusConflict, ErrCodeConflict, "authority email already exists")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// viewOf assembles the rendered complaint view. authorities may be nil when
// the caller did not resolve assignees.
func (h *Handlers) viewOf(c domain.Complaint, upvotes int64, liked *bool, authorities map[string]domain.Authority) ComplaintView {
	v := ComplaintView{
		Complaint:          c,
		Upvotes:            upvotes,
		CommentCount:       len(c.Comments),
		Liked:              liked,
		EscalationEligible: h.complaintSvc.EscalationEligible(c),
	}
	if c.AssignedAuthorityID != nil {
		if a, found := authorities[*c.AssignedAuthorityID]; found && a.Active {
			v.AssignedAuthority = &AuthorityRef{ID: a.ID, Name: a.Name, Department: a.Department}
		}
	}
	return v
}

// resolveAuthorities bulk-loads the active-assignee map for a row slice.
// Resolution is best-effort: on lookup failure views render unassigned.
func (h *Handlers) resolveAuthorities(ctx context.Context, rows []query.Row) map[string]domain.Authority {
	ids := make([]string, 0, len(rows))
	seen := map[string]struct{}{}
	for _, r := range rows {
		if r.Complaint.AssignedAuthorityID == nil {
			continue
		}
		id := *r.Complaint.AssignedAuthorityID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	m, err := h.authoritySvc.ByID(ctx, ids)
	if err != nil {
		return nil
	}
	return m
}

//
// Handlers
//

// SubmitComplaint godoc
// @ID          submitComplaint
// @Summary     File a new complaint
// @Description Validates and stores a complaint. Status is forced to OPEN and the upvote count starts at zero.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.SubmitComplaintRequest  true  "Complaint payload"
//
// @Success     201  {object}  handlers.ComplaintView
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /complaints [post]
func (h *Handlers) SubmitComplaint(c *gin.Context) {
	var req SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	currentUser := userID(c)

	// Idempotency (replay path): if the same (user, key) already filed a
	// complaint, return it instead of filing a duplicate.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, isConcrete := h.complaintSvc.(*services.ComplaintService); isConcrete && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := h.complaintSvc.Get(ctx, rec.ComplaintID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					upvotes, _ := h.upvoteSvc.Count(ctx, prev.ID)
					ok(c, http.StatusOK, h.viewOf(*prev, upvotes, nil, nil))
					return
				}
			}
		}
	}

	cp, err := h.complaintSvc.Submit(ctx, services.SubmitInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Department:    req.Department,
		Urgency:       req.Urgency,
		Anonymous:     req.Anonymous,
		SubmitterName: req.Name,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" {
		if svc, isConcrete := h.complaintSvc.(*services.ComplaintService); isConcrete && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, idemKey, cp.ID, http.StatusCreated, h.idemTTL())
		}
	}

	ok(c, http.StatusCreated, h.viewOf(*cp, 0, nil, nil))
}

// ListComplaints godoc
// @ID          listComplaints
// @Summary     List complaints (filtered, sorted, paginated)
// @Description Returns the derived complaint view. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Complaints
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       category    query  string  false "Exact category or All"
// @Param       department  query  string  false "Exact department or All"
// @Param       status      query  string  false "Exact status or All"
// @Param       level       query  int     false "Exact level (1-4), 0 for All"
// @Param       search      query  string  false "Caseless substring over title/description"
// @Param       sort        query  string  false "newest|oldest|mostUpvoted|mostCommented"  default(newest)
// @Param       page        query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size   query  int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListComplaintsResponse
// @Header      200  {string} ETag "Weak ETag for current collection state"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints [get]
func (h *Handlers) ListComplaints(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.complaintSvc.(*services.ComplaintService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ComplaintsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"complaints:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	rows, err := h.complaintSvc.ListRows(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	view := query.Apply(rows, parseFilter(c))

	total := int64(len(view))
	totalPages := utils.TotalPages(len(view), pageSize)
	start, end := utils.PageBounds(len(view), page, pageSize)
	pageRows := view[start:end]

	authorities := h.resolveAuthorities(ctx, pageRows)
	items := make([]ComplaintView, 0, len(pageRows))
	for _, r := range pageRows {
		items = append(items, h.viewOf(r.Complaint, r.Upvotes, nil, authorities))
	}

	ok(c, http.StatusOK, ListComplaintsResponse{
		Complaints: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetComplaint godoc
// @ID          getComplaint
// @Summary     Fetch one complaint
// @Description Returns the complaint with comments, progress notes, derived upvote count, and the caller's liked state.
// @Tags        Complaints
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Complaint ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.ComplaintView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id} [get]
func (h *Handlers) GetComplaint(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}
	ctx := c.Request.Context()

	cp, err := h.complaintSvc.Get(ctx, id)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	upvotes, err := h.upvoteSvc.Count(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	var likedPtr *bool
	if liked, err := h.upvoteSvc.Liked(ctx, id, userID(c)); err == nil {
		likedPtr = &liked
	}

	var authorities map[string]domain.Authority
	if cp.AssignedAuthorityID != nil {
		if m, err := h.authoritySvc.ByID(ctx, []string{*cp.AssignedAuthorityID}); err == nil {
			authorities = m
		}
	}

	ok(c, http.StatusOK, h.viewOf(*cp, upvotes, likedPtr, authorities))
}

// EditComplaint godoc
// @ID          editComplaint
// @Summary     Patch complaint lifecycle fields
// @Description Applies a partial update over status, department, assignee, and level. Status changes append an audit progress note.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user (stamped on the audit note)"
// @Param       id         path    string  true  "Complaint ID (UUID)" format(uuid)
// @Param       body       body    handlers.EditComplaintRequest true "Patch payload"
//
// @Success     200  {object} handlers.ComplaintView
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id} [patch]
func (h *Handlers) EditComplaint(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}

	var req EditComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	cp, err := h.complaintSvc.ApplyEdit(c.Request.Context(), id, userID(c), services.EditPatch{
		Status:              req.Status,
		Department:          req.Department,
		AssignedAuthorityID: req.AssignedAuthorityID,
		Level:               req.Level,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}

	upvotes, _ := h.upvoteSvc.Count(c.Request.Context(), id)
	ok(c, http.StatusOK, h.viewOf(*cp, upvotes, nil, nil))
}

// AddComment godoc
// @ID          addComment
// @Summary     Append a comment
// @Description Appends an immutable comment to the complaint. Comments cannot be edited or removed afterwards.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Complaint ID (UUID)" format(uuid)
// @Param       body  body  handlers.AddCommentRequest true "Comment payload"
//
// @Success     201  {object} handlers.ComplaintView
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text is required")
		return
	}

	cp, err := h.complaintSvc.AddComment(c.Request.Context(), id, req.Author, req.Text)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	upvotes, _ := h.upvoteSvc.Count(c.Request.Context(), id)
	ok(c, http.StatusCreated, h.viewOf(*cp, upvotes, nil, nil))
}

// AddProgressNote godoc
// @ID          addProgressNote
// @Summary     Append a progress note
// @Description Appends an administrative progress note to the complaint.
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Complaint ID (UUID)" format(uuid)
// @Param       body  body  handlers.AddNoteRequest true "Note payload"
//
// @Success     201  {object} handlers.ComplaintView
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id}/notes [post]
func (h *Handlers) AddProgressNote(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "note is required")
		return
	}

	cp, err := h.complaintSvc.AddProgressNote(c.Request.Context(), id, req.Author, req.Note)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	upvotes, _ := h.upvoteSvc.Count(c.Request.Context(), id)
	ok(c, http.StatusCreated, h.viewOf(*cp, upvotes, nil, nil))
}
