// Admin HTTP handlers.
//
// This file exposes the administrative surface:
//   - GET    /admin/stats              (dashboard aggregates)
//   - GET    /admin/export             (CSV reporting projection)
//   - POST   /admin/authorities        (register authority)
//   - GET    /admin/authorities        (list authorities)
//   - PATCH  /admin/authorities/{id}   (update / deactivate authority)
//   - DELETE /complaints/{id}          (remove complaint)
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusvoice/go-complaint-backend/internal/services"
)

// CreateAuthorityRequest is the JSON payload for registering an authority.
type CreateAuthorityRequest struct {
	Name       string `json:"name"       binding:"required" example:"Priya Nair"`
	Department string `json:"department" binding:"required" example:"IT Services"`
	Email      string `json:"email"      binding:"required" example:"priya.nair@campus.edu"`
	Role       string `json:"role"       binding:"required" example:"Facilities Lead"`
}

// UpdateAuthorityRequest is a partial authority update. Absent fields are
// left untouched; active=false deactivates the authority without touching
// complaints that reference it.
type UpdateAuthorityRequest struct {
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *string `json:"role,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

// DashboardStats godoc
// @ID          dashboardStats
// @Summary     Admin dashboard aggregates
// @Description Returns total complaints, the unresolved-and-aged count, and the top-5 categories and authorities by load.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {object} query.DashboardStats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/stats [get]
func (h *Handlers) DashboardStats(c *gin.Context) {
	stats, err := h.complaintSvc.Stats(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// ExportComplaints godoc
// @ID          exportComplaints
// @Summary     Export complaints as CSV
// @Description Streams a flat CSV projection (id, title, status, category, department, age in days) of every complaint in insertion order.
// @Tags        Admin
// @Produce     text/csv
//
// @Success     200  {string} string "CSV payload"
// @Failure     500  {object} handlers.ErrorResponse "Export failed"
// @Router      /admin/export [get]
func (h *Handlers) ExportComplaints(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.complaintSvc.ExportCSV(c.Request.Context(), &buf); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
		return
	}
	filename := "complaints-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// DeleteComplaint godoc
// @ID          deleteComplaint
// @Summary     Delete a complaint
// @Description Permanently removes a complaint and its dependent records (comments, progress notes, upvotes).
// @Tags        Admin
// @Produce     json
//
// @Param       id  path  string  true  "Complaint ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id} [delete]
func (h *Handlers) DeleteComplaint(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}
	if err := h.complaintSvc.Delete(c.Request.Context(), id); err != nil {
		mapServiceError(c, err)
		return
	}
	noContent(c)
}

// CreateAuthority godoc
// @ID          createAuthority
// @Summary     Register an authority
// @Description Registers a new active authority eligible for complaint assignment. Emails are unique.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateAuthorityRequest true "Authority payload"
//
// @Success     201  {object} domain.Authority
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/authorities [post]
func (h *Handlers) CreateAuthority(c *gin.Context) {
	var req CreateAuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.authoritySvc.Create(c.Request.Context(), services.AuthorityInput{
		Name:       req.Name,
		Department: req.Department,
		Email:      req.Email,
		Role:       req.Role,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListAuthorities godoc
// @ID          listAuthorities
// @Summary     List authorities
// @Description Returns every registered authority, active and inactive, ordered by name.
// @Tags        Admin
// @Produce     json
//
// @Success     200  {array}  domain.Authority
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/authorities [get]
func (h *Handlers) ListAuthorities(c *gin.Context) {
	list, err := h.authoritySvc.List(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}

// UpdateAuthority godoc
// @ID          updateAuthority
// @Summary     Update or deactivate an authority
// @Description Applies a partial update. Deactivation is non-destructive: complaints keep their stored reference but render unassigned.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Authority ID (UUID)" format(uuid)
// @Param       body  body  handlers.UpdateAuthorityRequest true "Patch payload"
//
// @Success     200  {object} domain.Authority
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Authority not found"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/authorities/{id} [patch]
func (h *Handlers) UpdateAuthority(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "authority id must be a UUID")
		return
	}
	var req UpdateAuthorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.authoritySvc.Update(c.Request.Context(), id, services.AuthorityPatch{
		Name:       req.Name,
		Department: req.Department,
		Email:      req.Email,
		Role:       req.Role,
		Active:     req.Active,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
