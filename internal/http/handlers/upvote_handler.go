package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UpvoteToggleResponse reports the caller's upvote state after a toggle and
// the derived total for the complaint.
type UpvoteToggleResponse struct {
	Liked   bool  `json:"liked"`
	Upvotes int64 `json:"upvotes"`
}

// ToggleUpvote godoc
// @ID          toggleUpvote
// @Summary     Toggle the caller's upvote
// @Description Adds the upvote if absent, removes it if present. The operation is idempotent per (complaint, user): toggling twice restores the prior state.
// @Tags        Complaints
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Complaint ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.UpvoteToggleResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Complaint not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /complaints/{id}/upvote [post]
func (h *Handlers) ToggleUpvote(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "complaint id must be a UUID")
		return
	}
	ctx := c.Request.Context()

	liked, err := h.upvoteSvc.Toggle(ctx, id, userID(c))
	if err != nil {
		mapServiceError(c, err)
		return
	}

	upvotes, err := h.upvoteSvc.Count(ctx, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UpvoteToggleResponse{Liked: liked, Upvotes: upvotes})
}
