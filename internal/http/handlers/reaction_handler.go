// Reaction HTTP handlers.
//
// This file exposes REST endpoints for subject reactions:
//   - POST /subjects/{id}/react     (add, toggle off, or replace)
//   - GET  /subjects/{id}/reaction  (the caller's own reaction)
//   - GET  /subjects/{id}/summary   (aggregate counts)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/services"
)

// ReactRequest is the JSON payload for reacting to a subject.
type ReactRequest struct {
	// Type is one of like, love, haha, wow, sad, angry.
	Type string `json:"type" binding:"required" example:"love"`
}

// ReactResponse reports the branch taken and the authoritative summary after
// the mutation.
type ReactResponse struct {
	Outcome services.ReactionOutcome `json:"outcome" example:"added"`
	Summary domain.ReactionSummary   `json:"summary"`
}

// UserReactionResponse is the caller's reaction on a subject; Type is null
// when they have none.
type UserReactionResponse struct {
	SubjectID string               `json:"subject_id"`
	Type      *domain.ReactionType `json:"type"`
}

// React godoc
// @ID          react
// @Summary     React to a subject
// @Description Applies the caller's reaction. Repeating the same type toggles it off; a different type replaces it.
// @Tags        Reactions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id    path  string  true  "Subject ID"
// @Param       body  body  handlers.ReactRequest  true  "Reaction payload"
// @Success     200  {object}  handlers.ReactResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid reaction type"
// @Failure     404  {object}  handlers.ErrorResponse  "Subject not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subjects/{id}/react [post]
func (h *Handlers) React(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type is required")
		return
	}
	t, err := domain.ParseReactionType(req.Type)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid reaction type")
		return
	}

	summary, outcome, err := h.reactionSvc.React(c.Request.Context(), c.Param("id"), userID(c), t)
	switch {
	case errors.Is(err, services.ErrInvalidReactionType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid reaction type")
		return
	case errors.Is(err, services.ErrSubjectNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "subject not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeReactFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ReactResponse{Outcome: outcome, Summary: *summary})
}

// GetReaction godoc
// @ID          getReaction
// @Summary     Get the caller's reaction on a subject
// @Description Returns the caller's current reaction type, or null when they have none. Absence is not an error.
// @Tags        Reactions
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id  path  string  true  "Subject ID"
// @Success     200  {object}  handlers.UserReactionResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subjects/{id}/reaction [get]
func (h *Handlers) GetReaction(c *gin.Context) {
	subjectID := c.Param("id")

	t, found, err := h.reactionSvc.GetUserReaction(c.Request.Context(), subjectID, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	resp := UserReactionResponse{SubjectID: subjectID}
	if found {
		resp.Type = &t
	}
	ok(c, http.StatusOK, resp)
}

// GetSummary godoc
// @ID          getSummary
// @Summary     Get a subject's reaction summary
// @Description Returns the aggregate per-type counts and total. A subject nobody reacted to yields an empty summary.
// @Tags        Reactions
// @Produce     json
// @Param       id  path  string  true  "Subject ID"
// @Success     200  {object}  domain.ReactionSummary
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /subjects/{id}/summary [get]
func (h *Handlers) GetSummary(c *gin.Context) {
	summary, err := h.reactionSvc.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, summary)
}
