// Presence HTTP handlers.
//
// This file exposes REST endpoints for presence tracking:
//   - POST /presence/connect     (register a connection)
//   - POST /presence/disconnect  (release a connection)
//   - POST /presence/heartbeat   (connectionless keep-alive)
//   - GET  /presence/online      (currently online user ids)
//   - GET  /presence/{id}        (one user's status)
//
// Handlers are transport-thin: they validate input, call the presence
// tracker, and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/presence"
	"github.com/astree/pulse/internal/services"
)

//
// Service contracts (context-aware)
//

// PresenceService defines the presence operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the provided
// context.
type PresenceService interface {
	// Connect registers a connection id for the user.
	Connect(ctx context.Context, userID, connectionID string) error
	// Disconnect releases a connection id for the user.
	Disconnect(ctx context.Context, userID, connectionID string) error
	// Heartbeat refreshes the user's activity without a connection id.
	Heartbeat(ctx context.Context, userID string) error
	// Status returns the user's current presence view.
	Status(ctx context.Context, userID string) (presence.Status, error)
	// OnlineUsers lists the ids of users currently online.
	OnlineUsers(ctx context.Context) ([]string, error)
}

// ReactionService defines the reaction operations consumed by HTTP handlers.
type ReactionService interface {
	// React applies, toggles, or replaces the user's reaction on a subject.
	React(ctx context.Context, subjectID, userID string, t domain.ReactionType) (*domain.ReactionSummary, services.ReactionOutcome, error)
	// GetSummary returns the subject's aggregate reaction view.
	GetSummary(ctx context.Context, subjectID string) (*domain.ReactionSummary, error)
	// GetUserReaction returns the user's reaction type on a subject, if any.
	GetUserReaction(ctx context.Context, subjectID, userID string) (domain.ReactionType, bool, error)
}

// NotificationService defines the notification operations consumed by HTTP
// handlers.
type NotificationService interface {
	// List returns a page of the recipient's notifications and the total.
	List(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error)
	// CountUnread returns how many unread notifications the recipient has.
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead flips one notification to read (idempotent, one-way).
	MarkRead(ctx context.Context, id, recipientID string) error
	// MarkAllRead flips all unread notifications and returns the count.
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	// Delete removes one notification if it belongs to the recipient.
	Delete(ctx context.Context, id, recipientID string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for presence, reactions, notifications,
// and the realtime stream. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	presenceSvc PresenceService
	reactionSvc ReactionService
	notifSvc    NotificationService
	stream      StreamSource

	// now is injectable for deterministic humanized timestamps in tests.
	now func() time.Time
}

// New constructs a Handlers instance bound to the given services.
func New(p PresenceService, r ReactionService, n NotificationService, s StreamSource) *Handlers {
	return &Handlers{
		presenceSvc: p,
		reactionSvc: r,
		notifSvc:    n,
		stream:      s,
		now:         time.Now,
	}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream middleware). If absent it falls back to the X-User-ID header, and
// finally to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// ConnectRequest is the JSON payload for connect and disconnect.
type ConnectRequest struct {
	// UserID identifies the user owning the connection.
	UserID string `json:"user_id" binding:"required" example:"user123"`
	// ConnectionID identifies one client connection (e.g. a browser tab).
	ConnectionID string `json:"connection_id" binding:"required" example:"tab-7f3a"`
}

// HeartbeatRequest is the JSON payload for heartbeat.
type HeartbeatRequest struct {
	UserID string `json:"user_id" binding:"required" example:"user123"`
}

// PresenceResponse is the status view returned by GET /presence/{id}.
type PresenceResponse struct {
	UserID            string     `json:"user_id"`
	Online            bool       `json:"is_online"`
	LastSeen          *time.Time `json:"last_seen,omitempty"`
	LastSeenHumanized string     `json:"last_seen_humanized"`
}

// OnlineUsersResponse lists currently online users.
type OnlineUsersResponse struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

//
// Handlers
//

// Connect godoc
// @ID          presenceConnect
// @Summary     Register a client connection
// @Description Adds a connection id to the user's presence set; the first connection flips the user online.
// @Tags        Presence
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ConnectRequest  true  "Connect payload"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /presence/connect [post]
func (h *Handlers) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and connection_id are required")
		return
	}
	if err := h.presenceSvc.Connect(c.Request.Context(), req.UserID, req.ConnectionID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePresenceFailed, err.Error())
		return
	}
	noContent(c)
}

// Disconnect godoc
// @ID          presenceDisconnect
// @Summary     Release a client connection
// @Description Removes a connection id; releasing the last one flips the user offline. Unknown ids are a no-op.
// @Tags        Presence
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ConnectRequest  true  "Disconnect payload"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /presence/disconnect [post]
func (h *Handlers) Disconnect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and connection_id are required")
		return
	}
	if err := h.presenceSvc.Disconnect(c.Request.Context(), req.UserID, req.ConnectionID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePresenceFailed, err.Error())
		return
	}
	noContent(c)
}

// Heartbeat godoc
// @ID          presenceHeartbeat
// @Summary     Refresh a user's activity
// @Description Connectionless keep-alive for polling clients; revives an offline user.
// @Tags        Presence
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.HeartbeatRequest  true  "Heartbeat payload"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /presence/heartbeat [post]
func (h *Handlers) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return
	}
	if err := h.presenceSvc.Heartbeat(c.Request.Context(), req.UserID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePresenceFailed, err.Error())
		return
	}
	noContent(c)
}

// OnlineUsers godoc
// @ID          presenceOnline
// @Summary     List currently online users
// @Tags        Presence
// @Produce     json
// @Success     200  {object}  handlers.OnlineUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /presence/online [get]
func (h *Handlers) OnlineUsers(c *gin.Context) {
	ids, err := h.presenceSvc.OnlineUsers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	ok(c, http.StatusOK, OnlineUsersResponse{Users: ids, Count: len(ids)})
}

// GetPresence godoc
// @ID          presenceStatus
// @Summary     Get one user's presence
// @Description Returns online state, last-seen timestamp, and a humanized last-seen string. Unknown users read as offline.
// @Tags        Presence
// @Produce     json
// @Param       id  path  string  true  "User ID"
// @Success     200  {object}  handlers.PresenceResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /presence/{id} [get]
func (h *Handlers) GetPresence(c *gin.Context) {
	uid := c.Param("id")

	st, err := h.presenceSvc.Status(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePresenceFailed, err.Error())
		return
	}

	resp := PresenceResponse{
		UserID:            st.UserID,
		Online:            st.Online,
		LastSeenHumanized: presence.HumanizeLastSeen(st.LastSeen, h.now()),
	}
	if !st.LastSeen.IsZero() {
		ls := st.LastSeen
		resp.LastSeen = &ls
	}
	ok(c, http.StatusOK, resp)
}
