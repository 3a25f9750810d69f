// Notification HTTP handlers.
//
// This file exposes REST endpoints for the caller's notification inbox:
//   - GET    /notifications               (paginated list, optional unread filter)
//   - GET    /notifications/unread-count
//   - POST   /notifications/{id}/read
//   - POST   /notifications/read-all
//   - DELETE /notifications/{id}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/services"
	"github.com/astree/pulse/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListNotificationsResponse wraps a page of notifications and pagination
// information.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// UnreadCountResponse is the body of GET /notifications/unread-count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications a read-all touched.
type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}

// clampPagination parses and bounds page and page_size query params.
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

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List the caller's notifications (paginated)
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       unread     query   bool    false "Only unread"            default(false)
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListNotificationsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	uid := userID(c)
	page, pageSize := clampPagination(c)
	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"

	list, total, err := h.notifSvc.List(c.Request.Context(), uid, unreadOnly, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if list == nil {
		list = []domain.Notification{}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListNotificationsResponse{
		Notifications: list,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// UnreadCount godoc
// @ID          unreadCount
// @Summary     Count the caller's unread notifications
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object}  handlers.UnreadCountResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	count, err := h.notifSvc.CountUnread(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @ID          markNotificationRead
// @Summary     Mark one notification as read
// @Description One-way and idempotent; repeating the call succeeds without moving the read timestamp.
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id  path  string  true  "Notification ID"
// @Success     204  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/{id}/read [post]
func (h *Handlers) MarkRead(c *gin.Context) {
	err := h.notifSvc.MarkRead(c.Request.Context(), c.Param("id"), userID(c))
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		return
	case errors.Is(err, services.ErrForbiddenNotification):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "notification belongs to another user")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// MarkAllRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark all of the caller's notifications as read
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object}  handlers.MarkAllReadResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/read-all [post]
func (h *Handlers) MarkAllRead(c *gin.Context) {
	marked, err := h.notifSvc.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MarkAllReadResponse{Marked: marked})
}

// DeleteNotification godoc
// @ID          deleteNotification
// @Summary     Delete one notification
// @Description Only the recipient may delete their own notification.
// @Tags        Notifications
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id  path  string  true  "Notification ID"
// @Success     204  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications/{id} [delete]
func (h *Handlers) DeleteNotification(c *gin.Context) {
	err := h.notifSvc.Delete(c.Request.Context(), c.Param("id"), userID(c))
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		return
	case errors.Is(err, services.ErrForbiddenNotification):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "notification belongs to another user")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
