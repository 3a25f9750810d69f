// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound).
//   - Mark-as-read is a one-way transition: a second call on an already-read
//     row succeeds without touching it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/astree/pulse/internal/domain"
)

// CreateNotification inserts a notification row, assigning an ID and UTC
// creation time when the caller left them empty.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}

// GetNotification fetches a notification by id, or ErrNotFound.
func GetNotification(ctx context.Context, db *gorm.DB, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns a page of recipientID's notifications, newest
// first. When unreadOnly is set, read rows are filtered out.
func ListNotifications(ctx context.Context, db *gorm.DB, recipientID string, unreadOnly bool, offset, limit int) ([]domain.Notification, error) {
	q := db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC")
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountNotifications returns the total matching ListNotifications' filter,
// for pagination metadata.
func CountNotifications(ctx context.Context, db *gorm.DB, recipientID string, unreadOnly bool) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// CountUnread returns recipientID's unread notification count.
func CountUnread(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	return CountNotifications(ctx, db, recipientID, true)
}

// MarkNotificationRead stamps read_at on an unread row. Already-read rows
// are left untouched (the transition is one-way and idempotent). The update
// is scoped to recipientID so a user cannot mark another user's rows.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, recipientID string) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", time.Now().UTC()).Error
}

// MarkAllNotificationsRead stamps read_at on every unread row owned by
// recipientID and reports how many were transitioned.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

// DeleteNotification removes a notification row by id. Ownership is checked
// by the service before calling.
func DeleteNotification(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Delete(&domain.Notification{}, "id = ?", id).Error
}
