// Package services defines the business logic for presence-adjacent
// engagement features: reactions and notifications. This file centralizes the
// service-level error values so they can be consistently returned by service
// methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

// Reaction-related errors.
var (
	// ErrInvalidReactionType is returned when a reaction type is outside the
	// closed set (like, love, haha, wow, sad, angry).
	ErrInvalidReactionType = errors.New("invalid reaction type")

	// ErrSubjectNotFound indicates that the reacted-on subject does not exist
	// in the content store.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrUserNotFound indicates that the acting user is unknown to the
	// directory.
	ErrUserNotFound = errors.New("user not found")
)

// Notification-related errors.
var (
	// ErrNotificationNotFound indicates that the requested notification does
	// not exist.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrForbiddenNotification is returned when a user attempts to read or
	// delete a notification that belongs to someone else.
	ErrForbiddenNotification = errors.New("notification belongs to another user")
)
