// Package services – NotificationService
//
// This file implements the NotificationService, the dispatcher that maps
// domain events to persisted notification records for each computed recipient
// and pushes them out on the recipients' realtime topics. The event set is a
// closed group of variants, each carrying its own recipient computation, so a
// new notification kind means a new type here rather than a string-typed
// field nobody validates. Read-side operations (list, unread count, mark as
// read, delete) enforce recipient ownership.
package services

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/realtime"
	"github.com/astree/pulse/internal/repo"
)

// notificationsDispatched counts persisted notification records by kind.
var notificationsDispatched = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulse_notifications_total",
		Help: "Total notifications dispatched.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(notificationsDispatched)
}

// DomainEvent is one dispatchable occurrence. The variant set is closed; the
// unexported methods keep implementations inside this package.
type DomainEvent interface {
	// kind tags the resulting notification records.
	kind() domain.NotificationKind
	// recipients computes who should be notified. Never includes the actor.
	recipients(ctx context.Context, db *gorm.DB) ([]string, error)
	// actor identifies whose action produced the event, for name resolution.
	actor() string
	// render produces the notification copy for one recipient. actorName is
	// the resolved display name of the actor, or their id when unknown.
	render(recipientID, actorName string) domain.Notification
}

// ReactionEvent fires when a user reacts to someone else's content. The
// recipient is the subject's author.
type ReactionEvent struct {
	SubjectID string
	AuthorID  string
	ReactorID string
	Type      domain.ReactionType
}

func (ReactionEvent) kind() domain.NotificationKind { return domain.NotificationReaction }

func (e ReactionEvent) recipients(ctx context.Context, db *gorm.DB) ([]string, error) {
	if e.AuthorID == "" || e.AuthorID == e.ReactorID {
		return nil, nil
	}
	return []string{e.AuthorID}, nil
}

func (e ReactionEvent) actor() string { return e.ReactorID }

func (e ReactionEvent) render(recipientID, actorName string) domain.Notification {
	return domain.Notification{
		RecipientID:     recipientID,
		ActorID:         e.ReactorID,
		Kind:            domain.NotificationReaction,
		RelatedEntityID: e.SubjectID,
		Title:           "New reaction",
		Body:            fmt.Sprintf("%s reacted with %s to your post", actorName, e.Type),
	}
}

// InvitationEvent fires when an open event is published. Everyone in the
// directory except the organizer is invited.
type InvitationEvent struct {
	EventID     string
	OrganizerID string
	Title       string
}

func (InvitationEvent) kind() domain.NotificationKind { return domain.NotificationInvitation }

func (e InvitationEvent) recipients(ctx context.Context, db *gorm.DB) ([]string, error) {
	ids, err := repo.ListEmployeeIDs(ctx, db)
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != e.OrganizerID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (e InvitationEvent) actor() string { return e.OrganizerID }

func (e InvitationEvent) render(recipientID, actorName string) domain.Notification {
	return domain.Notification{
		RecipientID:     recipientID,
		ActorID:         e.OrganizerID,
		Kind:            domain.NotificationInvitation,
		RelatedEntityID: e.EventID,
		Title:           "Event invitation",
		Body:            fmt.Sprintf("%s invited you to %q", actorName, e.Title),
	}
}

// MessageEvent fires when a direct message is sent. The recipient is the
// receiving user.
type MessageEvent struct {
	ConversationID string
	SenderID       string
	ReceiverID     string
	Preview        string
}

func (MessageEvent) kind() domain.NotificationKind { return domain.NotificationMessage }

func (e MessageEvent) recipients(ctx context.Context, db *gorm.DB) ([]string, error) {
	if e.ReceiverID == "" || e.ReceiverID == e.SenderID {
		return nil, nil
	}
	return []string{e.ReceiverID}, nil
}

func (e MessageEvent) actor() string { return e.SenderID }

func (e MessageEvent) render(recipientID, actorName string) domain.Notification {
	return domain.Notification{
		RecipientID:     recipientID,
		ActorID:         e.SenderID,
		Kind:            domain.NotificationMessage,
		RelatedEntityID: e.ConversationID,
		Title:           "New message",
		Body:            fmt.Sprintf("%s: %s", actorName, e.Preview),
	}
}

// StatusChangeEvent fires when an attendee changes their attendance status.
// The recipient is the event organizer.
type StatusChangeEvent struct {
	EventID     string
	AttendeeID  string
	OrganizerID string
	Status      string
}

func (StatusChangeEvent) kind() domain.NotificationKind { return domain.NotificationStatusChange }

func (e StatusChangeEvent) recipients(ctx context.Context, db *gorm.DB) ([]string, error) {
	if e.OrganizerID == "" || e.OrganizerID == e.AttendeeID {
		return nil, nil
	}
	return []string{e.OrganizerID}, nil
}

func (e StatusChangeEvent) actor() string { return e.AttendeeID }

func (e StatusChangeEvent) render(recipientID, actorName string) domain.Notification {
	return domain.Notification{
		RecipientID:     recipientID,
		ActorID:         e.AttendeeID,
		Kind:            domain.NotificationStatusChange,
		RelatedEntityID: e.EventID,
		Title:           "Attendance update",
		Body:            fmt.Sprintf("%s is now %s", actorName, e.Status),
	}
}

// NotificationService persists and serves notifications and pushes new ones
// to their recipients' realtime topics.
type NotificationService struct {
	// DB is the GORM handle used for notification persistence and for the
	// directory lookups recipient computation needs.
	DB *gorm.DB
	// Bus receives notification.new per recipient. Optional.
	Bus realtime.Broadcaster
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, bus realtime.Broadcaster) *NotificationService {
	return &NotificationService{DB: db, Bus: bus}
}

// Dispatch computes the event's recipient set, persists one notification per
// recipient, and pushes each on the recipient's topic. Persistence failures
// for one recipient are logged and do not block the others; the first such
// failure is returned after the fan-out completes.
func (s *NotificationService) Dispatch(ctx context.Context, ev DomainEvent) error {
	recipients, err := ev.recipients(ctx, s.DB)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}
	actorName := s.displayName(ctx, ev.actor())

	var firstErr error
	for _, rid := range recipients {
		n := ev.render(rid, actorName)
		err := retryOnce(ctx, "notification.create", func() error {
			return repo.CreateNotification(ctx, s.DB, &n)
		})
		if err != nil {
			log.Error().Err(err).
				Str("recipient_id", rid).
				Str("kind", string(ev.kind())).
				Msg("persist notification failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		notificationsDispatched.WithLabelValues(string(ev.kind())).Inc()
		if s.Bus != nil {
			s.Bus.Publish(realtime.TopicUser(rid), realtime.Event{
				Name: realtime.EventNotificationNew,
				Data: n,
			})
		}
	}
	return firstErr
}

// displayName resolves a user id through the directory, falling back to the
// raw id when the user is unknown.
func (s *NotificationService) displayName(ctx context.Context, userID string) string {
	e, err := repo.GetEmployee(ctx, s.DB, userID)
	if err != nil || e.FullName == "" {
		return userID
	}
	return e.FullName
}

// List returns a page of the recipient's notifications, newest first,
// together with the total for pagination.
func (s *NotificationService) List(ctx context.Context, recipientID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total, err := repo.CountNotifications(ctx, s.DB, recipientID, unreadOnly)
	if err != nil {
		return nil, 0, err
	}
	list, err := repo.ListNotifications(ctx, s.DB, recipientID, unreadOnly, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetUnread returns the recipient's unread notifications, newest first.
func (s *NotificationService) GetUnread(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	return repo.ListNotifications(ctx, s.DB, recipientID, true, 0, 100)
}

// CountUnread returns how many unread notifications the recipient has.
func (s *NotificationService) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return repo.CountUnread(ctx, s.DB, recipientID)
}

// MarkRead flips one notification to read. The transition is one-way and
// idempotent; marking an already-read notification succeeds without touching
// the original read timestamp.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	n, err := repo.GetNotification(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.RecipientID != recipientID {
		return ErrForbiddenNotification
	}
	return repo.MarkNotificationRead(ctx, s.DB, id, recipientID)
}

// MarkAllRead flips every unread notification of the recipient to read and
// returns how many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return repo.MarkAllNotificationsRead(ctx, s.DB, recipientID)
}

// Delete removes one notification. Only the recipient may delete their own;
// anyone else gets ErrForbiddenNotification.
func (s *NotificationService) Delete(ctx context.Context, id, recipientID string) error {
	n, err := repo.GetNotification(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.RecipientID != recipientID {
		return ErrForbiddenNotification
	}
	return repo.DeleteNotification(ctx, s.DB, id)
}
