// Package realtime implements the fan-out broadcaster: an abstract
// publish/subscribe channel that delivers presence, reaction, and
// notification events to every currently-connected observer of a topic.
//
// Delivery is fire-and-forget from the caller's perspective. A failure to
// reach one observer never fails or rolls back the originating mutation and
// never blocks other observers. Within one topic, events published from the
// same serialized mutation path arrive in publish order; no ordering is
// guaranteed across topics.
package realtime

import (
	"time"

	"github.com/astree/pulse/internal/domain"
)

// Named events carried on the push channel.
const (
	EventPresenceChanged = "presence.changed"
	EventReactionAdded   = "reaction.added"
	EventReactionRemoved = "reaction.removed"
	EventReactionUpdated = "reaction.updated"
	EventReactionSummary = "reaction.summary"
	EventNotificationNew = "notification.new"
)

// TopicPresence carries presence.changed for all clients.
const TopicPresence = "presence"

// TopicSubject returns the per-subject room topic carrying reaction events.
func TopicSubject(subjectID string) string { return "subject:" + subjectID }

// TopicUser returns the per-recipient topic carrying notification events.
func TopicUser(userID string) string { return "user:" + userID }

// Event is one named payload on the push channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Broadcaster is the injected publish side of the channel. Publish must be
// non-blocking and must never return control-flow errors to the mutating
// caller; implementations log and swallow delivery failures.
type Broadcaster interface {
	Publish(topic string, evt Event)
}

// PresenceChanged is the payload of presence.changed.
type PresenceChanged struct {
	UserID string    `json:"user_id"`
	Online bool      `json:"is_online"`
	At     time.Time `json:"at"`
}

// ReactionChanged is the payload of reaction.added|removed|updated.
type ReactionChanged struct {
	SubjectID string              `json:"subject_id"`
	ReactorID string              `json:"reactor_id"`
	Type      domain.ReactionType `json:"type"`
}

// SummaryChanged is the payload of reaction.summary, carrying the
// authoritative aggregate after a mutation.
type SummaryChanged struct {
	SubjectID string                 `json:"subject_id"`
	Summary   domain.ReactionSummary `json:"summary"`
}
