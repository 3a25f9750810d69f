// Closed enums shared by the reaction and notification models. Values are
// stored as lowercase strings, which keeps rows readable and avoids the
// renumbering hazards of integer enums.
package domain

import "fmt"

// ReactionType is the closed set of reactions a user can leave on a subject.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists all valid reaction types in presentation order.
var ReactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// Valid reports whether t is a member of the closed reaction set.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// ParseReactionType converts a wire value into a ReactionType, rejecting
// anything outside the closed set.
func ParseReactionType(s string) (ReactionType, error) {
	t := ReactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown reaction type %q", s)
	}
	return t, nil
}

// NotificationKind is the closed set of notification variants the dispatcher
// materializes. Each kind has its own recipient-computation rule (see
// services.DomainEvent).
type NotificationKind string

const (
	NotificationReaction     NotificationKind = "reaction"
	NotificationInvitation   NotificationKind = "invitation"
	NotificationMessage      NotificationKind = "message"
	NotificationStatusChange NotificationKind = "status_change"
)

// Valid reports whether k is a member of the closed kind set.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationReaction, NotificationInvitation, NotificationMessage, NotificationStatusChange:
		return true
	}
	return false
}
