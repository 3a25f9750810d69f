// Package domain defines the persistence models for reactions, notifications,
// and the minimal directory entities the engagement engine reads from. These
// types are mapped with GORM and form the core data layer of the engine.
package domain

import "time"

// Reaction represents a single user's reaction on a subject (a post). The
// engine enforces at most one reaction per (subject, user) pair; the unique
// index below is the storage-level backstop for that invariant.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SubjectID: identifier of the reacted content; unique together with UserID.
//   - UserID: identifier of the reacting user; unique together with SubjectID.
//   - Type: closed reaction type enum (like, love, haha, wow, sad, angry).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM. UpdatedAt moves when
//     the user switches type in place.
type Reaction struct {
	ID        string       `json:"id"         gorm:"type:char(36);primaryKey"`
	SubjectID string       `json:"subject_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_reaction_subject_user"`
	UserID    string       `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_reaction_subject_user"`
	Type      ReactionType `json:"type"       gorm:"type:varchar(16);not null"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string { return "reactions" }

// ReactionCount is the denormalized per-type counter for a subject. One row
// exists per (subject, type) while its count is positive; the row is deleted
// when a decrement reaches zero, which keeps the summary map sparse and makes
// "total equals the sum of counts" hold by construction.
type ReactionCount struct {
	SubjectID string       `json:"subject_id" gorm:"type:char(36);primaryKey"`
	Type      ReactionType `json:"type"       gorm:"type:varchar(16);primaryKey"`
	Count     int64        `json:"count"      gorm:"not null"`
}

// TableName returns the database table name for ReactionCount.
func (ReactionCount) TableName() string { return "reaction_counts" }

// ReactionSummary is the aggregate view of a subject's reactions returned to
// clients and broadcast after every mutation. Counts only carries types with
// a positive count.
type ReactionSummary struct {
	SubjectID string                 `json:"subject_id"`
	Total     int64                  `json:"total"`
	Counts    map[ReactionType]int64 `json:"counts"`
}

// Notification represents a per-recipient notification record. Rows are
// append-only until read; ReadAt moves once from nil to a timestamp and is
// never cleared.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RecipientID: owner of the record; only the recipient may delete it.
//   - ActorID: the user whose action produced the notification.
//   - Kind: closed notification kind enum (reaction, invitation, message,
//     status_change).
//   - RelatedEntityID: id of the post/event/conversation the notification
//     points at, when applicable.
//   - Title / Body: presentation copy rendered at dispatch time.
//   - ReadAt: nil while unread; set exactly once by mark-as-read.
type Notification struct {
	ID              string           `json:"id"                gorm:"type:char(36);primaryKey"`
	RecipientID     string           `json:"recipient_id"      gorm:"type:varchar(64);not null;index:idx_notif_recipient,priority:1"`
	ActorID         string           `json:"actor_id"          gorm:"type:varchar(64);not null"`
	Kind            NotificationKind `json:"kind"              gorm:"type:varchar(24);not null"`
	RelatedEntityID string           `json:"related_entity_id" gorm:"type:char(36)"`
	Title           string           `json:"title"             gorm:"type:varchar(128);not null"`
	Body            string           `json:"body"              gorm:"type:text;not null"`
	CreatedAt       time.Time        `json:"created_at"        gorm:"index:idx_notif_recipient,priority:2"`
	ReadAt          *time.Time       `json:"read_at,omitempty"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// Read reports whether the notification has been read.
func (n *Notification) Read() bool { return n.ReadAt != nil }

// Employee is the minimal directory entry the engine consumes for recipient
// computation and presentation. The surrounding portal owns the full profile.
type Employee struct {
	ID        string `json:"id"         gorm:"type:varchar(64);primaryKey"`
	FullName  string `json:"full_name"  gorm:"type:varchar(128);not null"`
	AvatarURL string `json:"avatar_url" gorm:"type:varchar(512)"`
}

// TableName returns the database table name for Employee.
func (Employee) TableName() string { return "employees" }

// Post is the minimal content entry the engine consumes to route
// "someone reacted to your content" notifications. The portal owns the body.
type Post struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	AuthorID string `json:"author_id" gorm:"type:varchar(64);not null;index"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }
