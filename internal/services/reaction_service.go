// Package services – ReactionService
//
// This file implements the ReactionService, which coordinates the at-most-one
// reaction per (subject, user) rule and keeps the per-subject aggregate
// counters consistent with the individual reaction records. Each React call is
// one of three branches (add, toggle off, replace) applied atomically inside a
// database transaction, serialized per subject so concurrent reactions from
// different users never lose an update. After the state is committed the
// service fans out the change on the subject's topic and routes an
// author-facing notification through the dispatcher.
package services

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/astree/pulse/internal/domain"
	"github.com/astree/pulse/internal/realtime"
	"github.com/astree/pulse/internal/repo"
)

// reactionOps counts committed React branches by outcome and type.
var reactionOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pulse_reactions_total",
		Help: "Total committed reaction mutations.",
	},
	[]string{"action", "type"},
)

func init() {
	prometheus.MustRegister(reactionOps)
}

// ReactionOutcome names the branch a React call took.
type ReactionOutcome string

// The three possible effects of a React call.
const (
	ReactionAdded   ReactionOutcome = "added"
	ReactionRemoved ReactionOutcome = "removed"
	ReactionUpdated ReactionOutcome = "updated"
)

// ReactionService implements the reaction use-cases. It validates input,
// serializes mutations per subject, and publishes the authoritative summary
// after every committed change.
type ReactionService struct {
	// DB is the GORM handle used for all reaction persistence.
	DB *gorm.DB
	// Bus receives reaction.* and reaction.summary events after commit.
	Bus realtime.Broadcaster
	// Dispatcher routes "someone reacted to your content" notifications.
	// Optional; nil disables notification fan-out.
	Dispatcher *NotificationService

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReactionService constructs a ReactionService.
func NewReactionService(db *gorm.DB, bus realtime.Broadcaster, dispatcher *NotificationService) *ReactionService {
	return &ReactionService{
		DB:         db,
		Bus:        bus,
		Dispatcher: dispatcher,
		locks:      make(map[string]*sync.Mutex),
	}
}

// subjectLock returns the mutex serializing mutations for one subject,
// creating it on first use. Locks are never removed; the map grows with the
// number of distinct subjects reacted on, which is bounded by content volume.
func (s *ReactionService) subjectLock(subjectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[subjectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[subjectID] = l
	}
	return l
}

// React applies one user's reaction of the given type to a subject.
//
// Semantics:
//   - No existing reaction by the user: a record is created and the type's
//     counter is incremented (outcome "added").
//   - Existing reaction of the same type: the record is deleted and the
//     counter decremented, removing the key at zero (outcome "removed",
//     the toggle-off).
//   - Existing reaction of a different type: the record's type is updated in
//     place, the old counter decremented and the new one incremented, total
//     unchanged (outcome "updated").
//
// The record and counter mutations commit as one transaction; on success the
// fresh summary is returned and broadcast. Reacting to a subject with no
// content entry yields ErrSubjectNotFound; an unknown type yields
// ErrInvalidReactionType.
func (s *ReactionService) React(ctx context.Context, subjectID, userID string, t domain.ReactionType) (*domain.ReactionSummary, ReactionOutcome, error) {
	if !t.Valid() {
		return nil, "", ErrInvalidReactionType
	}

	authorID, err := repo.GetPostAuthor(ctx, s.DB, subjectID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, "", ErrSubjectNotFound
		}
		return nil, "", err
	}

	l := s.subjectLock(subjectID)
	l.Lock()
	defer l.Unlock()

	var outcome ReactionOutcome
	err = retryOnce(ctx, "reaction.react", func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := repo.GetReaction(ctx, tx, subjectID, userID)
			switch {
			case err == nil && existing.Type == t:
				// Toggle off.
				if err := repo.DeleteReaction(ctx, tx, existing.ID); err != nil {
					return err
				}
				if err := repo.DecrementReactionCount(ctx, tx, subjectID, t); err != nil {
					return err
				}
				outcome = ReactionRemoved
				return nil

			case err == nil:
				// Replace type in place.
				if err := repo.UpdateReactionType(ctx, tx, existing.ID, t); err != nil {
					return err
				}
				if err := repo.DecrementReactionCount(ctx, tx, subjectID, existing.Type); err != nil {
					return err
				}
				if err := repo.IncrementReactionCount(ctx, tx, subjectID, t); err != nil {
					return err
				}
				outcome = ReactionUpdated
				return nil

			case repo.IsNotFound(err):
				if _, err := repo.CreateReaction(ctx, tx, subjectID, userID, t); err != nil {
					return err
				}
				if err := repo.IncrementReactionCount(ctx, tx, subjectID, t); err != nil {
					return err
				}
				outcome = ReactionAdded
				return nil

			default:
				return err
			}
		})
	})
	if err != nil {
		return nil, "", err
	}

	summary, err := repo.GetReactionSummary(ctx, s.DB, subjectID)
	if err != nil {
		return nil, "", err
	}

	reactionOps.WithLabelValues(string(outcome), string(t)).Inc()
	s.publish(subjectID, userID, t, outcome, summary)

	if outcome == ReactionAdded && s.Dispatcher != nil && authorID != userID {
		// The reaction is committed; a failed notification must not fail it.
		if err := s.Dispatcher.Dispatch(ctx, ReactionEvent{
			SubjectID: subjectID,
			AuthorID:  authorID,
			ReactorID: userID,
			Type:      t,
		}); err != nil {
			log.Warn().Err(err).Str("subject_id", subjectID).Msg("reaction notification dispatch failed")
		}
	}
	return summary, outcome, nil
}

// publish fans the committed change out on the subject topic. Broadcast
// failures never surface to the acting user.
func (s *ReactionService) publish(subjectID, userID string, t domain.ReactionType, outcome ReactionOutcome, summary *domain.ReactionSummary) {
	if s.Bus == nil {
		return
	}
	name := realtime.EventReactionAdded
	switch outcome {
	case ReactionRemoved:
		name = realtime.EventReactionRemoved
	case ReactionUpdated:
		name = realtime.EventReactionUpdated
	}
	topic := realtime.TopicSubject(subjectID)
	s.Bus.Publish(topic, realtime.Event{Name: name, Data: realtime.ReactionChanged{
		SubjectID: subjectID,
		ReactorID: userID,
		Type:      t,
	}})
	s.Bus.Publish(topic, realtime.Event{Name: realtime.EventReactionSummary, Data: realtime.SummaryChanged{
		SubjectID: subjectID,
		Summary:   *summary,
	}})
}

// GetSummary returns the aggregate reaction view for a subject. A subject
// with no reactions yields an empty summary, not an error.
func (s *ReactionService) GetSummary(ctx context.Context, subjectID string) (*domain.ReactionSummary, error) {
	return repo.GetReactionSummary(ctx, s.DB, subjectID)
}

// GetUserReaction returns the type of the user's reaction on a subject and
// whether one exists. Absence is a valid result, not an error.
func (s *ReactionService) GetUserReaction(ctx context.Context, subjectID, userID string) (domain.ReactionType, bool, error) {
	r, err := repo.GetReaction(ctx, s.DB, subjectID, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return r.Type, true, nil
}
