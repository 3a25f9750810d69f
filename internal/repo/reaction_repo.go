// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for reactions and
// their denormalized per-type counters.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving the toggle/replace business rules to the
// services package.
//
// Consistency notes:
//   - At most one reaction per (subject_id, user_id) is enforced by the
//     unique index on the reactions table; the service's per-subject
//     serialization makes the check-then-act race-free in-process and the
//     index backstops cross-instance races.
//   - Counter maintenance uses atomic SQL expressions (count = count + 1 /
//     count - 1) rather than read-modify-write in Go, so two transactions
//     touching different users of the same subject cannot lose an update.
//   - A decrement below zero affects no rows (clamped no-op), and rows that
//     reach zero are deleted so the summary map stays sparse.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/astree/pulse/internal/domain"
)

// GetReaction fetches the unique reaction left by userID on subjectID, or
// ErrNotFound when the user has not reacted.
func GetReaction(ctx context.Context, db *gorm.DB, subjectID, userID string) (*domain.Reaction, error) {
	var r domain.Reaction
	err := db.WithContext(ctx).
		Where("subject_id = ? AND user_id = ?", subjectID, userID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReaction inserts a reaction row for (subjectID, userID) with a fresh
// UUID and UTC timestamps. The unique index rejects a duplicate pair.
func CreateReaction(ctx context.Context, db *gorm.DB, subjectID, userID string, t domain.ReactionType) (*domain.Reaction, error) {
	now := time.Now().UTC()
	r := &domain.Reaction{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		UserID:    userID,
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReactionType switches an existing reaction to a new type in place,
// moving UpdatedAt. Returns ErrNotFound when the row is gone.
func UpdateReactionType(ctx context.Context, db *gorm.DB, id string, t domain.ReactionType) error {
	res := db.WithContext(ctx).
		Model(&domain.Reaction{}).
		Where("id = ?", id).
		Updates(map[string]any{"type": t, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReaction removes a reaction row by id (toggle-off).
func DeleteReaction(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Delete(&domain.Reaction{}, "id = ?", id).Error
}

// IncrementReactionCount bumps the (subjectID, type) counter, creating the
// row at 1 when absent. The conflict clause turns the upsert into a single
// atomic statement.
func IncrementReactionCount(ctx context.Context, db *gorm.DB, subjectID string, t domain.ReactionType) error {
	row := &domain.ReactionCount{SubjectID: subjectID, Type: t, Count: 1}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subject_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count": gorm.Expr("count + 1"),
			}),
		}).
		Create(row).Error
}

// DecrementReactionCount lowers the (subjectID, type) counter, clamped at
// zero: a decrement racing ahead of its increment (e.g. a duplicate delete)
// affects no rows and is not an error. Rows that reach zero are removed so
// zero-count entries never linger.
func DecrementReactionCount(ctx context.Context, db *gorm.DB, subjectID string, t domain.ReactionType) error {
	err := db.WithContext(ctx).
		Model(&domain.ReactionCount{}).
		Where("subject_id = ? AND type = ? AND count > 0", subjectID, t).
		Update("count", gorm.Expr("count - 1")).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("subject_id = ? AND type = ? AND count <= 0", subjectID, t).
		Delete(&domain.ReactionCount{}).Error
}

// GetReactionSummary assembles the sparse aggregate for subjectID. A subject
// nobody reacted to yields an empty summary, not an error.
func GetReactionSummary(ctx context.Context, db *gorm.DB, subjectID string) (*domain.ReactionSummary, error) {
	var rows []domain.ReactionCount
	if err := db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	sum := &domain.ReactionSummary{
		SubjectID: subjectID,
		Counts:    make(map[domain.ReactionType]int64, len(rows)),
	}
	for _, row := range rows {
		if row.Count <= 0 {
			continue
		}
		sum.Counts[row.Type] = row.Count
		sum.Total += row.Count
	}
	return sum, nil
}

// CountReactions returns the live number of reaction rows for subjectID.
// Used to cross-check the denormalized counters.
func CountReactions(ctx context.Context, db *gorm.DB, subjectID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Reaction{}).
		Where("subject_id = ?", subjectID).
		Count(&n).Error
	return n, err
}
