// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-side access to the directory and
// content collaborators (employees, posts). The surrounding portal owns the
// write side of both; the engine only resolves names, recipient sets, and
// subject authors.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/astree/pulse/internal/domain"
)

// GetEmployee fetches a directory entry by id, or ErrNotFound.
func GetEmployee(ctx context.Context, db *gorm.DB, id string) (*domain.Employee, error) {
	var e domain.Employee
	if err := db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployeeIDs returns every user id known to the directory. Used to
// compute "all employees" recipient sets.
func ListEmployeeIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Employee{}).
		Pluck("id", &ids).Error
	return ids, err
}

// GetPostAuthor resolves the author of a subject, or ErrNotFound when the
// subject does not exist in the content store.
func GetPostAuthor(ctx context.Context, db *gorm.DB, postID string) (string, error) {
	var p domain.Post
	if err := db.WithContext(ctx).First(&p, "id = ?", postID).Error; err != nil {
		return "", err
	}
	return p.AuthorID, nil
}
