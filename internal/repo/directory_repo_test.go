package repo

import (
	"context"
	"sort"
	"testing"

	"github.com/astree/pulse/internal/domain"
)

func TestDirectoryRepo_GetEmployee(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	e := &domain.Employee{ID: "u1", FullName: "Ada Lovelace"}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}

	got, err := GetEmployee(ctx, db, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "Ada Lovelace" {
		t.Fatalf("unexpected employee: %+v", got)
	}

	if _, err := GetEmployee(ctx, db, "ghost"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDirectoryRepo_ListEmployeeIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"u3", "u1", "u2"} {
		if err := db.Create(&domain.Employee{ID: id, FullName: id}).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	ids, err := ListEmployeeIDs(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "u1" || ids[2] != "u3" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestDirectoryRepo_GetPostAuthor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Create(&domain.Post{ID: "post-1", AuthorID: "u9"}).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}

	author, err := GetPostAuthor(ctx, db, "post-1")
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if author != "u9" {
		t.Fatalf("expected u9, got %s", author)
	}

	if _, err := GetPostAuthor(ctx, db, "missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
