package repository

import (
	"context"
	"errors"

	"bookapi/internal/model"
)

// ErrNotFound is returned when no book exists for the requested ID.
var ErrNotFound = errors.New("book not found")

// BookFields are the writable fields of a book.
// A nil Cover leaves the stored cover untouched on Update and means "no cover" on Insert.
type BookFields struct {
	Title       string
	Author      string
	Description string
	Cover       *model.Cover
}

// BookRepository defines data access for books. No business logic here;
// strictly persistence operations, each atomic on its own.
type BookRepository interface {
	// Insert stores a new book. The repository assigns ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, fields BookFields) (*model.Book, error)

	// FindByID returns a book by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// Update replaces title, author and description, and the cover when
	// fields.Cover is set. Returns the stored book or ErrNotFound.
	Update(ctx context.Context, id string, fields BookFields) (*model.Book, error)

	// Delete removes a book and returns it as it was before removal, or ErrNotFound.
	Delete(ctx context.Context, id string) (*model.Book, error)

	// List returns all books, newest first. Never nil.
	List(ctx context.Context) ([]model.Book, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
