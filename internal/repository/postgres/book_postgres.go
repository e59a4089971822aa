package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

const bookColumns = `id, title, author, description, cover_image_url, asset_handle, created_at, updated_at`

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// IDs and timestamps are assigned by the database.
type BookPostgres struct {
	db *sql.DB
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db *sql.DB) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var b model.Book
	if err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.CoverImageURL,
		&b.AssetHandle,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// validID reports whether id can exist in the table; the column is a UUID and
// Postgres rejects malformed values with a syntax error rather than no rows.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Insert adds a new book row and returns the stored record.
func (r *BookPostgres) Insert(ctx context.Context, f repository.BookFields) (*model.Book, error) {
	const q = `
		INSERT INTO books (title, author, description, cover_image_url, asset_handle)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + bookColumns

	var coverURL, handle string
	if f.Cover != nil {
		coverURL, handle = f.Cover.URL, f.Cover.Handle
	}
	return scanBook(r.db.QueryRowContext(ctx, q, f.Title, f.Author, f.Description, coverURL, handle))
}

// FindByID fetches a single book by its ID.
func (r *BookPostgres) FindByID(ctx context.Context, id string) (*model.Book, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

// Update rewrites the text fields, and the cover pair when one is supplied.
func (r *BookPostgres) Update(ctx context.Context, id string, f repository.BookFields) (*model.Book, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}

	if f.Cover == nil {
		const q = `
			UPDATE books
			SET title = $2, author = $3, description = $4, updated_at = now()
			WHERE id = $1
			RETURNING ` + bookColumns
		return scanBook(r.db.QueryRowContext(ctx, q, id, f.Title, f.Author, f.Description))
	}

	const q = `
		UPDATE books
		SET title = $2, author = $3, description = $4,
		    cover_image_url = $5, asset_handle = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id, f.Title, f.Author, f.Description, f.Cover.URL, f.Cover.Handle))
}

// Delete removes a book row and returns it as it was.
func (r *BookPostgres) Delete(ctx context.Context, id string) (*model.Book, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const q = `DELETE FROM books WHERE id = $1 RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

// List returns every book, newest first. seq breaks ties between rows
// created in the same transaction timestamp.
func (r *BookPostgres) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Ping checks database connectivity.
func (r *BookPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
