package memory

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

const tableBooks = "book"

// bookRecord is the stored form of a book. Records are immutable once
// inserted; updates replace them.
type bookRecord struct {
	ID   string
	Seq  uint64
	Book model.Book
}

// BookMemory is an in-process repository.BookRepository backed by go-memdb.
// Every operation runs in its own memdb transaction.
type BookMemory struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

var _ repository.BookRepository = (*BookMemory)(nil)

// NewBookMemory creates an empty in-memory book store.
func NewBookMemory() (*BookMemory, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableBooks: {
				Name: tableBooks,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &BookMemory{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (m *BookMemory) Insert(_ context.Context, f repository.BookFields) (*model.Book, error) {
	now := m.now()
	b := model.Book{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Author:      f.Author,
		Description: f.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if f.Cover != nil {
		b.CoverImageURL, b.AssetHandle = f.Cover.URL, f.Cover.Handle
	}

	txn := m.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableBooks, &bookRecord{ID: b.ID, Seq: m.seq.Add(1), Book: b}); err != nil {
		return nil, fmt.Errorf("storing book: %w", err)
	}
	txn.Commit()
	return &b, nil
}

func (m *BookMemory) FindByID(_ context.Context, id string) (*model.Book, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	rec, err := first(txn, id)
	if err != nil {
		return nil, err
	}
	b := rec.Book
	return &b, nil
}

func (m *BookMemory) Update(_ context.Context, id string, f repository.BookFields) (*model.Book, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()

	rec, err := first(txn, id)
	if err != nil {
		return nil, err
	}

	updated := *rec
	updated.Book.Title = f.Title
	updated.Book.Author = f.Author
	updated.Book.Description = f.Description
	if f.Cover != nil {
		updated.Book.CoverImageURL, updated.Book.AssetHandle = f.Cover.URL, f.Cover.Handle
	}
	updated.Book.UpdatedAt = m.now()

	if err := txn.Insert(tableBooks, &updated); err != nil {
		return nil, fmt.Errorf("updating book: %w", err)
	}
	txn.Commit()

	b := updated.Book
	return &b, nil
}

func (m *BookMemory) Delete(_ context.Context, id string) (*model.Book, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()

	rec, err := first(txn, id)
	if err != nil {
		return nil, err
	}
	if err := txn.Delete(tableBooks, rec); err != nil {
		return nil, fmt.Errorf("deleting book: %w", err)
	}
	txn.Commit()

	b := rec.Book
	return &b, nil
}

func (m *BookMemory) List(_ context.Context) ([]model.Book, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableBooks, "id")
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	var recs []*bookRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		recs = append(recs, obj.(*bookRecord))
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Book.CreatedAt.Equal(recs[j].Book.CreatedAt) {
			return recs[i].Book.CreatedAt.After(recs[j].Book.CreatedAt)
		}
		return recs[i].Seq > recs[j].Seq
	})

	books := make([]model.Book, 0, len(recs))
	for _, r := range recs {
		books = append(books, r.Book)
	}
	return books, nil
}

// Ping always succeeds; the store lives in process.
func (m *BookMemory) Ping(context.Context) error {
	return nil
}

func first(txn *memdb.Txn, id string) (*bookRecord, error) {
	raw, err := txn.First(tableBooks, "id", id)
	if err != nil {
		return nil, fmt.Errorf("searching by ID: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return raw.(*bookRecord), nil
}
