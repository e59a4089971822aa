package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"bookapi/internal/model"
	"bookapi/internal/orphan"
	"bookapi/internal/repository"
	"bookapi/internal/storage"
)

const (
	DefaultMaxImageBytes  = 5 << 20
	DefaultCleanupTimeout = 10 * time.Second
)

// BookInput holds the client-editable fields of a book.
type BookInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Author      string `json:"author" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// BookService defines the book lifecycle. Every write keeps the record and
// its remote cover consistent: covers are uploaded before the record write
// and removed only after the record no longer references them.
type BookService interface {
	// Create uploads the optional cover, then inserts the record. If the
	// insert fails the new cover is removed again.
	Create(ctx context.Context, in BookInput, img *model.Image) (*model.Book, error)

	// Update replaces the text fields and, when img is given, the cover. The
	// superseded cover is removed after the record points at the new one.
	Update(ctx context.Context, id string, in BookInput, img *model.Image) (*model.Book, error)

	// Delete removes the record and then its cover. A failed cover removal
	// does not fail the delete.
	Delete(ctx context.Context, id string) (*model.Book, error)

	Get(ctx context.Context, id string) (*model.Book, error)

	// List returns all books, newest first.
	List(ctx context.Context) ([]model.Book, error)
}

// Options tunes a BookService. Zero values select the defaults.
type Options struct {
	Logger         *zap.Logger
	Journal        orphan.Journal
	MaxImageBytes  int64
	CleanupTimeout time.Duration
}

type bookService struct {
	repo     repository.BookRepository
	assets   storage.AssetStore
	journal  orphan.Journal
	log      *zap.Logger
	validate *validator.Validate

	maxImageBytes  int64
	cleanupTimeout time.Duration
}

// NewBookService constructs a BookService over a record store and an asset store.
func NewBookService(repo repository.BookRepository, assets storage.AssetStore, opts Options) BookService {
	s := &bookService{
		repo:           repo,
		assets:         assets,
		journal:        opts.Journal,
		log:            opts.Logger,
		validate:       newValidator(),
		maxImageBytes:  opts.MaxImageBytes,
		cleanupTimeout: opts.CleanupTimeout,
	}
	if s.journal == nil {
		s.journal = orphan.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.maxImageBytes <= 0 {
		s.maxImageBytes = DefaultMaxImageBytes
	}
	if s.cleanupTimeout <= 0 {
		s.cleanupTimeout = DefaultCleanupTimeout
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (s *bookService) Create(ctx context.Context, in BookInput, img *model.Image) (*model.Book, error) {
	if err := s.check(&in, img, nil); err != nil {
		return nil, err
	}

	fields := in.fields()
	if img != nil {
		cover, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		fields.Cover = cover
	}

	b, err := s.repo.Insert(ctx, fields)
	if err != nil {
		if fields.Cover != nil {
			s.discard(ctx, fields.Cover.Handle, "", orphan.ReasonCreateRollback)
		}
		return nil, storeError("insert book", err)
	}

	s.log.Info("book created", zap.String("book_id", b.ID), zap.Bool("has_cover", b.HasCover()))
	return b, nil
}

func (s *bookService) Update(ctx context.Context, id string, in BookInput, img *model.Image) (*model.Book, error) {
	if err := s.check(&in, img, &id); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find book", err)
	}

	fields := in.fields()
	if img != nil {
		cover, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		fields.Cover = cover
	}

	b, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		// The record still references its previous cover, if any.
		if fields.Cover != nil {
			s.discard(ctx, fields.Cover.Handle, id, orphan.ReasonUpdateRollback)
		}
		return nil, storeError("update book", err)
	}

	if fields.Cover != nil && current.HasCover() && current.AssetHandle != fields.Cover.Handle {
		s.discard(ctx, current.AssetHandle, id, orphan.ReasonSuperseded)
	}

	s.log.Info("book updated", zap.String("book_id", b.ID), zap.Bool("cover_replaced", fields.Cover != nil))
	return b, nil
}

func (s *bookService) Delete(ctx context.Context, id string) (*model.Book, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	b, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError("delete book", err)
	}

	if b.HasCover() {
		s.discard(ctx, b.AssetHandle, b.ID, orphan.ReasonDeleted)
	}

	s.log.Info("book deleted", zap.String("book_id", b.ID))
	return b, nil
}

func (s *bookService) Get(ctx context.Context, id string) (*model.Book, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find book", err)
	}
	return b, nil
}

func (s *bookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("list books", err)
	}
	if books == nil {
		books = []model.Book{}
	}
	return books, nil
}

func (in BookInput) fields() repository.BookFields {
	return repository.BookFields{Title: in.Title, Author: in.Author, Description: in.Description}
}

// check normalizes in and validates it together with the optional image and
// id. No side effect happens before check passes.
func (s *bookService) check(in *BookInput, img *model.Image, id *string) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Description = strings.TrimSpace(in.Description)

	verr := &ValidationError{Fields: map[string]string{}}
	if id != nil && strings.TrimSpace(*id) == "" {
		verr.Fields["id"] = "is required"
	}

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate input: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Fields[fe.Field()] = describe(fe)
		}
	}

	if img != nil {
		switch {
		case len(img.Data) == 0:
			verr.Fields["coverImage"] = "is empty"
			verr.cause = ErrUnsupportedImage
		case int64(len(img.Data)) > s.maxImageBytes:
			verr.Fields["coverImage"] = fmt.Sprintf("must not exceed %d bytes", s.maxImageBytes)
			verr.cause = ErrImageTooLarge
		default:
			if _, _, err := storage.DetectImageType(img.Data); err != nil {
				verr.Fields["coverImage"] = "must be a JPEG or PNG image"
				verr.cause = ErrUnsupportedImage
			}
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	return nil
}

// upload stores the cover and returns the pair to write into the record.
func (s *bookService) upload(ctx context.Context, img *model.Image) (*model.Cover, error) {
	asset, err := s.assets.Upload(ctx, img.Data, img.ContentType)
	if err != nil {
		if !errors.Is(err, storage.ErrUpload) {
			err = fmt.Errorf("%w: %w", storage.ErrUpload, err)
		}
		return nil, fmt.Errorf("upload cover: %w", err)
	}
	if asset.URL == "" || asset.Handle == "" {
		if asset.Handle != "" {
			s.discard(ctx, asset.Handle, "", orphan.ReasonCreateRollback)
		}
		return nil, fmt.Errorf("upload cover: %w: incomplete asset returned", storage.ErrUpload)
	}
	return &model.Cover{URL: asset.URL, Handle: asset.Handle}, nil
}

// discard removes an asset that no record references any more. It runs even
// if ctx is already cancelled. Failures are logged and journaled, never returned.
func (s *bookService) discard(ctx context.Context, handle, bookID, reason string) {
	parent := context.WithoutCancel(ctx)
	rctx, cancel := context.WithTimeout(parent, s.cleanupTimeout)
	defer cancel()

	err := s.assets.Remove(rctx, handle)
	if err == nil {
		s.log.Debug("asset removed",
			zap.String("asset_handle", handle),
			zap.String("book_id", bookID),
			zap.String("reason", reason),
		)
		return
	}

	s.log.Warn("asset cleanup failed",
		zap.String("asset_handle", handle),
		zap.String("book_id", bookID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	entry := orphan.Entry{
		Handle: handle,
		BookID: bookID,
		Reason: reason,
		Err:    err.Error(),
		At:     time.Now().UTC(),
	}
	// The removal deadline may have expired; the journal gets its own.
	jctx, jcancel := context.WithTimeout(parent, s.cleanupTimeout)
	defer jcancel()
	if jerr := s.journal.Record(jctx, entry); jerr != nil {
		s.log.Error("failed to journal orphaned asset", zap.String("asset_handle", handle), zap.Error(jerr))
	}
}
