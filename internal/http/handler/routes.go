package handler

import (
	"context"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookapi/docs"
	"bookapi/internal/http/middleware"
	"bookapi/internal/model"
	"bookapi/internal/service"
)

const (
	coverImageField = "coverImage"
	healthTimeout   = 2 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the routes are served from.
type Deps struct {
	Books    service.BookService
	Health   Pinger
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// RegisterRoutes attaches all HTTP routes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get("/swagger/*", Swagger())

	books := app.Group("/api/books")
	books.Get("/", ListBooks(d.Books, log))
	books.Post("/", CreateBook(d.Books, log))
	books.Get("/:id", GetBook(d.Books, log))
	books.Put("/:id", UpdateBook(d.Books, log))
	books.Delete("/:id", DeleteBook(d.Books, log))
}

// HealthCheck godoc
// @Summary Readiness check
// @Description Pings the record store.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(p Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, CodeServiceUnavailable, "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process is running.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Swagger serves the API docs with the host and scheme of the current request.
func Swagger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		docs.SwaggerInfo.Host = c.Hostname()
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	}
}

// ListBooks godoc
// @Summary List books
// @Description Returns every book, newest first.
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Failure 500 {object} errorPayload
// @Router /api/books [get]
func ListBooks(svc service.BookService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		books, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(books)
	}
}

// GetBook godoc
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errorPayload
// @Router /api/books/{id} [get]
func GetBook(svc service.BookService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(b)
	}
}

// CreateBook godoc
// @Summary Create a book
// @Description Accepts an optional JPEG or PNG cover of at most 5 MiB.
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param author formData string true "Author"
// @Param description formData string false "Description"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} model.Book
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/books [post]
func CreateBook(svc service.BookService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		img, err := coverImage(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid multipart form")
		}

		b, err := svc.Create(c.UserContext(), bookInput(c), img)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// UpdateBook godoc
// @Summary Update a book
// @Description Replaces the text fields; a new cover replaces the old one.
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Book ID"
// @Param title formData string true "Title"
// @Param author formData string true "Author"
// @Param description formData string false "Description"
// @Param coverImage formData file false "Cover image"
// @Success 200 {object} model.Book
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/books/{id} [put]
func UpdateBook(svc service.BookService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		img, err := coverImage(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, CodeBadRequest, "invalid multipart form")
		}

		b, err := svc.Update(c.UserContext(), c.Params("id"), bookInput(c), img)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(b)
	}
}

// DeleteBook godoc
// @Summary Delete a book
// @Description Deletes the book and its cover image.
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/books/{id} [delete]
func DeleteBook(svc service.BookService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := svc.Delete(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(fiber.Map{"message": "book deleted", "id": b.ID})
	}
}

func bookInput(c *fiber.Ctx) service.BookInput {
	return service.BookInput{
		Title:       c.FormValue("title"),
		Author:      c.FormValue("author"),
		Description: c.FormValue("description"),
	}
}

// coverImage returns the uploaded cover, or nil when the request carries
// none. Only multipart requests can carry a file.
func coverImage(c *fiber.Ctx) (*model.Image, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[coverImageField]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	// Browsers send an empty part when no file was picked.
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}

	data, err := readFile(fh)
	if err != nil {
		return nil, err
	}
	return &model.Image{
		Data:        data,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Filename:    fh.Filename,
	}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
