package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookapi/internal/config"
	"bookapi/internal/database"
	bookstore "bookapi/internal/repository/postgres"
)

// startPostgres runs a throwaway Postgres container and returns an open pool.
// The test is skipped when no Docker daemon is reachable.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=books",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=books",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("failed to purge postgres container: %v", err)
		}
	})

	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     resource.GetPort("5432/tcp"),
		User:     "books",
		Password: "secret",
		Name:     "books",
		SSLMode:  "disable",
	}

	var db *sql.DB
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(context.Background(), cfg)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUp_Postgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, zap.NewNop()))
	// A second run finds nothing to apply and leaves the pool usable.
	require.NoError(t, Up(ctx, db, zap.NewNop()))
	require.NoError(t, db.PingContext(ctx))

	t.Run("cover url without handle is rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx,
			`INSERT INTO books (title, author, cover_image_url) VALUES ('Dune', 'Herbert', 'https://cdn/u1.jpg')`)
		assert.ErrorContains(t, err, "books_cover_pair")
	})

	t.Run("handle without cover url is rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx,
			`INSERT INTO books (title, author, asset_handle) VALUES ('Dune', 'Herbert', 'covers/u1.jpg')`)
		assert.ErrorContains(t, err, "books_cover_pair")
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO books (title, author) VALUES ('', 'Herbert')`)
		assert.Error(t, err)
	})

	t.Run("rows sharing a timestamp list newest insert first", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		// now() is fixed for the whole transaction, so created_at ties.
		for _, title := range []string{"A", "B", "C"} {
			_, err := tx.ExecContext(ctx, `INSERT INTO books (title, author) VALUES ($1, 'Herbert')`, title)
			require.NoError(t, err)
		}
		require.NoError(t, tx.Commit())

		books, err := bookstore.NewBookPostgres(db).List(ctx)
		require.NoError(t, err)
		titles := make([]string, 0, len(books))
		for _, b := range books {
			titles = append(titles, b.Title)
		}
		assert.Equal(t, []string{"C", "B", "A"}, titles)
	})
}
