package facts_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/facts"
)

func factRows(items ...facts.Fact) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "content", "category", "created_at"})
	for _, f := range items {
		rows.AddRow(f.ID, f.Title, f.Content, f.Category, f.CreatedAt)
	}
	return rows
}

func TestPostgresRepo_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := facts.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		f := facts.New("Editor", "Uses Neovim with gopls", "tools")
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO facts")).
			WithArgs(f.ID, f.Title, f.Content, f.Category).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Save(context.Background(), &f))
	})

	t.Run("Error", func(t *testing.T) {
		f := facts.New("Editor", "Uses Neovim with gopls", "tools")
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO facts")).
			WillReturnError(errors.New("connection reset"))

		assert.Error(t, repo.Save(context.Background(), &f))
	})
}

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := facts.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		stored := facts.Fact{ID: "abc123def456", Title: "Editor", Content: "Uses Neovim", Category: "tools", CreatedAt: time.Now()}
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, content, category, created_at FROM facts WHERE id = $1")).
			WithArgs("abc123def456").
			WillReturnRows(factRows(stored))

		f, err := repo.Get(context.Background(), "abc123def456")
		require.NoError(t, err)
		assert.Equal(t, "Uses Neovim", f.Content)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, content, category, created_at FROM facts WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(factRows())

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, facts.ErrNotFound)
	})
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := facts.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, content, category, created_at FROM facts ORDER BY category, created_at")).
		WillReturnRows(factRows(
			facts.Fact{ID: "a", Title: "t1", Content: "c1", Category: "general", CreatedAt: time.Now()},
			facts.Fact{ID: "b", Title: "t2", Content: "c2", Category: "work", CreatedAt: time.Now()},
		))

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "general", all[0].Category)
}

func TestPostgresRepo_Search(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := facts.NewPostgresRepo(db)

	mock.ExpectQuery("SELECT id, title, content, category, created_at FROM facts").
		WithArgs("neovim").
		WillReturnRows(factRows(facts.Fact{ID: "a", Title: "Editor", Content: "Uses Neovim", Category: "tools", CreatedAt: time.Now()}))

	found, err := repo.Search(context.Background(), "neovim")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Editor", found[0].Title)
}

func TestPostgresRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := facts.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM facts WHERE id = $1")).
			WithArgs("a").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "a"))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM facts WHERE id = $1")).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), facts.ErrNotFound)
	})
}
