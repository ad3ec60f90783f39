package facts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("fact not found")

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, f *Fact) error {
	query := `
		INSERT INTO facts (id, title, content, category)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET title = $2, content = $3, category = $4
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.Title, f.Content, f.Category)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Fact, error) {
	f := &Fact{}
	query := `SELECT id, title, content, category, created_at FROM facts WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&f.ID, &f.Title, &f.Content, &f.Category, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Fact, error) {
	query := `SELECT id, title, content, category, created_at FROM facts ORDER BY category, created_at`
	return r.queryFacts(ctx, query)
}

func (r *PostgresRepo) ListByCategory(ctx context.Context, category string) ([]Fact, error) {
	query := `SELECT id, title, content, category, created_at FROM facts WHERE category = $1 ORDER BY created_at`
	return r.queryFacts(ctx, query, category)
}

func (r *PostgresRepo) Search(ctx context.Context, term string) ([]Fact, error) {
	query := `
		SELECT id, title, content, category, created_at FROM facts
		WHERE title ILIKE '%' || $1 || '%' OR content ILIKE '%' || $1 || '%'
		ORDER BY category, created_at
	`
	return r.queryFacts(ctx, query, term)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *PostgresRepo) queryFacts(ctx context.Context, query string, args ...interface{}) ([]Fact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.Title, &f.Content, &f.Category, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
