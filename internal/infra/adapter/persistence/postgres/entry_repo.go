package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/domain/entity"
	"inkwell/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *sql.DB the repository uses. The render-sweep worker
// passes a circuit-breaker wrapper that satisfies the same interface.
type DB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EntryRepo struct {
	db DB
}

func NewEntryRepo(db DB) repository.EntryRepository {
	return &EntryRepo{db: db}
}

// isSlugConflict reports whether err is the unique-index violation raised by
// a duplicate slug.
func isSlugConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

func (repo *EntryRepo) FindBySlug(ctx context.Context, slug string) (*entity.Entry, error) {
	const query = `
SELECT id, author, title, slug, body, html, published, updated
FROM entries
WHERE slug = $1
LIMIT 1`
	var entry entity.Entry
	err := repo.db.QueryRowContext(ctx, query, slug).
		Scan(&entry.ID, &entry.Author, &entry.Title, &entry.Slug,
			&entry.Body, &entry.HTML, &entry.Published, &entry.Updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindBySlug: %w", err)
	}
	return &entry, nil
}

func (repo *EntryRepo) FindByID(ctx context.Context, id int64) (*entity.Entry, error) {
	const query = `
SELECT id, author, title, slug, body, html, published, updated
FROM entries
WHERE id = $1
LIMIT 1`
	var entry entity.Entry
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&entry.ID, &entry.Author, &entry.Title, &entry.Slug,
			&entry.Body, &entry.HTML, &entry.Published, &entry.Updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	return &entry, nil
}

// Save issues exactly one statement: an INSERT for entries without an ID, an
// UPDATE otherwise. The UPDATE never touches author, slug, or published.
func (repo *EntryRepo) Save(ctx context.Context, entry *entity.Entry) error {
	if entry.ID == 0 {
		return repo.insert(ctx, entry)
	}
	return repo.update(ctx, entry)
}

func (repo *EntryRepo) insert(ctx context.Context, entry *entity.Entry) error {
	const query = `
INSERT INTO entries
	   (author, title, slug, body, html, published, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		entry.Author, entry.Title, entry.Slug,
		entry.Body, entry.HTML, entry.Published, entry.Updated,
	).Scan(&entry.ID)
	if err != nil {
		if isSlugConflict(err) {
			return fmt.Errorf("Save: slug %q: %w", entry.Slug, entity.ErrConflict)
		}
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *EntryRepo) update(ctx context.Context, entry *entity.Entry) error {
	const query = `
UPDATE entries SET
       title   = $1,
       body    = $2,
       html    = $3,
       updated = $4
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query,
		entry.Title, entry.Body, entry.HTML, entry.Updated, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Save: no rows affected")
	}
	return nil
}

func (repo *EntryRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Entry, error) {
	const query = `
SELECT id, author, title, slug, body, html, published, updated
FROM entries
ORDER BY published DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.Entry, 0, limit)
	for rows.Next() {
		var entry entity.Entry
		if err := rows.Scan(&entry.ID, &entry.Author, &entry.Title, &entry.Slug,
			&entry.Body, &entry.HTML, &entry.Published, &entry.Updated); err != nil {
			return nil, fmt.Errorf("ListRecent: Scan: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (repo *EntryRepo) ListAll(ctx context.Context) ([]*entity.Entry, error) {
	const query = `
SELECT id, author, title, slug, body, html, published, updated
FROM entries
ORDER BY published DESC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// パフォーマンス最適化: メモリ再割り当てを削減するため事前割り当て
	entries := make([]*entity.Entry, 0, 100)
	for rows.Next() {
		var entry entity.Entry
		if err := rows.Scan(&entry.ID, &entry.Author, &entry.Title, &entry.Slug,
			&entry.Body, &entry.HTML, &entry.Published, &entry.Updated); err != nil {
			return nil, fmt.Errorf("ListAll: Scan: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (repo *EntryRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM entries`
	var count int64
	err := repo.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *EntryRepo) UpdateHTML(ctx context.Context, id int64, html string, updated time.Time) error {
	const query = `
UPDATE entries SET
       html    = $1,
       updated = $2
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, html, updated, id)
	if err != nil {
		return fmt.Errorf("UpdateHTML: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateHTML: no rows affected")
	}
	return nil
}
