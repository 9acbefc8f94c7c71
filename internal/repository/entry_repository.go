package repository

import (
	"context"
	"time"

	"inkwell/internal/domain/entity"
)

type EntryRepository interface {
	// FindBySlug retrieves the entry owning a slug.
	// Returns (nil, nil) if no entry has the slug; this doubles as the
	// existence probe for slug generation.
	FindBySlug(ctx context.Context, slug string) (*entity.Entry, error)
	// FindByID returns (nil, nil) if the entry is not found.
	FindByID(ctx context.Context, id int64) (*entity.Entry, error)
	// Save persists an entry with a single statement: INSERT when ID is
	// zero (the generated ID is written back), UPDATE otherwise.
	// A unique violation on the slug column surfaces as entity.ErrConflict.
	Save(ctx context.Context, entry *entity.Entry) error
	// ListRecent retrieves the newest entries, most recent first.
	ListRecent(ctx context.Context, limit int) ([]*entity.Entry, error)
	// ListAll retrieves every entry, most recent first.
	ListAll(ctx context.Context) ([]*entity.Entry, error)
	// Count returns the total number of published entries.
	Count(ctx context.Context) (int64, error)
	// UpdateHTML rewrites only the rendered HTML of an entry, used by the
	// re-render sweep after a renderer upgrade.
	UpdateHTML(ctx context.Context, id int64, html string, updated time.Time) error
}
