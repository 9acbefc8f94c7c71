package entry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"inkwell/internal/domain/entity"
	"inkwell/internal/markdown"
	"inkwell/internal/observability/metrics"
	"inkwell/internal/repository"
	"inkwell/internal/slug"
)

// Default page sizes, overridable through the Service fields.
const (
	defaultHomeLimit = 3
	defaultFeedLimit = 10
)

// PublishInput represents the input parameters for publishing an entry.
// A nil ID publishes a new entry; a non-nil ID republishes an existing one.
type PublishInput struct {
	ID    *int64
	Title string
	Body  string
}

// Service provides entry publishing and reading use cases.
// It handles business logic for the single-author blog and delegates
// persistence to the repository.
type Service struct {
	Repo     repository.EntryRepository
	Renderer markdown.Renderer
	Clock    Clock

	// HomeLimit and FeedLimit override the number of entries served by
	// Recent and Feed; zero means the default (3 and 10).
	HomeLimit int
	FeedLimit int
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

// Publish creates or updates an entry and returns the stored result.
//
// With a nil input ID a new entry is created: the title is validated, a
// unique slug derived from it, and Published and Updated both set to the
// current time. With a non-nil ID the existing entry is republished: title
// and body are replaced and the HTML re-rendered, while author, slug, and
// the original publication time stay untouched. Either path performs exactly
// one repository write, and the stored HTML always matches the stored body.
func (s *Service) Publish(ctx context.Context, in PublishInput, author string) (*entity.Entry, error) {
	if in.ID != nil {
		return s.republish(ctx, *in.ID, in)
	}
	return s.create(ctx, in, author)
}

func (s *Service) create(ctx context.Context, in PublishInput, author string) (*entity.Entry, error) {
	if err := entity.ValidateTitle(in.Title); err != nil {
		return nil, fmt.Errorf("validate title: %w", err)
	}

	// Repo.FindBySlug doubles as the existence probe; excludeID 0 matches
	// no persisted entry, so every owner counts as a collision.
	sl, err := slug.Generate(ctx, in.Title, s.Repo.FindBySlug, 0)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	html, err := s.render(ctx, in.Body)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	now := s.now()
	e := &entity.Entry{
		Author:    author,
		Title:     in.Title,
		Slug:      sl,
		Body:      in.Body,
		HTML:      html,
		Published: now,
		Updated:   now,
	}
	if err := s.Repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("publish entry: %w", err)
	}
	metrics.RecordEntryPublished("create")
	return e, nil
}

// render delegates to the renderer and records how long the conversion took.
func (s *Service) render(ctx context.Context, body string) (string, error) {
	start := time.Now()
	html, err := s.Renderer.Render(ctx, body)
	if err != nil {
		return "", err
	}
	metrics.RecordRenderDuration(time.Since(start))
	return html, nil
}

func (s *Service) republish(ctx context.Context, id int64, in PublishInput) (*entity.Entry, error) {
	if id <= 0 {
		return nil, ErrInvalidEntryID
	}

	e, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}

	html, err := s.render(ctx, in.Body)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	// Author・Slug・Publishedは初回公開のまま
	e.Title = in.Title
	e.Body = in.Body
	e.HTML = html
	e.Updated = s.now()

	if err := s.Repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("publish entry: %w", err)
	}
	metrics.RecordEntryPublished("republish")
	return e, nil
}

// Recent retrieves the newest entries for the home page.
func (s *Service) Recent(ctx context.Context) ([]*entity.Entry, error) {
	limit := s.HomeLimit
	if limit <= 0 {
		limit = defaultHomeLimit
	}

	entries, err := s.Repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	return entries, nil
}

// Archive retrieves every entry, newest first.
func (s *Service) Archive(ctx context.Context) ([]*entity.Entry, error) {
	entries, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// BySlug retrieves a single entry by its permalink slug.
// Returns ErrEntryNotFound if no entry owns the slug.
func (s *Service) BySlug(ctx context.Context, sl string) (*entity.Entry, error) {
	// A slug that fails validation can never exist, so skip the lookup
	if err := entity.ValidateSlug(sl); err != nil {
		return nil, err
	}

	e, err := s.Repo.FindBySlug(ctx, sl)
	if err != nil {
		return nil, fmt.Errorf("find entry by slug: %w", err)
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// ByID retrieves a single entry by its ID, used by the compose form to
// prefill an edit.
// Returns ErrInvalidEntryID if the ID is not positive.
// Returns ErrEntryNotFound if the entry does not exist.
func (s *Service) ByID(ctx context.Context, id int64) (*entity.Entry, error) {
	if id <= 0 {
		return nil, ErrInvalidEntryID
	}

	e, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// Count returns the total number of published entries.
func (s *Service) Count(ctx context.Context) (int64, error) {
	count, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Feed retrieves the newest entries for the Atom feed.
func (s *Service) Feed(ctx context.Context) ([]*entity.Entry, error) {
	limit := s.FeedLimit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	entries, err := s.Repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed entries: %w", err)
	}
	return entries, nil
}

// RenderAll re-renders every entry body through the current renderer and
// persists the HTML of entries whose output changed. It keeps stored HTML in
// step with the renderer across sanitizer or extension upgrades. parallelism
// bounds the number of concurrent renders.
// Returns how many entries were scanned and how many were refreshed.
func (s *Service) RenderAll(ctx context.Context, parallelism int) (int, int, error) {
	start := time.Now()

	entries, err := s.Repo.ListAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list entries: %w", err)
	}

	if parallelism <= 0 {
		parallelism = 1
	}

	var refreshed int64
	sem := make(chan struct{}, parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, e := range entries {
		current := e
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			html, err := s.Renderer.Render(egCtx, current.Body)
			if err != nil {
				metrics.RecordRenderFailure()
				return fmt.Errorf("render entry %d: %w", current.ID, err)
			}
			if html == current.HTML {
				return nil
			}

			if err := s.Repo.UpdateHTML(egCtx, current.ID, html, s.now()); err != nil {
				metrics.RecordRenderFailure()
				return fmt.Errorf("refresh entry %d: %w", current.ID, err)
			}
			atomic.AddInt64(&refreshed, 1)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return len(entries), int(atomic.LoadInt64(&refreshed)), err
	}

	metrics.RecordRenderSweep(time.Since(start), len(entries), int(refreshed))
	return len(entries), int(refreshed), nil
}
