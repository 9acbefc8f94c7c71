// Package entry provides HTTP handlers for the public blog pages and the
// compose endpoint used to publish entries.
package entry

import (
	"time"

	"inkwell/internal/domain/entity"
	"inkwell/internal/markdown"
)

// excerptRunes bounds the plain-text excerpt carried in list responses.
const excerptRunes = 280

// DTO represents the JSON structure for a published entry.
type DTO struct {
	ID                 int64     `json:"id" example:"1"`
	Author             string    `json:"author" example:"aoki"`
	Title              string    `json:"title" example:"Hello World"`
	Slug               string    `json:"slug" example:"hello-world"`
	Permalink          string    `json:"permalink" example:"/entry/hello-world"`
	HTML               string    `json:"html" example:"<p>本文のHTML</p>"`
	Excerpt            string    `json:"excerpt" example:"本文の抜粋…"`
	ReadingTimeMinutes int       `json:"reading_time_minutes" example:"3"`
	Published          time.Time `json:"published" example:"2025-10-26T10:00:00Z"`
	Updated            time.Time `json:"updated" example:"2025-10-26T12:00:00Z"`
}

// toDTO derives the excerpt and reading time from the stored HTML, so list
// pages never re-render markdown.
func toDTO(e *entity.Entry) DTO {
	return DTO{
		ID:                 e.ID,
		Author:             e.Author,
		Title:              e.Title,
		Slug:               e.Slug,
		Permalink:          e.Permalink(),
		HTML:               e.HTML,
		Excerpt:            markdown.Excerpt(e.HTML, excerptRunes),
		ReadingTimeMinutes: markdown.ReadingTimeMinutes(e.HTML),
		Published:          e.Published,
		Updated:            e.Updated,
	}
}

func toDTOs(entries []*entity.Entry) []DTO {
	out := make([]DTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDTO(e))
	}
	return out
}
