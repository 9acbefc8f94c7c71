// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Entry, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Entry represents a single blog entry.
// Body holds the raw markdown source; HTML holds the rendered, sanitized
// output and must never be stale relative to Body after a successful publish.
type Entry struct {
	ID        int64
	Author    string
	Title     string
	Slug      string
	Body      string
	HTML      string
	Published time.Time
	Updated   time.Time
}

// Permalink returns the canonical path for the entry.
func (e *Entry) Permalink() string {
	return "/entry/" + e.Slug
}
