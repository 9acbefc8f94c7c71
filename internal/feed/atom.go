// Package feed builds the Atom 1.0 document served at /feed.
package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/domain/entity"
)

const atomNS = "http://www.w3.org/2005/Atom"

// Site carries the blog metadata stamped into the feed header.
type Site struct {
	Title   string
	BaseURL string
	Author  string
	Email   string
}

// The structs below mirror the Atom document layout for encoding/xml.

type atomFeed struct {
	XMLName   xml.Name    `xml:"feed"`
	Xmlns     string      `xml:"xmlns,attr"`
	Title     string      `xml:"title"`
	ID        string      `xml:"id"`
	Updated   string      `xml:"updated"`
	Generator string      `xml:"generator,omitempty"`
	Links     []atomLink  `xml:"link"`
	Author    *atomAuthor `xml:"author,omitempty"`
	Entries   []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomAuthor struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomEntry struct {
	Title     string      `xml:"title"`
	ID        string      `xml:"id"`
	Links     []atomLink  `xml:"link"`
	Published string      `xml:"published"`
	Updated   string      `xml:"updated"`
	Content   atomContent `xml:"content"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

// Build renders the given entries, newest first, into an Atom document.
// The feed-level updated timestamp is the most recent Updated across the
// entries, or now when the blog has no entries yet. Entry IDs and links are
// permalink URLs under the site base URL, so they stay stable across
// republishes.
func Build(site Site, entries []*entity.Entry, now time.Time) ([]byte, error) {
	base := strings.TrimRight(site.BaseURL, "/")

	updated := now
	if len(entries) > 0 {
		// 再公開で古い記事のUpdatedが最新になることもあるため全件を見る
		updated = entries[0].Updated
		for _, e := range entries[1:] {
			if e.Updated.After(updated) {
				updated = e.Updated
			}
		}
	}

	f := atomFeed{
		Xmlns:     atomNS,
		Title:     site.Title,
		ID:        base + "/",
		Updated:   atomTime(updated),
		Generator: "inkwell",
		Links: []atomLink{
			{Rel: "self", Href: base + "/feed"},
			{Rel: "alternate", Href: base + "/"},
		},
	}
	if site.Author != "" {
		f.Author = &atomAuthor{Name: site.Author, Email: site.Email}
	}

	f.Entries = make([]atomEntry, 0, len(entries))
	for _, e := range entries {
		href := base + e.Permalink()
		f.Entries = append(f.Entries, atomEntry{
			Title:     e.Title,
			ID:        href,
			Links:     []atomLink{{Rel: "alternate", Href: href}},
			Published: atomTime(e.Published),
			Updated:   atomTime(e.Updated),
			Content:   atomContent{Type: "html", Body: e.HTML},
		})
	}

	out, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Atom requires RFC 3339 timestamps.
func atomTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
