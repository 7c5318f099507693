package domain

import (
	"strings"
	"time"
)

// Commit is a commit as supplied by a source-hosting collaborator
type Commit struct {
	SHA         string
	Message     string
	AuthorName  string
	AuthorLogin string // empty when the author has no platform account
	AuthorEmail string
	Timestamp   time.Time
	Files       []ChangedFile
}

// Title returns the first line of the commit message
func (c *Commit) Title() string {
	title, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(title)
}

// Meta is the commit context handed to the summarizers
type Meta struct {
	Repo        string  `json:"repo"`
	SHA         string  `json:"sha"`
	Title       string  `json:"title"`
	Author      *string `json:"author"`
	AuthorLogin *string `json:"author_login"`
	AuthorEmail *string `json:"author_email"`
	DateKST     string  `json:"date_kst"`
}

// NewMeta builds the summarizer context for a commit, formatting its
// authored time in loc.
func NewMeta(repo string, c Commit, loc *time.Location) Meta {
	return Meta{
		Repo:        repo,
		SHA:         c.SHA,
		Title:       c.Title(),
		Author:      optional(c.AuthorName),
		AuthorLogin: optional(c.AuthorLogin),
		AuthorEmail: optional(c.AuthorEmail),
		DateKST:     c.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST"),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
