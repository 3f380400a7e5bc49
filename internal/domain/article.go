package domain

import "time"

// ArticleStatus represents the publication state of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// Article is the domain model for blog posts.
type Article struct {
	ID         string
	AuthorID   string
	CategoryID *string
	Title      string
	Summary    string
	Content    string
	Cover      *string
	Tags       []string
	Status     ArticleStatus
	ViewCount  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
