package domain

import "time"

// Comment is a remark on an article, optionally replying to another comment.
type Comment struct {
	ID        string
	ArticleID string
	AuthorID  string
	ParentID  *string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
