package dto

import (
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

// ArticleRequest payload for article creation and updates.
type ArticleRequest struct {
	CategoryID *string  `json:"category_id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Content    string   `json:"content"`
	Cover      *string  `json:"cover"`
	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
}

// ArticleResponse is the public view of an article.
type ArticleResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	CategoryID *string   `json:"category_id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content,omitempty"`
	Cover      *string   `json:"cover"`
	Tags       []string  `json:"tags"`
	Status     string    `json:"status"`
	ViewCount  int64     `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewArticleResponse maps a domain article to its public view.
func NewArticleResponse(article *domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:         article.ID,
		AuthorID:   article.AuthorID,
		CategoryID: article.CategoryID,
		Title:      article.Title,
		Summary:    article.Summary,
		Content:    article.Content,
		Cover:      article.Cover,
		Tags:       article.Tags,
		Status:     string(article.Status),
		ViewCount:  article.ViewCount,
		CreatedAt:  article.CreatedAt,
		UpdatedAt:  article.UpdatedAt,
	}
}

// CategoryRequest payload for category writes.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommentRequest payload for comment creation.
type CommentRequest struct {
	ParentID *string `json:"parent_id"`
	Content  string  `json:"content"`
}
