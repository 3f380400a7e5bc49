package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// CommentService coordinates comment workflows.
type CommentService struct {
	comments   repository.CommentRepository
	articles   repository.ArticleRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, articles repository.ArticleRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, articles: articles, dispatcher: dispatcher}
}

// CreateComment adds a comment, optionally replying to another one on the
// same article.
func (s *CommentService) CreateComment(ctx context.Context, authorID, articleID string, parentID *string, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", nil)
		}
		return nil, err
	}
	if parentID != nil {
		parent, err := s.comments.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("parent comment", nil)
			}
			return nil, err
		}
		if parent.ArticleID != articleID {
			return nil, apperrors.NewValidationError("parent comment belongs to another article", nil)
		}
	}

	comment := &domain.Comment{
		ArticleID: articleID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Content:   content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		preview := comment.Content
		if len(preview) > 80 {
			preview = preview[:80]
		}
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventCommentCreated,
			ActorID:   authorID,
			Timestamp: time.Now(),
			Payload: events.CommentCreatedPayload{
				CommentID:   comment.ID,
				ArticleID:   comment.ArticleID,
				ParentID:    comment.ParentID,
				BodyPreview: preview,
			},
		})
	}
	return comment, nil
}

// DeleteComment removes a comment. Authors may delete their own comments;
// anyone else needs the article:delete capability.
func (s *CommentService) DeleteComment(ctx context.Context, actor *domain.User, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", nil)
		}
		return err
	}
	if comment.AuthorID != actor.ID && !auth.Allows(actor, auth.PermArticleDelete) {
		return apperrors.NewForbidden("permission denied")
	}
	return s.comments.Delete(ctx, commentID)
}

// ListComments returns comments for an article in posting order.
func (s *CommentService) ListComments(ctx context.Context, articleID string, limit, offset int) ([]domain.Comment, error) {
	return s.comments.ListByArticle(ctx, articleID, limit, offset)
}
