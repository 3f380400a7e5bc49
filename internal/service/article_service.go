package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// ArticleService coordinates article and category workflows.
type ArticleService struct {
	articles   repository.ArticleRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
}

// ArticleDependencies bundles repositories for the article service.
type ArticleDependencies struct {
	ArticleRepo  repository.ArticleRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
}

// ArticleInput describes creation and update payloads.
type ArticleInput struct {
	CategoryID *string
	Title      string
	Summary    string
	Content    string
	Cover      *string
	Tags       []string
	Status     domain.ArticleStatus
}

// NewArticleService constructs the service.
func NewArticleService(deps ArticleDependencies) *ArticleService {
	return &ArticleService{
		articles:   deps.ArticleRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateArticle creates an article authored by the given user.
func (s *ArticleService) CreateArticle(ctx context.Context, authorID string, input ArticleInput) (*domain.Article, error) {
	if input.Title == "" || input.Content == "" {
		return nil, apperrors.NewValidationError("title and content required", nil)
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.ArticleStatusDraft
	}

	article := &domain.Article{
		AuthorID:   authorID,
		CategoryID: input.CategoryID,
		Title:      input.Title,
		Summary:    input.Summary,
		Content:    input.Content,
		Cover:      input.Cover,
		Tags:       input.Tags,
		Status:     status,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	if article.Status == domain.ArticleStatusPublished {
		s.publishEvent(ctx, article)
	}
	return article, nil
}

// UpdateArticle applies changes to an existing article.
func (s *ArticleService) UpdateArticle(ctx context.Context, id string, input ArticleInput) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", nil)
		}
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	wasPublished := article.Status == domain.ArticleStatusPublished

	if input.Title != "" {
		article.Title = input.Title
	}
	if input.Content != "" {
		article.Content = input.Content
	}
	article.Summary = input.Summary
	article.Cover = input.Cover
	article.CategoryID = input.CategoryID
	if input.Tags != nil {
		article.Tags = input.Tags
	}
	if input.Status != "" {
		article.Status = input.Status
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	if !wasPublished && article.Status == domain.ArticleStatusPublished {
		s.publishEvent(ctx, article)
	}
	return article, nil
}

// DeleteArticle removes an article.
func (s *ArticleService) DeleteArticle(ctx context.Context, id string) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("article", nil)
		}
		return err
	}
	return nil
}

// GetArticle fetches an article and counts the read.
func (s *ArticleService) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", nil)
		}
		return nil, err
	}
	_ = s.articles.IncrementViewCount(ctx, id)
	article.ViewCount++
	return article, nil
}

// ListArticles returns articles matching the filter.
func (s *ArticleService) ListArticles(ctx context.Context, filter repository.ArticleFilter) ([]domain.Article, error) {
	return s.articles.List(ctx, filter)
}

// ListTags returns every tag in use.
func (s *ArticleService) ListTags(ctx context.Context) ([]string, error) {
	return s.articles.DistinctTags(ctx)
}

// CreateCategory adds a category, rejecting duplicates by name.
func (s *ArticleService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("category already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	category := &domain.Category{Name: name, Description: description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames or redescribes a category.
func (s *ArticleService) UpdateCategory(ctx context.Context, id, name, description string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", nil)
		}
		return nil, err
	}
	if name != "" {
		category.Name = name
	}
	category.Description = description
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category; its articles keep a null category.
func (s *ArticleService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", nil)
		}
		return err
	}
	return nil
}

// ListCategories returns all categories.
func (s *ArticleService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *ArticleService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown category", nil)
		}
		return err
	}
	return nil
}

func (s *ArticleService) publishEvent(ctx context.Context, article *domain.Article) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventArticlePublished,
		ActorID:   article.AuthorID,
		Timestamp: time.Now(),
		Payload: events.ArticlePublishedPayload{
			ArticleID: article.ID,
			Title:     article.Title,
			Tags:      article.Tags,
		},
	})
}
