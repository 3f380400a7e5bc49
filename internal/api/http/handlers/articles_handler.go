package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// ArticlesHandler exposes article, category and tag endpoints.
type ArticlesHandler struct {
	articles *service.ArticleService
}

// NewArticlesHandler constructs the handler.
func NewArticlesHandler(articles *service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{articles: articles}
}

// Create handles POST /articles.
func (h *ArticlesHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	article, err := h.articles.CreateArticle(c.Context(), user.ID, articleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"article": dto.NewArticleResponse(article)})
}

// Update handles PUT /articles/:id.
func (h *ArticlesHandler) Update(c *fiber.Ctx) error {
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	article, err := h.articles.UpdateArticle(c.Context(), c.Params("id"), articleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"article": dto.NewArticleResponse(article)})
}

// Delete handles DELETE /articles/:id.
func (h *ArticlesHandler) Delete(c *fiber.Ctx) error {
	if err := h.articles.DeleteArticle(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "article deleted"})
}

// Get handles GET /articles/:id.
func (h *ArticlesHandler) Get(c *fiber.Ctx) error {
	article, err := h.articles.GetArticle(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"article": dto.NewArticleResponse(article)})
}

// List handles GET /articles with optional filters.
func (h *ArticlesHandler) List(c *fiber.Ctx) error {
	filter := repository.ArticleFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("author_id"); v != "" {
		filter.AuthorID = &v
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("tag"); v != "" {
		filter.Tag = &v
	}
	if v := c.Query("keyword"); v != "" {
		filter.SearchTerm = &v
	}
	if v := c.Query("status"); v != "" {
		status := domain.ArticleStatus(v)
		filter.Status = &status
	}

	articles, err := h.articles.ListArticles(c.Context(), filter)
	if err != nil {
		return err
	}
	results := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		resp := dto.NewArticleResponse(&articles[i])
		resp.Content = ""
		results = append(results, resp)
	}
	return c.JSON(fiber.Map{"articles": results})
}

// Tags handles GET /articles/tags.
func (h *ArticlesHandler) Tags(c *fiber.Ctx) error {
	tags, err := h.articles.ListTags(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func articleInput(req dto.ArticleRequest) service.ArticleInput {
	return service.ArticleInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Summary:    req.Summary,
		Content:    req.Content,
		Cover:      req.Cover,
		Tags:       req.Tags,
		Status:     domain.ArticleStatus(req.Status),
	}
}
