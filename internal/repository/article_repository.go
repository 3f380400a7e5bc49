package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/domain"
)

// ArticleFilter captures listing parameters.
type ArticleFilter struct {
	AuthorID   *string
	CategoryID *string
	Tag        *string
	Status     *domain.ArticleStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// ArticleRepository encapsulates article persistence.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error)
	IncrementViewCount(ctx context.Context, id string) error
	DistinctTags(ctx context.Context) ([]string, error)
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates the repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

const articleColumns = `id, author_id, category_id, title, summary, content, cover, tags, status, view_count, created_at, updated_at`

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	const query = `
        INSERT INTO articles (author_id, category_id, title, summary, content, cover, tags, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, view_count, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		article.AuthorID,
		article.CategoryID,
		article.Title,
		article.Summary,
		article.Content,
		article.Cover,
		article.Tags,
		article.Status,
	).Scan(&article.ID, &article.ViewCount, &article.CreatedAt, &article.UpdatedAt)
}

func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	const query = `
        UPDATE articles SET category_id=$1, title=$2, summary=$3, content=$4, cover=$5,
            tags=$6, status=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		article.CategoryID,
		article.Title,
		article.Summary,
		article.Content,
		article.Cover,
		article.Tags,
		article.Status,
		article.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE id=$1`, articleColumns)
	return r.scanArticle(r.pool.QueryRow(ctx, query, id))
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error) {
	clauses := []string{"1=1"}
	args := []any{}
	idx := 1

	addArg := func(clause string, value any) {
		clauses = append(clauses, fmt.Sprintf(clause, idx))
		args = append(args, value)
		idx++
	}

	if filter.AuthorID != nil {
		addArg("author_id=$%d", *filter.AuthorID)
	}
	if filter.CategoryID != nil {
		addArg("category_id=$%d", *filter.CategoryID)
	}
	if filter.Tag != nil {
		addArg("$%d = ANY(tags)", *filter.Tag)
	}
	if filter.Status != nil {
		addArg("status=$%d", *filter.Status)
	}
	if filter.SearchTerm != nil {
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR summary ILIKE '%%' || $%d || '%%')", idx, idx))
		args = append(args, *filter.SearchTerm)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM articles WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		articleColumns, strings.Join(clauses, " AND "), idx, idx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := r.scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func (r *articleRepository) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE articles SET view_count = view_count + 1 WHERE id=$1`, id)
	return err
}

func (r *articleRepository) DistinctTags(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT unnest(tags) AS tag FROM articles ORDER BY tag`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *articleRepository) scanArticle(row pgx.Row) (*domain.Article, error) {
	var article domain.Article
	if err := row.Scan(
		&article.ID,
		&article.AuthorID,
		&article.CategoryID,
		&article.Title,
		&article.Summary,
		&article.Content,
		&article.Cover,
		&article.Tags,
		&article.Status,
		&article.ViewCount,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &article, nil
}
