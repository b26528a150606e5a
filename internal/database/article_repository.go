package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/lib/pq"
)

// ErrArticleNotFound is returned by FindByID.
var ErrArticleNotFound = errors.New("article not found")

const articleColumns = `id, url, canonical_url, content_hash, title, description, image_url, published_at,
	source_id, source_name, source_weight, author, category, tags, api_source, created_at`

const activeOnly = ` WHERE deleted_at IS NULL`

// articleRow is the flat table shape of domain.Article.
type articleRow struct {
	ID           string          `db:"id"`
	URL          string          `db:"url"`
	CanonicalURL string          `db:"canonical_url"`
	ContentHash  string          `db:"content_hash"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	ImageURL     string          `db:"image_url"`
	PublishedAt  sql.NullTime    `db:"published_at"`
	SourceID     string          `db:"source_id"`
	SourceName   string          `db:"source_name"`
	SourceWeight float64         `db:"source_weight"`
	Author       string          `db:"author"`
	Category     domain.Category `db:"category"`
	Tags         pq.StringArray  `db:"tags"`
	APISource    string          `db:"api_source"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r *articleRow) toDomain() domain.Article {
	a := domain.Article{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		URL:          r.URL,
		CanonicalURL: r.CanonicalURL,
		ContentHash:  r.ContentHash,
		ImageURL:     r.ImageURL,
		Source:       domain.SourceRef{ID: r.SourceID, Name: r.SourceName},
		SourceWeight: r.SourceWeight,
		Author:       r.Author,
		Category:     r.Category,
		Tags:         []string(r.Tags),
		APISource:    r.APISource,
	}
	if r.PublishedAt.Valid {
		a.PublishedAt = r.PublishedAt.Time
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a
}

func toDomain(rows []articleRow) []domain.Article {
	out := make([]domain.Article, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}

// ArticleRepository persists articles. Deletes are soft: rows keep their
// data with deleted_at set and disappear from every read.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a repository on db.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Ping checks connectivity.
func (r *ArticleRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save inserts a or, when its id exists, refreshes the mutable fields and
// revives a soft-deleted row. It reports whether a new row was created.
func (r *ArticleRepository) Save(ctx context.Context, a *domain.Article) (bool, error) {
	query := `
		INSERT INTO articles (
			id, url, canonical_url, content_hash, title, description, image_url, published_at,
			source_id, source_name, source_weight, author, category, tags, api_source
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			tags = EXCLUDED.tags,
			category = COALESCE(EXCLUDED.category, articles.category),
			updated_at = NOW(),
			deleted_at = NULL
		RETURNING (xmax = 0) AS inserted
	`

	var published sql.NullTime
	if !a.PublishedAt.IsZero() {
		published = sql.NullTime{Time: a.PublishedAt, Valid: true}
	}

	var inserted bool
	err := r.db.QueryRowxContext(ctx, query,
		a.ID, a.URL, a.CanonicalURL, a.ContentHash, a.Title, a.Description, a.ImageURL, published,
		a.Source.ID, a.Source.Name, a.SourceWeight, a.Author, a.Category, pq.StringArray(a.Tags), a.APISource,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("save article %s: %w", a.ID, err)
	}
	return inserted, nil
}

// FindByID returns ErrArticleNotFound when no active article has id.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	a, err := r.findOne(ctx, `SELECT `+articleColumns+` FROM articles`+activeOnly+` AND id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	if a == nil {
		return nil, ErrArticleNotFound
	}
	return a, nil
}

// FindByURL returns the oldest active article with the canonical URL, or
// nil.
func (r *ArticleRepository) FindByURL(ctx context.Context, canonicalURL string) (*domain.Article, error) {
	a, err := r.findOne(ctx,
		`SELECT `+articleColumns+` FROM articles`+activeOnly+` AND canonical_url = $1 ORDER BY created_at LIMIT 1`,
		canonicalURL)
	if err != nil {
		return nil, fmt.Errorf("find article by url: %w", err)
	}
	return a, nil
}

// FindByContentHash returns the oldest active article with the hash, or nil.
func (r *ArticleRepository) FindByContentHash(ctx context.Context, hash string) (*domain.Article, error) {
	if hash == "" {
		return nil, nil
	}
	a, err := r.findOne(ctx,
		`SELECT `+articleColumns+` FROM articles`+activeOnly+` AND content_hash = $1 ORDER BY created_at LIMIT 1`,
		hash)
	if err != nil {
		return nil, fmt.Errorf("find article by content hash: %w", err)
	}
	return a, nil
}

func (r *ArticleRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Article, error) {
	var row articleRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a := row.toDomain()
	return &a, nil
}

// FindByTextSearch runs a Postgres full-text query over title and
// description, best matches first.
func (r *ArticleRepository) FindByTextSearch(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	q := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE deleted_at IS NULL
			AND to_tsvector('english', title || ' ' || description) @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(to_tsvector('english', title || ' ' || description), plainto_tsquery('english', $1)) DESC,
			published_at DESC NULLS LAST
		LIMIT $2
	`

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, q, query, limit); err != nil {
		return nil, fmt.Errorf("text search articles: %w", err)
	}
	return toDomain(rows), nil
}

// GroupActiveByURL returns every canonical URL shared by more than one
// active article, each group ordered oldest first.
func (r *ArticleRepository) GroupActiveByURL(ctx context.Context) ([][]domain.Article, error) {
	q := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE deleted_at IS NULL
			AND canonical_url IN (
				SELECT canonical_url FROM articles
				WHERE deleted_at IS NULL
				GROUP BY canonical_url
				HAVING COUNT(*) > 1
			)
		ORDER BY canonical_url, created_at, id
	`

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("group articles by url: %w", err)
	}

	var groups [][]domain.Article
	for i := range rows {
		a := rows[i].toDomain()
		last := len(groups) - 1
		if last >= 0 && groups[last][0].CanonicalURL == a.CanonicalURL {
			groups[last] = append(groups[last], a)
			continue
		}
		groups = append(groups, []domain.Article{a})
	}
	return groups, nil
}

// LoadRecent returns up to limit active articles, newest first.
func (r *ArticleRepository) LoadRecent(ctx context.Context, limit int) ([]domain.Article, error) {
	q := `SELECT ` + articleColumns + ` FROM articles` + activeOnly +
		` ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $1`

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("load recent articles: %w", err)
	}
	return toDomain(rows), nil
}

// BulkDelete soft-deletes the given ids and returns how many rows changed.
func (r *ArticleRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE articles SET deleted_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`,
		pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete articles: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete articles rows affected: %w", err)
	}
	return n, nil
}

// CountActive counts articles that are not deleted.
func (r *ArticleRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles`+activeOnly); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}
