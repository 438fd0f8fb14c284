// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/repository"
)

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

const selectColumns = `title, author, image_url, published_at, content, url, source_name, bookmarked`

// orderBy compares published_at byte-wise so the order matches plain ISO-8601 text order
// regardless of the database collation.
const orderBy = `ORDER BY published_at COLLATE "C" DESC, id ASC`

func (repo *ArticleRepo) UpsertArticles(ctx context.Context, articles []entity.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	const query = `
INSERT INTO articles
(title, author, image_url, published_at, content, url, source_name, bookmarked)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
ON CONFLICT (url) DO NOTHING`

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("UpsertArticles: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, a := range entity.DedupeByURL(articles) {
		if err := entity.ValidateArticle(a); err != nil {
			slog.Warn("skipping invalid article", slog.String("url", a.URL), slog.Any("error", err))
			continue
		}
		res, err := tx.ExecContext(ctx, query,
			a.Title, nullable(a.Author), nullable(a.ImageURL), a.PublishedAt,
			nullable(a.Content), a.URL, a.SourceName,
		)
		if err != nil {
			return 0, fmt.Errorf("UpsertArticles: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("UpsertArticles: RowsAffected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("UpsertArticles: Commit: %w", err)
	}
	return inserted, nil
}

func (repo *ArticleRepo) ListCached(ctx context.Context) ([]entity.StoredArticle, error) {
	query := `
SELECT ` + selectColumns + `
FROM articles
` + orderBy
	out, err := repo.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListCached: %w", err)
	}
	return out, nil
}

func (repo *ArticleRepo) ListBookmarked(ctx context.Context) ([]entity.StoredArticle, error) {
	query := `
SELECT ` + selectColumns + `
FROM articles
WHERE bookmarked = TRUE
` + orderBy
	out, err := repo.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListBookmarked: %w", err)
	}
	return out, nil
}

func (repo *ArticleRepo) ToggleBookmark(ctx context.Context, url string) (bool, bool, error) {
	const query = `UPDATE articles SET bookmarked = NOT bookmarked WHERE url = $1 RETURNING bookmarked`
	var bookmarked bool
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&bookmarked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("ToggleBookmark: %w", err)
	}
	return bookmarked, true, nil
}

func (repo *ArticleRepo) IsBookmarked(ctx context.Context, url string) (bool, error) {
	const query = `SELECT bookmarked FROM articles WHERE url = $1 LIMIT 1`
	var bookmarked bool
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&bookmarked)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsBookmarked: %w", err)
	}
	return bookmarked, nil
}

func (repo *ArticleRepo) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountArticles: %w", err)
	}
	return count, nil
}

func (repo *ArticleRepo) query(ctx context.Context, query string, args ...any) ([]entity.StoredArticle, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]entity.StoredArticle, 0, 64)
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("Scan: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (*entity.StoredArticle, error) {
	var rec entity.StoredArticle
	var author, image, content sql.NullString
	if err := s.Scan(&rec.Title, &author, &image, &rec.PublishedAt,
		&content, &rec.URL, &rec.SourceName, &rec.Bookmarked); err != nil {
		return nil, err
	}
	rec.Author, rec.ImageURL, rec.Content = author.String, image.String, content.String
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
