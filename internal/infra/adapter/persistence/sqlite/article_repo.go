// Package sqlite provides SQLite implementations of repository interfaces.
// It is the default local store for offline reading.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/repository"
)

// ArticleRepo implements the ArticleRepository interface using SQLite.
type ArticleRepo struct{ db *sql.DB }

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

const selectColumns = `title, author, image_url, published_at, content, url, source_name, bookmarked`

// UpsertArticles inserts new articles in a single transaction.
// Rows that already exist (same url) are left untouched.
func (repo *ArticleRepo) UpsertArticles(ctx context.Context, articles []entity.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	const query = `
INSERT INTO articles
(title, author, image_url, published_at, content, url, source_name, bookmarked)
VALUES (?, ?, ?, ?, ?, ?, ?, 0)
ON CONFLICT(url) DO NOTHING
`
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
			return 0, fmt.Errorf("UpsertArticles: ExecContext: %w", err)
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

// ListCached retrieves all cached articles ordered by published date (newest first).
func (repo *ArticleRepo) ListCached(ctx context.Context) ([]entity.StoredArticle, error) {
	const query = `
SELECT ` + selectColumns + `
FROM articles
ORDER BY published_at DESC, id ASC
`
	out, err := repo.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListCached: %w", err)
	}
	return out, nil
}

// ListBookmarked retrieves bookmarked articles ordered by published date (newest first).
func (repo *ArticleRepo) ListBookmarked(ctx context.Context) ([]entity.StoredArticle, error) {
	const query = `
SELECT ` + selectColumns + `
FROM articles
WHERE bookmarked = 1
ORDER BY published_at DESC, id ASC
`
	out, err := repo.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListBookmarked: %w", err)
	}
	return out, nil
}

func (repo *ArticleRepo) ToggleBookmark(ctx context.Context, url string) (bool, bool, error) {
	// 単一のUPDATE文で反転して結果を返すため、同一URLへの並行書き込みでもフラグが失われない
	const query = `UPDATE articles SET bookmarked = NOT bookmarked WHERE url = ? RETURNING bookmarked`
	var bookmarked bool
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&bookmarked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("ToggleBookmark: QueryRowContext: %w", err)
	}
	return bookmarked, true, nil
}

func (repo *ArticleRepo) IsBookmarked(ctx context.Context, url string) (bool, error) {
	const query = `SELECT bookmarked FROM articles WHERE url = ? LIMIT 1`
	var bookmarked bool
	err := repo.db.QueryRowContext(ctx, query, url).Scan(&bookmarked)
	if err == sql.ErrNoRows {
		return false, nil // 存在しない記事はブックマークされていない
	}
	if err != nil {
		return false, fmt.Errorf("IsBookmarked: %w", err)
	}
	return bookmarked, nil
}

// CountArticles returns the total number of cached articles.
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
		return nil, fmt.Errorf("QueryContext: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*entity.StoredArticle, error) {
	var (
		rec                    entity.StoredArticle
		author, image, content sql.NullString
	)
	err := s.Scan(&rec.Title, &author, &image, &rec.PublishedAt,
		&content, &rec.URL, &rec.SourceName, &rec.Bookmarked)
	if err != nil {
		return nil, err
	}
	rec.Author = author.String
	rec.ImageURL = image.String
	rec.Content = content.String
	return &rec, nil
}

// nullable stores optional text as NULL when empty.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
