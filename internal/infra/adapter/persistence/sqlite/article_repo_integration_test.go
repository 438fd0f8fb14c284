package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/adapter/persistence/sqlite"
	"newsdesk/internal/infra/db"
	"newsdesk/internal/repository"
)

func newRepo(t *testing.T) repository.ArticleRepository {
	t.Helper()

	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	return sqlite.NewArticleRepo(conn)
}

func TestStore_UpsertIsInsertOnly(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first := entity.Article{Title: "Original", PublishedAt: "2024-01-01T00:00:00Z", URL: "u", SourceName: "S"}
	n, err := repo.UpsertArticles(ctx, []entity.Article{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	flag, found, err := repo.ToggleBookmark(ctx, "u")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, flag)

	// 同じURLで内容を変えても既存行は更新されない
	changed := first
	changed.Title = "Changed"
	n, err = repo.UpsertArticles(ctx, []entity.Article{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.ListCached(ctx)
	require.NoError(t, err)
	want := []entity.StoredArticle{{Article: first, Bookmarked: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListCached mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_OrderAndBookmarkSubset(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.UpsertArticles(ctx, []entity.Article{
		{Title: "mid", PublishedAt: "2024-02-01T00:00:00Z", URL: "u2", SourceName: "S"},
		{Title: "old", PublishedAt: "2024-01-01T00:00:00Z", URL: "u1", SourceName: "S"},
		{Title: "new", PublishedAt: "2024-03-01T00:00:00Z", URL: "u3", SourceName: "S"},
	})
	require.NoError(t, err)

	cached, err := repo.ListCached(ctx)
	require.NoError(t, err)
	var urls []string
	for _, c := range cached {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{"u3", "u2", "u1"}, urls)

	_, _, err = repo.ToggleBookmark(ctx, "u1")
	require.NoError(t, err)
	_, _, err = repo.ToggleBookmark(ctx, "u3")
	require.NoError(t, err)

	marked, err := repo.ListBookmarked(ctx)
	require.NoError(t, err)
	require.Len(t, marked, 2)
	assert.Equal(t, "u3", marked[0].URL)
	assert.Equal(t, "u1", marked[1].URL)

	cachedAfter, err := repo.ListCached(ctx)
	require.NoError(t, err)
	for _, c := range cachedAfter {
		ok, err := repo.IsBookmarked(ctx, c.URL)
		require.NoError(t, err)
		assert.Equal(t, c.Bookmarked, ok, c.URL)
	}
}

func TestStore_ToggleInvolution(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.UpsertArticles(ctx, []entity.Article{{Title: "t", PublishedAt: "2024", URL: "u", SourceName: "S"}})
	require.NoError(t, err)

	for i, want := range []bool{true, false} {
		flag, found, err := repo.ToggleBookmark(ctx, "u")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want, flag, "returned flag, toggle #%d", i+1)
		got, err := repo.IsBookmarked(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, want, got, "toggle #%d", i+1)
	}

	flag, found, err := repo.ToggleBookmark(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, flag)
	n, err := repo.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_ConcurrentUpsertAndToggle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a := entity.Article{Title: "t", PublishedAt: "2024", URL: "u", SourceName: "S"}
	_, err := repo.UpsertArticles(ctx, []entity.Article{a})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = repo.UpsertArticles(ctx, []entity.Article{a, {Title: "x", PublishedAt: "2023", URL: fmt.Sprintf("o%d", i), SourceName: "S"}})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = repo.ToggleBookmark(ctx, "u")
		}()
	}
	wg.Wait()

	// 偶数回のトグルなのでフラグは元に戻る
	ok, err := repo.IsBookmarked(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.ListCached(ctx)
	require.NoError(t, err)
	require.Len(t, got, 21)
	assert.Equal(t, a, got[0].Article)
}

// 並行トグルでも各呼び出しが返すフラグは自分の書き込み結果で、true と false が同数になる
func TestStore_ConcurrentTogglesReturnOwnWrite(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.UpsertArticles(ctx, []entity.Article{{Title: "t", PublishedAt: "2024", URL: "u", SourceName: "S"}})
	require.NoError(t, err)

	const n = 40
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flag, found, err := repo.ToggleBookmark(ctx, "u")
			assert.NoError(t, err)
			assert.True(t, found)
			results <- flag
		}()
	}
	wg.Wait()
	close(results)

	var on int
	for flag := range results {
		if flag {
			on++
		}
	}
	assert.Equal(t, n/2, on)
}
