package fixtures_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
	"newsdesk/tests/fixtures"
)

func TestArticles_ValidAndNewestFirst(t *testing.T) {
	articles := fixtures.Articles(5)
	require.Len(t, articles, 5)

	for i, a := range articles {
		assert.NoError(t, entity.ValidateArticle(a), "article %d", i)
		if i > 0 {
			assert.Greater(t, articles[i-1].PublishedAt, a.PublishedAt)
		}
	}
	assert.Equal(t, "Jane Roe", articles[0].Author)
	assert.Empty(t, articles[1].Author)
}

func TestNewsAPIBody_NullOptionals(t *testing.T) {
	body := fixtures.NewsAPIBody(fixtures.Article(1))

	var raw struct {
		Status       string           `json:"status"`
		TotalResults int              `json:"totalResults"`
		Articles     []map[string]any `json:"articles"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	assert.Equal(t, "ok", raw.Status)
	assert.Equal(t, 101, raw.TotalResults)
	require.Len(t, raw.Articles, 1)

	// 空の任意項目はnullとして送られる
	for _, key := range []string{"author", "urlToImage", "content"} {
		v, ok := raw.Articles[0][key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
}

func TestRSSFeed(t *testing.T) {
	feed := fixtures.RSSFeed("Wire", fixtures.Article(0))

	assert.True(t, strings.HasPrefix(feed, "<?xml"))
	assert.Contains(t, feed, "<title>Article 0</title>")
	assert.Contains(t, feed, "<dc:creator>Jane Roe</dc:creator>")
	assert.Contains(t, feed, "<pubDate>Fri, 10 Jan 2025 09:00:00 +0000</pubDate>")
}
