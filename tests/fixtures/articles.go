// Package fixtures provides reusable article data for tests across packages.
// Remote payloads are generated from the same entity values the tests assert on,
// so a fixture change cannot drift away from its expectations.
package fixtures

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"time"

	"newsdesk/internal/domain/entity"
)

// BaseTime is the publication time of Article(0). Later indices are older.
var BaseTime = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

// Article returns a deterministic article. Index i is published i hours before BaseTime.
func Article(i int) entity.Article {
	a := entity.Article{
		Title:       fmt.Sprintf("Article %d", i),
		PublishedAt: BaseTime.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		URL:         fmt.Sprintf("https://news.example/%d", i),
		SourceName:  "Wire",
	}
	// 偶数番だけ任意項目を埋める
	if i%2 == 0 {
		a.Author = "Jane Roe"
		a.ImageURL = fmt.Sprintf("https://news.example/%d.png", i)
		a.Content = fmt.Sprintf("Body of article %d", i)
	}
	return a
}

// Articles returns n articles, newest first.
func Articles(n int) []entity.Article {
	out := make([]entity.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Article(i))
	}
	return out
}

type newsAPISource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type newsAPIArticle struct {
	Source      newsAPISource `json:"source"`
	Author      *string       `json:"author"`
	Title       string        `json:"title"`
	URLToImage  *string       `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
	Content     *string       `json:"content"`
	URL         string        `json:"url"`
}

// NewsAPIBody renders a successful top-headlines/everything response.
// Empty optional fields are encoded as null, the way the service sends them.
// totalResults deliberately differs from the array length.
func NewsAPIBody(articles ...entity.Article) string {
	items := make([]newsAPIArticle, 0, len(articles))
	for _, a := range articles {
		items = append(items, newsAPIArticle{
			Source:      newsAPISource{Name: a.SourceName},
			Author:      nullable(a.Author),
			Title:       a.Title,
			URLToImage:  nullable(a.ImageURL),
			PublishedAt: a.PublishedAt,
			Content:     nullable(a.Content),
			URL:         a.URL,
		})
	}
	body, err := json.Marshal(map[string]any{
		"status":       "ok",
		"totalResults": len(items) + 100,
		"articles":     items,
	})
	if err != nil {
		panic(err)
	}
	return string(body)
}

// NewsAPIError renders an error response body.
func NewsAPIError(code, message string) string {
	body, err := json.Marshal(map[string]string{
		"status":  "error",
		"code":    code,
		"message": message,
	})
	if err != nil {
		panic(err)
	}
	return string(body)
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
	Creator     string `xml:"dc:creator,omitempty"`
	PubDate     string `xml:"pubDate"`
}

type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

// RSSFeed renders an RSS 2.0 document titled source.
func RSSFeed(source string, articles ...entity.Article) string {
	doc := rssDoc{Version: "2.0", DC: "http://purl.org/dc/elements/1.1/"}
	doc.Channel.Title = source
	for _, a := range articles {
		pub := a.PublishedAt
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			pub = t.Format(time.RFC1123Z)
		}
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Content,
			Creator:     a.Author,
			PubDate:     pub,
		})
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(err)
	}
	return xml.Header + string(body)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
