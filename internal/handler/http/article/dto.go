// Package article serves the active article set over HTTP.
package article

import (
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/usecase/feed"
)

// DTO is the JSON form of an article. Field names follow the NewsAPI article shape.
type DTO struct {
	Title       string `json:"title" example:"Go 1.30 released"`
	Author      string `json:"author,omitempty" example:"Jane Roe"`
	URLToImage  string `json:"urlToImage,omitempty" example:"https://example.com/img.png"`
	PublishedAt string `json:"publishedAt" example:"2025-01-02T00:00:00Z"`
	Content     string `json:"content,omitempty"`
	URL         string `json:"url" example:"https://example.com/article/1"`
	SourceName  string `json:"sourceName" example:"Example Wire"`
}

// ErrorDTO describes the last remote failure.
type ErrorDTO struct {
	Kind    string `json:"kind" example:"no_connection"`
	Message string `json:"message" example:"No internet connection."`
}

// ViewDTO is the coordinator snapshot returned by every article endpoint.
// Articles holds the filtered set; Total counts the unfiltered set.
type ViewDTO struct {
	State    string    `json:"state" example:"ready"`
	Loading  bool      `json:"loading"`
	Filter   string    `json:"filter"`
	Total    int       `json:"total"`
	Articles []DTO     `json:"articles"`
	Error    *ErrorDTO `json:"error,omitempty"`
}

// FromEntity converts a domain article.
func FromEntity(a entity.Article) DTO {
	return DTO{
		Title:       a.Title,
		Author:      a.Author,
		URLToImage:  a.ImageURL,
		PublishedAt: a.PublishedAt,
		Content:     a.Content,
		URL:         a.URL,
		SourceName:  a.SourceName,
	}
}

// FromEntities converts a slice; the result is never nil.
func FromEntities(articles []entity.Article) []DTO {
	out := make([]DTO, 0, len(articles))
	for _, a := range articles {
		out = append(out, FromEntity(a))
	}
	return out
}

// FromView converts a coordinator snapshot.
func FromView(v feed.View) ViewDTO {
	dto := ViewDTO{
		State:    v.State.String(),
		Loading:  v.Loading,
		Filter:   v.Filter,
		Total:    len(v.Articles),
		Articles: FromEntities(v.Filtered),
	}
	if v.LastError != nil {
		dto.Error = &ErrorDTO{Kind: entity.KindName(v.LastError), Message: entity.Describe(v.LastError)}
	}
	return dto
}
