package newsapi

import (
	"encoding/json"
	"fmt"

	"newsdesk/internal/domain/entity"
)

// envelope is the article-list response of /top-headlines and /everything.
// Pointer fields distinguish "missing or null" from zero values.
type envelope struct {
	Status       *string       `json:"status"`
	TotalResults *int          `json:"totalResults"`
	Articles     *[]articleDTO `json:"articles"`
}

type articleDTO struct {
	Title       *string    `json:"title"`
	Author      *string    `json:"author"`
	URLToImage  *string    `json:"urlToImage"`
	PublishedAt *string    `json:"publishedAt"`
	Content     *string    `json:"content"`
	URL         *string    `json:"url"`
	Source      *sourceDTO `json:"source"`
}

type sourceDTO struct {
	Name *string `json:"name"`
}

// errorBody is the shape of non-2xx responses.
type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeArticles parses an envelope. status and totalResults must be present
// but are not compared with the article list.
func decodeArticles(body []byte) ([]entity.Article, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	switch {
	case env.Status == nil:
		return nil, fmt.Errorf("missing field %q", "status")
	case env.TotalResults == nil:
		return nil, fmt.Errorf("missing field %q", "totalResults")
	case env.Articles == nil:
		return nil, fmt.Errorf("missing field %q", "articles")
	}

	out := make([]entity.Article, 0, len(*env.Articles))
	for i, dto := range *env.Articles {
		a, err := dto.toEntity()
		if err != nil {
			return nil, fmt.Errorf("articles[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (d articleDTO) toEntity() (entity.Article, error) {
	switch {
	case d.Title == nil:
		return entity.Article{}, fmt.Errorf("missing field %q", "title")
	case d.PublishedAt == nil:
		return entity.Article{}, fmt.Errorf("missing field %q", "publishedAt")
	case d.URL == nil:
		return entity.Article{}, fmt.Errorf("missing field %q", "url")
	case d.Source == nil || d.Source.Name == nil:
		return entity.Article{}, fmt.Errorf("missing field %q", "source.name")
	}
	return entity.Article{
		Title:       *d.Title,
		Author:      deref(d.Author),
		ImageURL:    deref(d.URLToImage),
		PublishedAt: *d.PublishedAt,
		Content:     deref(d.Content),
		URL:         *d.URL,
		SourceName:  *d.Source.Name,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
