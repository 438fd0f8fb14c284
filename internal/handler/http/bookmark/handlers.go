// Package bookmark serves bookmark toggles and the bookmarked list over HTTP.
package bookmark

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/article"
	"newsdesk/internal/handler/http/respond"
)

// Service is the subset of bookmark.Service used by the handlers.
type Service interface {
	Toggle(ctx context.Context, url string) bool
	IsBookmarked(ctx context.Context, url string) bool
	List(ctx context.Context) []entity.StoredArticle
}

// StatusDTO reports the bookmark flag of one article.
type StatusDTO struct {
	URL        string `json:"url"`
	Bookmarked bool   `json:"bookmarked"`
}

// Register mounts the bookmark routes on r.
func Register(r chi.Router, svc Service) {
	r.Get("/bookmarks", listHandler(svc))
	r.Post("/bookmarks/toggle", toggleHandler(svc))
	r.Get("/bookmarks/status", statusHandler(svc))
}

func listHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := svc.List(r.Context())
		respond.JSON(w, http.StatusOK, article.FromEntities(entity.Articles(records)))
	}
}

// toggleHandler flips the flag. Toggling an article that is not cached is a
// no-op and answers bookmarked=false.
func toggleHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := urlParam(w, r)
		if !ok {
			return
		}
		respond.JSON(w, http.StatusOK, StatusDTO{URL: url, Bookmarked: svc.Toggle(r.Context(), url)})
	}
}

func statusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, ok := urlParam(w, r)
		if !ok {
			return
		}
		respond.JSON(w, http.StatusOK, StatusDTO{URL: url, Bookmarked: svc.IsBookmarked(r.Context(), url)})
	}
}

func urlParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		respond.SafeError(w, http.StatusBadRequest, &entity.ValidationError{Field: "url", Message: "url is required"})
		return "", false
	}
	return url, true
}
