package article

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/usecase/feed"
)

const maxQueryLength = 500

// Coordinator is the subset of feed.Coordinator used by the handlers.
type Coordinator interface {
	Load(ctx context.Context) (feed.View, error)
	Search(ctx context.Context, query string) (feed.View, error)
	Filter(text string) []entity.Article
	View() feed.View
}

// Register mounts the article routes on r.
func Register(r chi.Router, c Coordinator) {
	r.Get("/articles", ListHandler{c}.ServeHTTP)
	r.Post("/articles/load", LoadHandler{c}.ServeHTTP)
	r.Get("/articles/search", SearchHandler{c}.ServeHTTP)
	r.Get("/articles/filter", FilterHandler{c}.ServeHTTP)
}

type ListHandler struct{ Coord Coordinator }

// ServeHTTP 現在の記事セットを返す
// @Summary  Current article set
// @Tags     articles
// @Produce  json
// @Success  200 {object} ViewDTO
// @Router   /articles [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, FromView(h.Coord.View()))
}

type LoadHandler struct{ Coord Coordinator }

// ServeHTTP fetches top headlines. A failed fetch still answers 200 because the
// cached fallback set is a valid result; the failure is reported in the error field.
//
// @Summary  Load top headlines
// @Tags     articles
// @Produce  json
// @Success  200 {object} ViewDTO
// @Router   /articles/load [post]
func (h LoadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v, err := h.Coord.Load(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("load served from cache",
			slog.String("state", v.State.String()),
			slog.String("kind", entity.KindName(err)))
	}
	respond.JSON(w, http.StatusOK, FromView(v))
}

type SearchHandler struct{ Coord Coordinator }

// ServeHTTP 記事検索（結果はキャッシュされない）
// @Summary  Search articles
// @Tags     articles
// @Produce  json
// @Param    q  query  string  false  "search text"
// @Success  200 {object} ViewDTO
// @Failure  502 {object} respond.ErrorBody
// @Failure  503 {object} respond.ErrorBody
// @Router   /articles/search [get]
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) > maxQueryLength {
		respond.SafeError(w, http.StatusBadRequest, errQueryTooLong)
		return
	}
	v, err := h.Coord.Search(r.Context(), q)
	if err != nil {
		respond.SourceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, FromView(v))
}

type FilterHandler struct{ Coord Coordinator }

// ServeHTTP sets the active title filter. It never touches the network.
//
// @Summary  Filter the current set by title
// @Tags     articles
// @Produce  json
// @Param    q  query  string  false  "case-insensitive title substring"
// @Success  200 {object} ViewDTO
// @Router   /articles/filter [get]
func (h FilterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) > maxQueryLength {
		respond.SafeError(w, http.StatusBadRequest, errQueryTooLong)
		return
	}
	h.Coord.Filter(q)
	respond.JSON(w, http.StatusOK, FromView(h.Coord.View()))
}

var errQueryTooLong = &entity.ValidationError{Field: "q", Message: "query too long"}
