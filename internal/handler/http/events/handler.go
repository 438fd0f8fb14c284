// Package events streams coordinator notifications to HTTP clients as server-sent events.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/article"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/usecase/event"
)

// Subscriber registers observers; *event.Hub satisfies it.
type Subscriber interface {
	Subscribe(o event.Observer) (unsubscribe func())
}

// Handler serves GET /events.
type Handler struct {
	Hub Subscriber
	// Buffer is the per-client event buffer; see event.NewStream.
	Buffer int
	// Heartbeat is the interval of keep-alive comments. Zero disables them.
	Heartbeat time.Duration
}

type loadFailedPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type loadingPayload struct {
	Loading bool `json:"loading"`
}

type articlesPayload struct {
	Articles []article.DTO `json:"articles"`
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	rc := http.NewResponseController(w)

	// サーバーのWriteTimeoutでストリームが切れないようにする
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("event stream: write deadline not supported", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Error("event stream: flushing not supported", slog.Any("error", err))
		return
	}

	stream := event.NewStream(h.Buffer)
	unsubscribe := h.Hub.Subscribe(stream)
	defer stream.Close()
	defer unsubscribe()

	metrics.EventStreamsActive.Inc()
	defer metrics.EventStreamsActive.Dec()

	var heartbeat <-chan time.Time
	if h.Heartbeat > 0 {
		t := time.NewTicker(h.Heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := write(w, e); err != nil {
				logger.Debug("event stream closed", slog.Any("error", err))
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// write renders one event as "event: <kind>\ndata: <json>\n\n".
func write(w http.ResponseWriter, e event.Event) error {
	var payload any
	switch e.Kind {
	case event.KindArticlesUpdated:
		payload = articlesPayload{Articles: article.FromEntities(e.Articles)}
	case event.KindLoadFailed:
		payload = loadFailedPayload{Kind: entity.KindName(e.Err), Message: entity.Describe(e.Err)}
	case event.KindLoadingChanged:
		payload = loadingPayload{Loading: e.Loading}
	default:
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
	return err
}
