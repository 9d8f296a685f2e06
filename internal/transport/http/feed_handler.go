package http

import (
	"net/http"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FeedHandler streams freshly submitted attempts of one test to admin
// dashboards over a websocket.
type FeedHandler struct {
	catalog  *app.CatalogService
	feed     *app.AttemptFeed
	upgrader websocket.Upgrader
}

func NewFeedHandler(catalog *app.CatalogService, feed *app.AttemptFeed) *FeedHandler {
	return &FeedHandler{
		catalog: catalog,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	TestID string `json:"testId"`
	Title  string `json:"title"`
}

const feedWriteTimeout = 10 * time.Second

func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	testID := chi.URLParam(r, "testID")
	test, err := h.catalog.Get(r.Context(), testID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("testID", testID).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe(testID)
	defer cancel()

	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	if err := conn.WriteJSON(outboundMessage[subscribedPayload]{
		Type:    "subscribed",
		Payload: subscribedPayload{TestID: test.ID, Title: test.Title},
	}); err != nil {
		return
	}

	// single writer; the read loop below only watches for the client leaving
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for summary := range updates {
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(outboundMessage[domain.AttemptSummary]{Type: "attempt", Payload: summary}); err != nil {
				log.Debug().Err(err).Str("testID", testID).Msg("ws write error")
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-writerDone
}
