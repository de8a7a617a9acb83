package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hatchways-assessment/posts-api/pkg/posts"
)

const (
	// WelcomeMessage is the body served on /.
	WelcomeMessage = "Welcome to our homepage!"

	// PingMessage is the message served on /api/ping.
	PingMessage = "Your ping succeeded. Status code 200 was sent!"

	msgUpstreamFailed = "upstream request failed"
)

// Aggregator runs a validated posts query.
type Aggregator interface {
	Aggregate(ctx context.Context, q posts.Query) ([]posts.Post, error)
}

// PingResponse is the body of /api/ping.
type PingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handlers serves the public endpoints.
type Handlers struct {
	aggregator Aggregator
	logger     zerolog.Logger
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(aggregator Aggregator, logger zerolog.Logger) *Handlers {
	return &Handlers{
		aggregator: aggregator,
		logger:     logger,
	}
}

// Home serves the welcome text.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(WelcomeMessage))
}

// Ping reports that the service is reachable.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{
		Success: true,
		Message: PingMessage,
	})
}

// Posts validates the query, runs the aggregation and returns {"posts": [...]}.
func (h *Handlers) Posts(w http.ResponseWriter, r *http.Request) {
	q, err := posts.ParseQuery(r.URL.Query())
	if err != nil {
		var validationErr *posts.ValidationError
		if errors.As(err, &validationErr) {
			writeError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.aggregator.Aggregate(r.Context(), q)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Strs("tags", q.Tags).
			Msg("Posts aggregation failed")
		writeError(w, http.StatusBadGateway, msgUpstreamFailed)
		return
	}

	writeJSON(w, http.StatusOK, posts.Response{Posts: result})
}

// Health is a liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
