package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
	"github.com/Sternrassler/steam-inventory-client/pkg/inventory"
	"github.com/Sternrassler/steam-inventory-client/pkg/metrics"
	"github.com/Sternrassler/steam-inventory-client/pkg/pagination"
	"github.com/Sternrassler/steam-inventory-client/pkg/provider"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxBatchRequests bounds one POST /inventory/batch body.
const maxBatchRequests = 100

// KeyLookup returns the fallback API key for a provider.
type KeyLookup func(provider.Kind) string

type server struct {
	service *inventory.Service
	batch   *inventory.BatchFetcher
	redis   *redis.Client
	keys    KeyLookup
	logger  zerolog.Logger
}

func newServer(service *inventory.Service, redisClient *redis.Client, keys KeyLookup, logger zerolog.Logger) *server {
	if keys == nil {
		keys = func(provider.Kind) string { return "" }
	}
	return &server{
		service: service,
		batch:   inventory.NewBatchFetcher(service, inventory.DefaultBatchConcurrency),
		redis:   redisClient,
		keys:    keys,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func (s *server) routes(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(s.redis))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/inventory", func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		r.Get("/{provider}/{steamid}/{appid}/{contextid}", s.handleInventory)
		r.Post("/batch", s.handleBatch)
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("size", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

// inventoryResponse is the JSON body of a successful fetch.
type inventoryResponse struct {
	Items               []econ.Item `json:"items"`
	Currency            []econ.Item `json:"currency"`
	TotalInventoryCount int         `json:"total_inventory_count"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *server) handleInventory(w http.ResponseWriter, r *http.Request) {
	kind, err := provider.ParseKind(chi.URLParam(r, "provider"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	appID, err := strconv.ParseUint(chi.URLParam(r, "appid"), 10, 32)
	if err != nil {
		s.writeError(w, r, &provider.Error{Kind: provider.ErrorKindInvalidInput, Provider: kind, Message: "invalid appid"})
		return
	}

	q := r.URL.Query()
	tradableOnly := false
	if v := q.Get("tradable_only"); v != "" {
		tradableOnly, err = strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, &provider.Error{Kind: provider.ErrorKindInvalidInput, Provider: kind, Message: "invalid tradable_only"})
			return
		}
	}

	req := inventory.Request{
		Provider:     kind,
		APIKey:       s.apiKey(kind, q.Get("key")),
		Target:       chi.URLParam(r, "steamid"),
		AppID:        uint32(appID),
		ContextID:    chi.URLParam(r, "contextid"),
		TradableOnly: tradableOnly,
		Language:     q.Get("l"),
	}

	res, err := s.service.Fetch(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newInventoryResponse(res))
}

type batchRequest struct {
	Requests []batchItem `json:"requests"`
}

type batchItem struct {
	Provider     provider.Kind `json:"provider"`
	SteamID      string        `json:"steamid"`
	AppID        uint32        `json:"appid"`
	ContextID    string        `json:"contextid"`
	Key          string        `json:"key,omitempty"`
	TradableOnly bool          `json:"tradable_only,omitempty"`
	Language     string        `json:"l,omitempty"`
}

type batchResult struct {
	SteamID string `json:"steamid"`
	*inventoryResponse
	Error *errorResponse `json:"error,omitempty"`
}

func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		s.writeError(w, r, &provider.Error{Kind: provider.ErrorKindInvalidInput, Message: "invalid batch body", Err: err})
		return
	}
	if n := len(body.Requests); n == 0 || n > maxBatchRequests {
		s.writeError(w, r, &provider.Error{
			Kind:    provider.ErrorKindInvalidInput,
			Message: fmt.Sprintf("batch must hold 1 to %d requests, got %d", maxBatchRequests, n),
		})
		return
	}

	reqs := make([]inventory.Request, len(body.Requests))
	for i, item := range body.Requests {
		reqs[i] = inventory.Request{
			Provider:     item.Provider,
			APIKey:       s.apiKey(item.Provider, item.Key),
			Target:       item.SteamID,
			AppID:        item.AppID,
			ContextID:    item.ContextID,
			TradableOnly: item.TradableOnly,
			Language:     item.Language,
		}
	}

	results := s.batch.FetchAll(r.Context(), reqs)

	out := make([]batchResult, len(results))
	for i, res := range results {
		out[i].SteamID = body.Requests[i].SteamID
		if res.Err != nil {
			_, kind := statusFor(res.Err)
			out[i].Error = &errorResponse{Error: res.Err.Error(), Kind: kind}
			continue
		}
		out[i].inventoryResponse = newInventoryResponse(res.Result)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *server) apiKey(kind provider.Kind, fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return s.keys(kind)
}

func newInventoryResponse(res *inventory.Result) *inventoryResponse {
	out := &inventoryResponse{
		Items:               res.Inventory,
		Currency:            res.Currency,
		TotalInventoryCount: res.TotalInventoryCount,
	}
	if out.Items == nil {
		out.Items = []econ.Item{}
	}
	if out.Currency == nil {
		out.Currency = []econ.Item{}
	}
	return out
}

// statusFor maps a fetch error to an HTTP status and error kind label.
func statusFor(err error) (int, string) {
	var perr *provider.Error
	kind := ""
	if errors.As(err, &perr) {
		kind = string(perr.Kind)
	}

	switch {
	case errors.Is(err, provider.ErrInvalidInput):
		return http.StatusBadRequest, kind
	case errors.Is(err, provider.ErrPrivateProfile):
		return http.StatusForbidden, kind
	case errors.Is(err, provider.ErrInvalidCredential):
		return http.StatusUnauthorized, kind
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, pagination.ErrRetryExhausted):
		return http.StatusBadGateway, "retry_exhausted"
	}
	return http.StatusBadGateway, kind
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)

	event := s.logger.Warn()
	if status >= 500 {
		event = s.logger.Error()
	}
	event.
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("status", status).
		Str("kind", kind).
		Msg("Inventory request failed")

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
