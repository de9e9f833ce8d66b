// Package api provides the HTTP read API over the stored documents.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
	"github.com/vazco/EthereumBridgeBackend/pkg/votes"
)

// Server represents the HTTP API server.
type Server struct {
	addr   string
	tls    config.TLSConfig
	tokens store.Tokens
	votes  *votes.Service
	cache  *Cache
	router chi.Router
	server *http.Server
	logger *logging.Logger
}

// NewServer creates a new HTTP API server.
func NewServer(cfg config.HTTPConfig, tokens store.Tokens, voteService *votes.Service, cache *Cache, logger *logging.Logger) *Server {
	s := &Server{
		addr:   cfg.Addr,
		tls:    cfg.TLS,
		tokens: tokens,
		votes:  voteService,
		cache:  cache,
		logger: logger.With("component", "api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/tokens", s.handleTokens)
	r.Get("/tokens/{token}", s.handleToken)
	r.Get("/secret-tokens", s.handleSecretTokens)
	r.Get("/votes", s.handleVotes)
	r.Post("/votes/{voteAddr}", s.handleNewVote)
	r.Post("/votes/{voteAddr}/finalize", s.handleFinalizeVote)
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr, "tls", s.tls.Enabled)

	var err error
	if s.tls.Enabled {
		err = s.server.ListenAndServeTLS(s.tls.Cert, s.tls.Key)
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// observe records request metrics labelled with the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(status), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	s.serveCollection(w, r, "pairs", store.TokenPairingCollection)
}

func (s *Server) handleSecretTokens(w http.ResponseWriter, r *http.Request) {
	s.serveCollection(w, r, "secret_tokens", store.SecretTokensCollection)
}

func (s *Server) serveCollection(w http.ResponseWriter, r *http.Request, key, collection string) {
	body, err := s.cache.Get(r.Context(), key, func(ctx context.Context) ([]byte, error) {
		tokens, err := s.tokens.FindTokens(ctx, collection, 0)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{"tokens": tokens})
	})
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendBody(w, body)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))

	body, err := s.cache.Get(r.Context(), "token:"+token, func(ctx context.Context) ([]byte, error) {
		docs, err := s.tokens.FindTokensBy(ctx, store.TokenPairingCollection, "src_coin", token)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, store.ErrNotFound
		}
		return json.Marshal(map[string]interface{}{"token": docs})
	})
	if errors.Is(err, store.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not found"))
		return
	}
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendBody(w, body)
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.votes.List(r.Context())
	if err != nil {
		s.logger.Error("Failed to list votes", "error", err)
		s.sendJSON(w, http.StatusBadRequest, voteResult{Result: "failed"})
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]interface{}{"result": list})
}

type voteResult struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleNewVote(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "voteAddr")

	err := s.votes.NewVote(r.Context(), addr)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, votes.ErrContractQuery):
		s.sendJSON(w, http.StatusBadRequest, voteResult{
			Result: "Error querying voting contract " + addr,
			Error:  err.Error(),
		})
	case errors.Is(err, votes.ErrVoteExists):
		s.sendJSON(w, http.StatusBadRequest, voteResult{
			Result: fmt.Sprintf("Voting contract %s already exists", addr),
		})
	default:
		s.logger.Error("Failed to add vote", "address", addr, "error", err)
		s.sendJSON(w, http.StatusBadRequest, voteResult{
			Result: "Unable to add voting contract " + addr,
			Error:  err.Error(),
		})
	}
}

func (s *Server) handleFinalizeVote(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "voteAddr")

	_, err := s.votes.FinalizeVote(r.Context(), addr)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, votes.ErrNotFinalized):
		s.sendJSON(w, http.StatusOK, voteResult{
			Result: fmt.Sprintf("Vote %s has not been finalized yet", addr),
		})
	case errors.Is(err, votes.ErrContractQuery):
		s.sendJSON(w, http.StatusBadRequest, voteResult{
			Result: "Error querying voting contract " + addr,
			Error:  err.Error(),
		})
	default:
		s.logger.Error("Failed to finalize vote", "address", addr, "error", err)
		s.sendJSON(w, http.StatusBadRequest, voteResult{
			Result: "Could not update vote " + addr,
			Error:  err.Error(),
		})
	}
}

// sendBody writes an already encoded JSON body.
func (s *Server) sendBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, err error) {
	s.logger.Error("Request failed", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte("Error: " + err.Error()))
}
