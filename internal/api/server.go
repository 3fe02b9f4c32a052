package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/plutodigital/curve-subgraph/internal/database"
)

// StatusProvider reports the sync progress shown on /status.
type StatusProvider interface {
	GetStatus(ctx context.Context) (map[string]interface{}, error)
}

// APIServer exposes the derived pool state over a small read-only HTTP API.
type APIServer struct {
	mux    *http.ServeMux
	db     *pgxpool.Pool
	status StatusProvider
	logger zerolog.Logger
}

func NewAPIServer(db *pgxpool.Pool, status StatusProvider, logger zerolog.Logger) *APIServer {
	s := &APIServer{
		mux:    http.NewServeMux(),
		db:     db,
		status: status,
		logger: logger.With().Str("component", "api").Logger(),
	}
	s.registerRoutes()
	return s
}

func (s *APIServer) Start(ctx context.Context, addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Starting API server")
	server := &http.Server{
		Addr:    addr,
		Handler: s.logMiddleware(s.mux),
	}
	// Shutdown goroutine
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info().Msg("Shutting down API server...")
		_ = server.Shutdown(shutdownCtx)
	}()
	// Start serving (returns http.ErrServerClosed on shutdown)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status", s.handleStatus)

	// Collections
	s.mux.HandleFunc("/pools", s.handlePools)
	s.mux.HandleFunc("/tokens", s.handleTokens)
	s.mux.HandleFunc("/stats", s.handleStats)

	// Pool-scoped prefix for coins, exchanges, volume and fee buckets
	s.mux.HandleFunc("/pools/", s.handlePoolPrefix)
}

func (s *APIServer) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("http")
	})
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}, nil)
}

func (s *APIServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.status.GetStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, status, nil)
}

func (s *APIServer) handlePools(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := parsePage(r)
	items, err := database.ListPools(ctx, s.db, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, pageOf(limit, offset, len(items)))
}

func (s *APIServer) handleTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := parsePage(r)
	var search *string
	if v := r.URL.Query().Get("search"); v != "" {
		search = &v
	}
	items, err := database.ListTokens(ctx, s.db, limit, offset, search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, pageOf(limit, offset, len(items)))
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := database.GetStats(ctx, s.db)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, stats, nil)
}

func (s *APIServer) handlePoolPrefix(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/pools/")
	parts := strings.Split(path, "/")
	address := strings.ToLower(parts[0])
	if address == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 1 {
		s.handlePoolDetail(w, r, address)
		return
	}
	switch parts[1] {
	case "coins":
		s.handlePoolCoins(w, r, address)
	case "exchanges":
		s.handlePoolExchanges(w, r, address)
	case "volume":
		s.handlePoolVolume(w, r, address)
	case "fees":
		s.handlePoolFees(w, r, address)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *APIServer) handlePoolDetail(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()
	pool, err := database.GetPool(ctx, s.db, address)
	if err != nil {
		if err == pgx.ErrNoRows {
			writeError(w, http.StatusNotFound, "pool not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, pool, nil)
}

func (s *APIServer) handlePoolCoins(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()
	items, err := database.ListPoolCoins(ctx, s.db, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, nil)
}

func (s *APIServer) handlePoolExchanges(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()
	limit, offset := parsePage(r)
	items, err := database.ListPoolExchanges(ctx, s.db, address, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, pageOf(limit, offset, len(items)))
}

func (s *APIServer) handlePoolVolume(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()
	limit, offset := parsePage(r)
	window := r.URL.Query().Get("window")
	if window == "" {
		window = "day"
	}
	items, err := database.ListPoolVolume(ctx, s.db, address, window, limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, pageOf(limit, offset, len(items)))
}

func (s *APIServer) handlePoolFees(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()
	limit, offset := parsePage(r)
	window := r.URL.Query().Get("window")
	if window == "" {
		window = "day"
	}
	items, err := database.ListPoolFees(ctx, s.db, address, window, limit, offset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, items, pageOf(limit, offset, len(items)))
}
