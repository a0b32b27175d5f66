// Package http exposes the receipt engine over a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"scontrini/internal/cache"
	"scontrini/internal/core"
	"scontrini/internal/session"
)

// ReceiptService is the application-layer port the handlers talk to.
type ReceiptService interface {
	NewSession(ctx context.Context) (*session.WorkingSet, error)
	LoadSession(ctx context.Context, id string) (*session.WorkingSet, error)
	SaveReceipt(ctx context.Context, r core.Receipt) (string, error)
	RecordRepayment(ctx context.Context, rep core.Repayment) (string, error)
	DeleteRepayment(ctx context.Context, id string) error
	ListRepayments(ctx context.Context, receiptID string) ([]core.Repayment, error)
	ListDebtors(ctx context.Context) ([]core.Debtor, error)
	CreateDebtor(ctx context.Context, name string) (core.Debtor, error)
}

type Server struct {
	http.Server
	service ReceiptService

	// Debt summaries are pure recomputations; cache them on the read path
	// and invalidate on any write touching the receipt.
	summaryCache *cache.Cache[summaryResponse]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, service ReceiptService, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		service:          service,
		summaryCache:     cache.New[summaryResponse](cacheSize, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /api/receipts/preview", s.withRequestLog(s.handlePreviewReceipt))
	mux.HandleFunc("POST /api/receipts", s.withRequestLog(s.handleSaveReceipt))
	mux.HandleFunc("PUT /api/receipts/{id}", s.withRequestLog(s.handleUpdateReceipt))
	mux.HandleFunc("GET /api/receipts/{id}", s.withRequestLog(s.handleGetReceipt))
	mux.HandleFunc("GET /api/receipts/{id}/summary", s.withRequestLog(s.handleGetSummary))
	mux.HandleFunc("GET /api/receipts/{id}/repayments", s.withRequestLog(s.handleListRepayments))
	mux.HandleFunc("POST /api/repayments", s.withRequestLog(s.handleRecordRepayment))
	mux.HandleFunc("DELETE /api/repayments/{id}", s.withRequestLog(s.handleDeleteRepayment))
	mux.HandleFunc("GET /api/debtors", s.withRequestLog(s.handleListDebtors))
	mux.HandleFunc("POST /api/debtors", s.withRequestLog(s.handleCreateDebtor))

	return s
}

// startCacheCleanup purges expired summary entries periodically.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if dropped := s.summaryCache.PurgeExpired(); dropped > 0 {
				slog.Debug("Summary cache cleanup completed", "entries_removed", dropped)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withRequestLog tags each request with an ID and logs start and completion.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
