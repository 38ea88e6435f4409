// Package http exposes the JSON API: summaries, cashflow, projected
// balances and on-demand generation.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/services"
)

// Generator runs an expansion batch on demand.
type Generator interface {
	Run(ctx context.Context, asOf core.Date) (services.GenerationResult, error)
	RunForCompany(ctx context.Context, companyID int64, asOf core.Date) (services.GenerationResult, error)
}

// Pinger is the readiness check against the database.
type Pinger interface {
	ListCompanies(ctx context.Context) ([]core.Company, error)
}

type Server struct {
	http.Server
	reports     *services.ReportService
	generator   Generator
	pinger      Pinger
	loc         *time.Location
	rateLimiter *rateLimiter

	// Summary caches, purged after every generation run.
	overdueCache *cache.LRUCache[core.Summary]
	pendingCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(addr string, reports *services.ReportService, generator Generator, pinger Pinger, loc *time.Location, cacheMaxSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		reports:      reports,
		generator:    generator,
		pinger:       pinger,
		loc:          loc,
		rateLimiter:  newRateLimiter(),
		overdueCache: cache.NewLRUCache[core.Summary](cacheMaxSize, cacheTTL),
		pendingCache: cache.NewLRUCache[core.Summary](cacheMaxSize, cacheTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.overdueCache)
	s.cacheManager.Register(s.pendingCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/companies/{id}/overdue-summary", s.withMiddleware(s.handleOverdueSummary))
	mux.HandleFunc("GET /api/companies/{id}/pending-summary", s.withMiddleware(s.handlePendingSummary))
	mux.HandleFunc("GET /api/companies/{id}/cashflow", s.withMiddleware(s.handleCashflow))
	mux.HandleFunc("GET /api/accounts/{id}/projected-balance", s.withMiddleware(s.handleProjectedBalance))
	mux.HandleFunc("POST /api/generate", s.withMiddleware(s.handleGenerate))

	return s
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
