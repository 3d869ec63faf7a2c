// Package httpapi exposes the Trackify services as a JSON API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/metrics"
	"github.com/dmitrijs2005/trackify/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address   string
	logger    logging.Logger
	metrics   *metrics.Metrics
	svc       services.Bundle
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, m *metrics.Metrics, svc services.Bundle, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		metrics:   m,
		svc:       svc,
		jwtSecret: []byte(secretKey),
	}
}

// Router wires up the HTTP API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/refresh", s.refresh)
		r.Post("/logout", s.logout)

		r.Group(func(pr chi.Router) {
			pr.Use(s.authMiddleware)

			pr.Route("/wallet", func(r chi.Router) {
				r.Get("/", s.wallet)
				r.Post("/deposit", s.deposit)
				r.Post("/withdraw", s.withdraw)
				r.Get("/reconcile", s.reconcile)
			})

			pr.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.listTransactions)
				r.Post("/", s.recordTransaction)
				r.Get("/export.csv", s.exportCSV)
				r.Get("/statement.pdf", s.statementPDF)
				r.Post("/archive", s.archive)
				r.Delete("/{id}", s.deleteTransaction)
			})

			pr.Get("/me", s.me)

			pr.Route("/products", func(r chi.Router) {
				r.Get("/", s.listProducts)
				r.Post("/", s.createProduct)
				r.Get("/{id}", s.getProduct)
				r.Put("/{id}", s.updateProduct)
				r.Delete("/{id}", s.deleteProduct)
				r.Post("/{id}/stock", s.productStock)
				r.Post("/{id}/buy", s.buyProduct)
			})

			pr.Get("/currency/convert", s.convert)
			pr.Get("/summary", s.summary)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "err", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
