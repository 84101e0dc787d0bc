package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/logging"
	"github.com/gorilla/mux"
)

// Server serves the QuickQR REST contract from an in-memory Store.
type Server struct {
	cfg    *Config
	store  *Store
	secret []byte
	log    logging.Logger
}

func NewServer(cfg *Config, store *Store, log logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		secret: []byte(cfg.SecretKey),
		log:    logging.OrDiscard(log).With("component", "devserver"),
	}
}

// Handler returns the router with every route mounted under /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/qr/history", s.handleHistory).Methods(http.MethodGet)
	authed.HandleFunc("/qr/generate", s.handleGenerate).Methods(http.MethodPost)
	authed.HandleFunc("/qr/{id}", s.handleDelete).Methods(http.MethodDelete)

	return r
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info(ctx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}
