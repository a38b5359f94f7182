// Package httpapi exposes the DropVault operations as an HTTP JSON API.
// It owns all protocol concerns: routing, credential extraction, and the
// mapping of sentinel errors to status codes. No domain decisions are made
// here; every authorization question goes through the shared Gate.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dropvault/dropvault/internal/logging"
	"github.com/dropvault/dropvault/internal/server/services"
	"github.com/gorilla/mux"
)

type Server struct {
	address string
	logger  logging.Logger
	gate    *services.Gate
	users   *services.UserService
	files   *services.FileService
	shares  *services.ShareService
}

func NewServer(address string, l logging.Logger, gate *services.Gate,
	us *services.UserService, fs *services.FileService, ss *services.ShareService) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "httpapi"),
		gate:    gate,
		users:   us,
		files:   fs,
		shares:  ss,
	}
}

// Router builds the route table. Split out from Run so tests can drive the
// handlers through httptest without a listener.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	r.Handle("/api/files", s.requireSession(s.handleList)).Methods(http.MethodGet)
	r.Handle("/api/files/upload", s.requireSession(s.handleUpload)).Methods(http.MethodPost)
	r.Handle("/api/files/{id}/download", s.requireSession(s.handleDownload)).Methods(http.MethodGet)
	r.Handle("/api/files/{id}/share", s.requireSession(s.handleShare)).Methods(http.MethodPost)
	r.Handle("/api/files/{id}/share", s.requireSession(s.handleRevoke)).Methods(http.MethodDelete)

	// anonymous path: the share token is the only credential
	r.HandleFunc("/api/shared/{token}", s.handleShared).Methods(http.MethodGet)

	return r
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
