package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
	"github.com/MikeSquared-Agency/chatarchive/internal/hermes"
	"github.com/MikeSquared-Agency/chatarchive/internal/pipeline"
	"github.com/MikeSquared-Agency/chatarchive/internal/store"
)

// Publisher receives pipeline events. *hermes.Client satisfies it.
type Publisher interface {
	PublishProgress(hermes.ProgressEvent) error
	PublishParsed(hermes.ConversationParsed) error
}

// Sink persists parsed conversations and reads them back. *store.Store
// satisfies it.
type Sink interface {
	SaveConversation(ctx context.Context, id uuid.UUID, conv *chat.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*store.ConversationRow, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]chat.Message, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error
}

type Option func(*Server)

// WithPublisher forwards progress and parsed events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.events = p }
}

// WithSink persists every parsed conversation to sink.
func WithSink(sink Sink) Option {
	return func(s *Server) { s.sink = sink }
}

// WithMaxArchiveBytes caps upload size. Zero means no cap.
func WithMaxArchiveBytes(n int64) Option {
	return func(s *Server) { s.maxBytes = n }
}

type Server struct {
	router   *chi.Mux
	port     int
	pipeline *pipeline.Pipeline
	registry *registry
	events   Publisher
	sink     Sink
	maxBytes int64
	logger   *slog.Logger
}

func NewServer(port int, apiToken string, p *pipeline.Pipeline, logger *slog.Logger, opts ...Option) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		pipeline: p,
		registry: newRegistry(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/archives", s.uploadArchive)
		r.Get("/conversations/{id}", s.getConversation)
		r.Get("/conversations/{id}/days", s.getDays)
		r.Delete("/conversations/{id}", s.deleteConversation)
		r.Get("/media/{handle}", s.getMedia)
	})

	return s
}

// Start serves until ctx is cancelled, then shuts down and releases every
// registered conversation.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.registry.releaseAll()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.releaseAll()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"conversations": s.registry.len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
