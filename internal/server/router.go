package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/chronicle/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler builds the HTTP route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/posts", s.handleListPosts)
	r.Get("/api/posts/{slug}", s.handleGetPost)
	r.Get("/api/resources/{id}", s.handleGetResource)
	r.Get("/api/rss", s.handleFeed)

	return r
}

// requestLogger logs one line per request with status and timing.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		})
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	pageNum, ok := queryInt(r, "page", 1)
	if !ok {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	pageSize, ok := queryInt(r, "items", defaultPageSize)
	if !ok || pageSize > maxPageSize {
		http.Error(w, "invalid items", http.StatusBadRequest)
		return
	}

	page, err := store.NewPagination(pageNum, pageSize)
	if err != nil {
		http.Error(w, "invalid pagination", http.StatusBadRequest)
		return
	}

	posts, err := s.storage.ListPosts(r.Context(), page)
	if err != nil {
		s.serverError(w, "list posts", err)
		return
	}
	s.writeJSON(w, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := s.storage.GetPost(r.Context(), slug)
	if err != nil {
		s.serverError(w, "get post", err)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, post)
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}

	res, err := s.storage.GetResource(r.Context(), id)
	if err != nil {
		s.serverError(w, "get resource", err)
		return
	}
	if res == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", res.Type)
	w.Write(res.Data)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	rss, err := s.feed.get(func() (string, error) {
		return buildFeed(r.Context(), s.storage, s.site, s.now())
	})
	if err != nil {
		s.serverError(w, "build feed", err)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(rss))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
