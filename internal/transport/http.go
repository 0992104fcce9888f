package transport

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/hourbank/internal/domain/ledger"
)

const indexFile = "index.html"

// LedgerService is the registry API served over HTTP.
type LedgerService interface {
	State(ctx context.Context) (*ledger.Response, error)
	UpdateParameters(ctx context.Context, patch ledger.ParametersPatch) (*ledger.Response, error)
	Add(ctx context.Context, in ledger.MemberInput) (*ledger.Response, error)
	Submit(ctx context.Context, in ledger.MemberInput) (*ledger.SubmitResult, error)
	Update(ctx context.Context, id int64, patch ledger.MemberPatch) (*ledger.Response, error)
	Delete(ctx context.Context, id int64) (*ledger.Response, error)
	Clear(ctx context.Context) (*ledger.Response, error)
}

// Config holds the optional surfaces mounted next to the JSON API.
type Config struct {
	// Static serves the web page; index.html answers / and /index.html.
	Static fs.FS
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	ledger LedgerService
	static fs.FS
	logger *slog.Logger
}

// NewServer creates the HTTP router with middleware.
func NewServer(svc LedgerService, cfg Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	srv := &Server{ledger: svc, static: cfg.Static, logger: cfg.Logger}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", srv.handleGetState)
		r.Post("/state", srv.handleUpdateParameters)
		r.Post("/members", srv.handleAddMember)
		r.Put("/members/{id}", srv.handleUpdateMember)
		r.Delete("/members/{id}", srv.handleDeleteMember)
		r.Post("/submit_and_add", srv.handleSubmit)
		r.Post("/clear", srv.handleClear)
	})

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/", cfg.MCP)
	}

	if cfg.Static != nil {
		r.Get("/", srv.handleIndex)
		r.Get("/index.html", srv.handleIndex)
		r.Handle("/*", http.FileServerFS(cfg.Static))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	file, err := s.static.Open(indexFile)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	content, ok := file.(io.ReadSeeker)
	if !ok {
		http.Error(w, "index not seekable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, indexFile, info.ModTime(), content)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.State(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	var patch ledger.ParametersPatch
	decodeLenient(r, &patch)

	resp, err := s.ledger.UpdateParameters(r.Context(), patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var in ledger.MemberInput
	decodeLenient(r, &in)

	resp, err := s.ledger.Add(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var in ledger.MemberInput
	decodeLenient(r, &in)

	result, err := s.ledger.Submit(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if !result.Uploaded {
		status = http.StatusAccepted
	}
	writeJSON(w, status, result)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	var patch ledger.MemberPatch
	decodeLenient(r, &patch)

	resp, err := s.ledger.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Clear(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, code, message)
}

func memberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid member id")
		return 0, false
	}
	return id, true
}
