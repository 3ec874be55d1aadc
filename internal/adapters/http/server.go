package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aretw0/talks/internal/logging"
	"github.com/aretw0/talks/pkg/agent"
	"github.com/aretw0/talks/pkg/directive"
	"github.com/aretw0/talks/pkg/domain"
	"github.com/aretw0/talks/pkg/question"
	"github.com/aretw0/talks/pkg/talk"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

// Server exposes a talk registry over HTTP.
type Server struct {
	Registry *talk.Registry
	Agent    *agent.Understands
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithAgent enables POST /talks/{name}/comments.
func WithAgent(a *agent.Understands) Option {
	return func(s *Server) { s.Agent = a }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Gatherer = g }
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler creates the HTTP handler for registry.
func NewHandler(registry *talk.Registry, opts ...Option) http.Handler {
	s := &Server{Registry: registry, Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.Health)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/talks", func(r chi.Router) {
		r.Get("/", s.ListTalks)
		r.Post("/", s.CreateTalk)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetTalk)
			r.Delete("/", s.DeleteTalk)
			r.Post("/directives", s.ModifyTalk)
			r.Post("/comments", s.Comment)
			r.Put("/active", s.SetActive)
		})
	})
	return r
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTalks handles GET /talks.
func (s *Server) ListTalks(w http.ResponseWriter, r *http.Request) {
	names, err := s.Registry.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

type createRequest struct {
	Name   string `json:"name"`
	Number int64  `json:"number"`
}

// CreateTalk handles POST /talks.
func (s *Server) CreateTalk(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("CreateTalk: Invalid request body", "error", err)
		return
	}
	if _, err := s.Registry.Create(r.Context(), body.Number, body.Name); err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/talks/"+url.PathEscape(body.Name))
	s.writeJSON(w, http.StatusCreated, body)
}

// GetTalk handles GET /talks/{name}, answering the upgraded document.
func (s *Server) GetTalk(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Registry.Talk(chi.URLParam(r, "name")).Read(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := doc.Bytes()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	if _, err := w.Write(data); err != nil {
		s.Logger.Error("GetTalk write failed", "error", err)
	}
}

// DeleteTalk handles DELETE /talks/{name}.
func (s *Server) DeleteTalk(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModifyTalk handles POST /talks/{name}/directives. The body is a
// directive script such as "XPATH '/talk'; ADD 'wire';".
func (s *Server) ModifyTalk(w http.ResponseWriter, r *http.Request) {
	script, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dirs, err := directive.Parse(string(script))
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Registry.Talk(chi.URLParam(r, "name")).Modify(r.Context(), dirs); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Number int64  `json:"number"`
	Author string `json:"author"`
	Body   string `json:"body"`
	Home   string `json:"home"`
}

type requestResponse struct {
	Kind string         `json:"kind"`
	Type string         `json:"type,omitempty"`
	Args []question.Arg `json:"args,omitempty"`
}

// Comment handles POST /talks/{name}/comments, offering the comment to the agent.
func (s *Server) Comment(w http.ResponseWriter, r *http.Request) {
	if s.Agent == nil {
		http.Error(w, "No agent configured", http.StatusNotImplemented)
		return
	}
	var body commentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Comment: Invalid request body", "error", err)
		return
	}
	var home *url.URL
	if body.Home != "" {
		u, err := url.Parse(body.Home)
		if err != nil {
			http.Error(w, "Invalid home URL", http.StatusBadRequest)
			return
		}
		home = u
	}

	tk, err := s.Registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	c := question.Comment{Number: body.Number, Author: body.Author, Body: body.Body}
	req, err := s.Agent.Execute(r.Context(), tk, c, home)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, requestResponse{Kind: req.Kind().String(), Type: req.Type(), Args: req.Args()})
}

// SetActive handles PUT /talks/{name}/active with {"active": bool}.
func (s *Server) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tk, err := s.Registry.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := tk.Active(r.Context(), body.Active); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

// status maps an error to the HTTP status that describes it.
func status(err error) int {
	var (
		syntax  *directive.SyntaxError
		state   *domain.StateError
		invalid *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrTalkNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTalkExists):
		return http.StatusConflict
	case errors.As(err, &syntax):
		return http.StatusBadRequest
	case errors.As(err, &state):
		return http.StatusConflict
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		s.Logger.Error("Request failed", "error", err)
		http.Error(w, "Internal error", code)
		return
	}
	s.Logger.Debug("Request rejected", "status", code, "error", err)
	http.Error(w, fmt.Sprintf("%v", err), code)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}
