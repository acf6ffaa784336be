package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/florafauna/internal/auth"
	"github.com/pavelanni/florafauna/internal/catalog"
	appI18n "github.com/pavelanni/florafauna/internal/i18n"
	"github.com/pavelanni/florafauna/internal/llm"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	reader   *store.Store
	writer   *store.Store // nil when no privileged credentials are configured
	access   *auth.Access
	verifier *auth.Verifier
	llm      *llm.Client
	config   model.AppConfig
	newRand  func() *rand.Rand
}

// Deps groups the collaborators a Handler needs. Writer and LLM are optional.
type Deps struct {
	Reader   *store.Store
	Writer   *store.Store
	Access   *auth.Access
	Verifier *auth.Verifier
	LLM      *llm.Client
}

// New creates a new Handler.
func New(d Deps, cfg model.AppConfig) (*Handler, error) {
	if d.Reader == nil {
		return nil, errors.New("handler: reader store is required")
	}
	if d.Verifier == nil {
		return nil, errors.New("handler: token verifier is required")
	}
	if d.Access == nil {
		d.Access = auth.NewAccess(nil)
	}
	if d.LLM == nil {
		d.LLM = llm.New("", "", "")
	}
	return &Handler{
		reader:   d.Reader,
		writer:   d.Writer,
		access:   d.Access,
		verifier: d.Verifier,
		llm:      d.LLM,
		config:   cfg,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/species", h.handleListSpecies)
		r.Get("/species/{identifier}", h.handleGetSpecies)
		r.Get("/learn/quiz", h.handleQuiz)
		r.Get("/placeholder/{width}/{height}", h.handlePlaceholder)
		r.Post("/tools/recognition", h.handleRecognition)
		r.Get("/articles", h.handleArticles)
		if h.config.LocalAuth {
			r.Post("/auth/token", h.handleToken)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/species", h.handleCreateSpecies)
			r.Put("/species/{identifier}", h.handleUpdateSpecies)
			r.Post("/contributions", h.handleCreateContribution)
			r.Get("/contributions", h.handleListContributions)
			r.Post("/learn/quiz/results", h.handleCreateQuizResult)
			r.Get("/learn/quiz/results", h.handleListQuizResults)
			r.Post("/learn/quiz/explain", h.handleExplain)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/admin/submissions", h.handleListSubmissions)
			r.Patch("/admin/moderate", h.handleModerate)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.reader.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

type errorBody struct {
	Error string `json:"error"`
}

type dataBody struct {
	Data any `json:"data"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes a localized JSON error for msgID.
func writeError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorBody{Error: appI18n.T(r.Context(), msgID)})
}

// writeInvalid reports payload validation issues as a 400.
func writeInvalid(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// writeStoreError maps a store failure onto the status taxonomy. Missing
// tables are a 503, unknown rows a 404 and everything else a 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "ErrNotFound")
	case store.IsMissingTable(err):
		slog.Warn(op+": table missing", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, "ErrTableMissing")
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case catalog.IsValidation(err):
		writeInvalid(w, err)
	default:
		slog.Error(op, "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
	}
}

// privileged returns the writer store, or writes status and returns nil when
// no privileged credentials are configured.
func (h *Handler) privileged(w http.ResponseWriter, r *http.Request, status int) *store.Store {
	if h.writer == nil {
		slog.Error("privileged store not configured", "path", r.URL.Path)
		writeError(w, r, status, "ErrStoreUnavailable")
		return nil
	}
	return h.writer
}
