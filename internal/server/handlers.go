package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/internal/orchestrator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// handlers holds the HTTP request handling for the assistant API.
type handlers struct {
	log *zap.Logger
	nyx *orchestrator.Nyx
}

func newHandlers(logger *zap.Logger, nyx *orchestrator.Nyx) *handlers {
	return &handlers{
		log: logger.Named("handlers"),
		nyx: nyx,
	}
}

// RegisterRoutes sets up the assistant API routing.
func (h *handlers) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", h.handleQuery)
		r.Post("/intent", h.handleIntent)
		r.Post("/route", h.handleRoute)

		r.Get("/status", h.handleStatus)
		r.Get("/modules", h.handleModules)
		r.Get("/modules/{name}", h.handleModuleInfo)
		r.Get("/capabilities", h.handleCapabilities)
		r.Get("/validation/statistics", h.handleValidationStatistics)

		r.Get("/history", h.handleHistory)
		r.Delete("/history", h.handleClearHistory)
	})
}

// queryRequest is the body of /api/query, /api/intent and /api/route.
// Validate defaults to true when omitted.
type queryRequest struct {
	Query    string         `json:"query"`
	Context  map[string]any `json:"context,omitempty"`
	Validate *bool          `json:"validate,omitempty"`
	Module   string         `json:"module,omitempty"`
}

func (h *handlers) decodeQueryRequest(w http.ResponseWriter, r *http.Request) (*queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	if strings.TrimSpace(req.Query) == "" {
		h.respondError(w, http.StatusBadRequest, "query must not be empty")
		return nil, false
	}
	return &req, true
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *handlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQueryRequest(w, r)
	if !ok {
		return
	}

	var opts []orchestrator.AskOption
	if req.Validate != nil && !*req.Validate {
		opts = append(opts, orchestrator.WithoutValidation())
	}
	if req.Module != "" {
		opts = append(opts, orchestrator.WithModule(req.Module))
	}

	resp, err := h.nyx.Ask(r.Context(), req.Query, req.Context, opts...)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNotInitialized) {
			h.respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.log.Error("query failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleIntent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQueryRequest(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, h.nyx.Classify(req.Query, req.Context))
}

func (h *handlers) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQueryRequest(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, h.nyx.Route(req.Query, req.Context))
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.nyx.Status(r.Context()))
}

func (h *handlers) handleModules(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, h.nyx.ListModules())
}

func (h *handlers) handleModuleInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info := h.nyx.ModuleInfo(name)
	if info == nil {
		h.respondError(w, http.StatusNotFound, "unknown module "+strconv.Quote(name))
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}

func (h *handlers) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"capabilities": h.nyx.Capabilities(),
	})
}

func (h *handlers) handleValidationStatistics(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, h.nyx.ValidationStatistics())
}

func (h *handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.nyx.History(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to read history", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

func (h *handlers) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.nyx.ClearHistory(r.Context()); err != nil {
		h.log.Error("failed to clear history", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *handlers) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]string{"error": message})
}
