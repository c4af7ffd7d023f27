package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hindsightlog/hindsight/pkg/models"
	"github.com/hindsightlog/hindsight/pkg/services"
)

// CategoriesResponse for GET /api/categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// DecisionsHandler handles decision CRUD and search HTTP requests.
type DecisionsHandler struct {
	decisionService services.DecisionService
	searchService   services.SearchService
	logger          *zap.Logger
}

// NewDecisionsHandler creates a new decisions handler.
func NewDecisionsHandler(
	decisionService services.DecisionService,
	searchService services.SearchService,
	logger *zap.Logger,
) *DecisionsHandler {
	return &DecisionsHandler{
		decisionService: decisionService,
		searchService:   searchService,
		logger:          logger,
	}
}

// RegisterRoutes registers the decision routes on the given mux, wrapping
// each handler with the supplied middleware (identity function when auth is
// disabled).
func (h *DecisionsHandler) RegisterRoutes(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/decisions", wrap(h.Search))
	mux.HandleFunc("POST /api/decisions", wrap(h.Create))
	mux.HandleFunc("GET /api/decisions/{id}", wrap(h.Get))
	mux.HandleFunc("PATCH /api/decisions/{id}", wrap(h.Update))
	mux.HandleFunc("DELETE /api/decisions/{id}", wrap(h.Delete))
	mux.HandleFunc("GET /api/categories", wrap(h.Categories))
}

// Search handles GET /api/decisions.
// The response body is the documented search shape: {results, total,
// hasMore, limit, offset, metadata}.
func (h *DecisionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, parseViolations := ParseSearchParams(r)

	ctx := services.WithClientIP(r.Context(), r.RemoteAddr)
	result, err := h.searchService.Search(ctx, params, parseViolations)
	if err != nil {
		if err := WriteError(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write search response", zap.Error(err))
	}
}

// Create handles POST /api/decisions.
func (h *DecisionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	decision, err := h.decisionService.Create(r.Context(), &req)
	if err != nil {
		if err := WriteError(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: decision}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/decisions/{id}.
func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDecisionID(w, r, h.logger)
	if !ok {
		return
	}

	decision, err := h.decisionService.Get(r.Context(), id)
	if err != nil {
		if err := WriteError(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: decision}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PATCH /api/decisions/{id}.
// The body is a partial update: absent fields are left unchanged.
func (h *DecisionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDecisionID(w, r, h.logger)
	if !ok {
		return
	}

	var update models.DecisionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	decision, err := h.decisionService.Update(r.Context(), id, &update)
	if err != nil {
		if err := WriteError(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: decision}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/decisions/{id}. Deletion is hard removal.
func (h *DecisionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseDecisionID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.decisionService.Delete(r.Context(), id); err != nil {
		if err := WriteError(w, err); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/categories.
func (h *DecisionsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	response := CategoriesResponse{Categories: h.decisionService.Categories()}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
