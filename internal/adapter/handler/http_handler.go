package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/shop-bridge/internal/core/domain"
	"github.com/rl1809/shop-bridge/internal/core/service"
)

const (
	inventoryPath        = "/api/inventory"
	idempotencyKeyHeader = "Idempotency-Key"

	maxBodyBytes = 1 << 20
)

type HTTPHandler struct {
	inventoryService *service.InventoryService
	readiness        func(ctx context.Context) error
	logger           *zap.Logger
}

// NewHTTPHandler builds the HTTP transport. readiness may be nil, in which
// case /health always reports ok.
func NewHTTPHandler(inventoryService *service.InventoryService, readiness func(ctx context.Context) error, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		inventoryService: inventoryService,
		readiness:        readiness,
		logger:           logger,
	}
}

// Routes returns the chi router serving the inventory API and /health.
func (h *HTTPHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(RequestID)
	router.Use(AccessLog(h.logger))
	router.Use(middleware.Recoverer)

	router.Route(inventoryPath, func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Put("/{id}", h.UpdateItem)
		r.Patch("/{id}", h.PatchItem)
		r.Delete("/{id}", h.DeleteItem)
	})

	router.Get("/health", h.HealthCheck)

	return router
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventoryService.ListItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItem(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	item, err := h.inventoryService.CreateItem(r.Context(), r.Header.Get(idempotencyKeyHeader), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", inventoryPath, item.ID))
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateItemRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.inventoryService.UpdateItem(r.Context(), id, req); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PatchItem accepts an RFC 6902 document as application/json-patch+json or
// application/json.
func (h *HTTPHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "application/json-patch+json" && mediaType != "application/json") {
			writeProblem(w, r, problemDetails{
				Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.13",
				Title:  "Unsupported Media Type",
				Status: http.StatusUnsupportedMediaType,
				Detail: "patch documents must be sent as application/json-patch+json",
			})
			return
		}
	}

	var ops []domain.PatchOperation
	if !h.decodeBody(w, r, &ops) {
		return
	}
	if ops == nil {
		writeValidationProblem(w, r, domain.NewValidationError("operations", errMissingPatchDocument))
		return
	}

	if err := h.inventoryService.PatchItem(r.Context(), id, ops); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		if err := h.readiness(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeValidationProblem(w, r, domain.NewValidationError("id", fmt.Sprintf("The value '%s' is not valid.", raw)))
		return 0, false
	}
	return id, true
}

// decodeBody reads exactly one JSON value of at most maxBodyBytes into dst.
func (h *HTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("request body must contain a single JSON value")
		}
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeProblem(w, r, problemDetails{
			Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.11",
			Title:  "Payload Too Large",
			Status: http.StatusRequestEntityTooLarge,
			Detail: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}

	writeProblem(w, r, problemDetails{
		Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.1",
		Title:  "Invalid request body",
		Status: http.StatusBadRequest,
		Detail: err.Error(),
	})
	return false
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationProblem(w, r, verr)
	case errors.Is(err, service.ErrNotFound):
		writeProblem(w, r, problemDetails{
			Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.4",
			Title:  "Not Found",
			Status: http.StatusNotFound,
		})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeProblem(w, r, problemDetails{
			Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.8",
			Title:  "Conflict",
			Status: http.StatusConflict,
			Detail: "a request with this Idempotency-Key was already processed",
		})
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeProblem(w, r, problemDetails{
			Type:   "https://tools.ietf.org/html/rfc7231#section-6.6.1",
			Title:  "An error occurred while processing your request.",
			Status: http.StatusInternalServerError,
		})
	}
}

type problemDetails struct {
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	Detail  string              `json:"detail,omitempty"`
	TraceID string              `json:"traceId,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeValidationProblem(w http.ResponseWriter, r *http.Request, verr *domain.ValidationError) {
	writeProblem(w, r, problemDetails{
		Type:   "https://tools.ietf.org/html/rfc7231#section-6.5.1",
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: verr.Fields(),
	})
}

func writeProblem(w http.ResponseWriter, r *http.Request, p problemDetails) {
	p.TraceID = RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
