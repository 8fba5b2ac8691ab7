package catalog

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "failed to get product", id)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, err, "failed to create product", "")
		return
	}

	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, err, "failed to update product", id)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err, "failed to delete product", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage accepts a multipart form with the file in the "image" field.
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	limit := h.service.maxImageBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, ErrImageTooLarge.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	product, err := h.service.AttachImage(r.Context(), id, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.handleServiceError(w, err, "failed to attach image", id)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error, msg, id string) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, ErrProductNotFound):
		h.writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, ErrImageTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrNotAnImage):
		h.writeError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		h.logger.Error(msg, "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
