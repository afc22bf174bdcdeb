package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/validation"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
	"github.com/lorrc/cloudkitchen-backend/internal/core/services"
)

// imageFormField is the multipart field carrying an upload.
const imageFormField = "image"

// CatalogHandler serves categories, food items and image uploads
type CatalogHandler struct {
	catalogService ports.CatalogService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService ports.CatalogService, errorHandler *ErrorHandler, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "catalog"),
	}
}

// RegisterRoutes mounts the public storefront routes under /api
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.HandleListCategories)
	r.Get("/food-items", h.HandleListFoodItems)
	r.Get("/food-items/{itemID}", h.HandleGetFoodItem)
}

// RegisterAdminRoutes mounts catalog management under /api/admin
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/categories", h.HandleCreateCategory)
	r.Put("/categories/{categoryID}", h.HandleUpdateCategory)
	r.Delete("/categories/{categoryID}", h.HandleDeleteCategory)
	r.Get("/food-items", h.HandleListAllFoodItems)
	r.Post("/food-items", h.HandleCreateFoodItem)
	r.Get("/food-items/{itemID}", h.HandleGetFoodItem)
	r.Put("/food-items/{itemID}", h.HandleUpdateFoodItem)
	r.Delete("/food-items/{itemID}", h.HandleDeleteFoodItem)
	r.Post("/upload", h.HandleUploadImage)
}

// HandleListCategories lists categories by name
func (h *CatalogHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	out := make([]*CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	WriteList(w, out)
}

// HandleCreateCategory adds a category
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[CategoryRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), req.Name)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteCreated(w, toCategoryResponse(category))
}

// HandleUpdateCategory renames a category
func (h *CatalogHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "categoryID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	req, err := validation.DecodeJSON[CategoryRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	category, err := h.catalogService.UpdateCategory(r.Context(), id, req.Name)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toCategoryResponse(category))
}

// HandleDeleteCategory removes a category no food item uses
func (h *CatalogHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "categoryID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, h.catalogService.DeleteCategory(r.Context(), id), h.errorHandler) {
		return
	}
	WriteNoContent(w)
}

// HandleListFoodItems lists available items, optionally by category
func (h *CatalogHandler) HandleListFoodItems(w http.ResponseWriter, r *http.Request) {
	h.listFoodItems(w, r, true)
}

// HandleListAllFoodItems includes unavailable items
func (h *CatalogHandler) HandleListAllFoodItems(w http.ResponseWriter, r *http.Request) {
	h.listFoodItems(w, r, false)
}

func (h *CatalogHandler) listFoodItems(w http.ResponseWriter, r *http.Request, availableOnly bool) {
	filter := ports.FoodItemFilter{AvailableOnly: availableOnly}
	if raw := validation.ParseStringQueryParam(r, "category"); raw != nil {
		id, err := uuid.Parse(*raw)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewValidationErrorsWith("category", "Must be a valid UUID"))
			return
		}
		filter.CategoryID = &id
	}

	items, err := h.catalogService.ListFoodItems(r.Context(), filter)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	out := make([]*FoodItemResponse, len(items))
	for i, item := range items {
		out[i] = toFoodItemResponse(item)
	}
	WriteList(w, out)
}

// HandleGetFoodItem returns one item
func (h *CatalogHandler) HandleGetFoodItem(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "itemID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	item, err := h.catalogService.GetFoodItem(r.Context(), id)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toFoodItemResponse(item))
}

// HandleCreateFoodItem adds an item to the catalog
func (h *CatalogHandler) HandleCreateFoodItem(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[FoodItemRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	params, err := req.toParams()
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	item, err := h.catalogService.CreateFoodItem(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteCreated(w, toFoodItemResponse(item))
}

// HandleUpdateFoodItem replaces an item's fields
func (h *CatalogHandler) HandleUpdateFoodItem(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "itemID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	req, err := validation.DecodeJSON[FoodItemRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	params, err := req.toParams()
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	item, err := h.catalogService.UpdateFoodItem(r.Context(), id, params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toFoodItemResponse(item))
}

// HandleDeleteFoodItem removes an item
func (h *CatalogHandler) HandleDeleteFoodItem(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "itemID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, h.catalogService.DeleteFoodItem(r.Context(), id), h.errorHandler) {
		return
	}
	WriteNoContent(w)
}

// HandleUploadImage stores one multipart image and returns its URL
func (h *CatalogHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	// Room for the multipart envelope around a maximum-size image.
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+64<<10)
	if err := r.ParseMultipartForm(services.MaxImageSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.Handle(w, r, apperrors.ErrFileTooLarge)
			return
		}
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationErrorsWith(imageFormField, "This field is required"))
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
			return
		}
	}

	url, err := h.catalogService.UploadImage(r.Context(), ports.UploadImageParams{
		Filename:    header.Filename,
		ContentType: strings.TrimSpace(contentType),
		Size:        header.Size,
		Body:        file,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "image uploaded", "url", url, "size", header.Size)
	WriteCreated(w, UploadResponse{ImageURL: url})
}
