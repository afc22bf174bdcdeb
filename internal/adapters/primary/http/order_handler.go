package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/validation"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// Admin listing page sizes.
const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// OrderHandler serves checkout and the admin order desk
type OrderHandler struct {
	orderService ports.OrderService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService ports.OrderService, errorHandler *ErrorHandler, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "orders"),
	}
}

// RegisterRoutes mounts the customer routes under /api/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandlePlaceOrder)
	r.Get("/mine", h.HandleListMine)
}

// RegisterAdminRoutes mounts the admin routes under /api/admin/orders
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.HandleListOrders)
	r.Get("/stats", h.HandleStats)
	r.Get("/{orderID}", h.HandleGetOrder)
	r.Put("/{orderID}/status", h.HandleUpdateStatus)
}

// HandlePlaceOrder persists a new order and answers 201 with it
func (h *OrderHandler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	req, err := validation.DecodeJSON[PlaceOrderRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	userID := claims.UserID
	params, err := req.toParams(claims.Email, &userID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteCreated(w, toOrderResponse(order))
}

// HandleListMine lists the caller's orders, newest first
func (h *OrderHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	orders, err := h.orderService.ListMyOrders(r.Context(), claims.UserID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteList(w, toOrderResponses(orders))
}

// HandleListOrders filters by status and creation date, paginated
func (h *OrderHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	params, err := parseListOrdersParams(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	page, err := h.orderService.ListOrders(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toOrderPageResponse(page))
}

func parseListOrdersParams(r *http.Request) (ports.ListOrdersParams, error) {
	v := validation.NewValidator()
	page := validation.ParsePage(r, defaultOrderPageSize, maxOrderPageSize)
	params := ports.ListOrdersParams{Page: page.Page, Limit: page.Limit}

	if raw := validation.ParseStringQueryParam(r, "status"); raw != nil {
		v.OneOf("status", *raw, domain.OrderStatusStrings())
		status := domain.OrderStatus(*raw)
		params.Status = &status
	}

	start, err := validation.ParseDateQueryParam(r, "startDate", false)
	if err != nil {
		return params, err
	}
	end, err := validation.ParseDateQueryParam(r, "endDate", true)
	if err != nil {
		return params, err
	}
	if start != nil && end != nil {
		v.Custom("endDate", !end.Before(*start), "Must not be before startDate")
	}
	params.StartDate, params.EndDate = start, end

	return params, v.Err()
}

// HandleGetOrder returns one order
func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "orderID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// HandleUpdateStatus sets any recognized status and returns the stored order
func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseUUIDParam(r, "orderID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	req, err := validation.DecodeJSON[UpdateOrderStatusRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	v := validation.NewValidator().
		Required("status", req.Status).
		OneOf("status", req.Status, domain.OrderStatusStrings())
	if HandleError(w, r, v.Err(), h.errorHandler) {
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "order status updated",
		"order_id", order.ID,
		"status", order.Status,
	)
	WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// HandleStats returns totals per status
func (h *OrderHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderService.Stats(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toOrderStatsResponse(stats))
}
