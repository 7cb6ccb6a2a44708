package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thmjiya022/nnhair/internal/catalog"
	"github.com/thmjiya022/nnhair/internal/common"
	"github.com/thmjiya022/nnhair/internal/pricing"
)

// Handler exposes the customer-facing order endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createLineRequest struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	VariantID string `json:"variantId" validate:"omitempty,uuid4"`
	Qty       int    `json:"qty" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Items           []createLineRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddress     `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	CustomerEmail   string              `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string              `json:"customerPhone"`
	CustomerName    string              `json:"customerName"`
	ShippingCost    *string             `json:"shippingCost"`
	Discount        *string             `json:"discount"`
	Notes           string              `json:"notes"`
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "request validation failed", map[string]any{"error": err.Error()})
			return
		}
	}
	input, err := toCreateInput(req)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	ord, err := h.Svc.Create(r.Context(), userID, input)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": ord})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	orders, total, err := h.Svc.Store.ListForUser(r.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	ord, err := h.Svc.Store.GetForUser(r.Context(), orderID, userID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// Cancel handles POST /api/v1/orders/{orderID}/cancel. Customers may only
// cancel orders that have not started processing.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	ord, err := h.Svc.CancelOwn(r.Context(), orderID, userID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// History handles GET /api/v1/orders/{orderID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	// Ownership check before exposing the ledger.
	if _, err := h.Svc.Store.GetForUser(r.Context(), orderID, userID); err != nil {
		writeOrderError(w, err)
		return
	}
	entries, err := h.Svc.History(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func toCreateInput(req createOrderRequest) (CreateInput, error) {
	input := CreateInput{
		Address:       req.ShippingAddress,
		PaymentMethod: req.PaymentMethod,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Notes:         req.Notes,
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return CreateInput{}, errors.New("invalid product id")
		}
		line := CreateLine{ProductID: productID, Qty: item.Qty}
		if item.VariantID != "" {
			variantID, err := uuid.Parse(item.VariantID)
			if err != nil {
				return CreateInput{}, errors.New("invalid variant id")
			}
			line.VariantID = &variantID
		}
		input.Lines = append(input.Lines, line)
	}
	if req.ShippingCost != nil {
		cost, err := decimal.NewFromString(*req.ShippingCost)
		if err != nil {
			return CreateInput{}, errors.New("invalid shipping cost")
		}
		input.ShippingCost = &cost
	}
	if req.Discount != nil {
		disc, err := decimal.NewFromString(*req.Discount)
		if err != nil {
			return CreateInput{}, errors.New("invalid discount")
		}
		input.Discount = &disc
	}
	return input, nil
}

func authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order or product not found", nil)
	case errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrIncompleteAddress),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidPrice),
		errors.Is(err, pricing.ErrDiscountExceedsTotal),
		errors.Is(err, catalog.ErrVariantMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
	case errors.Is(err, catalog.ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", "insufficient stock for one or more items", nil)
	case errors.Is(err, ErrOrderClosed), errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, ErrConcurrentModification):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "order was modified concurrently, retry", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusInternalServerError
			}
			common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
