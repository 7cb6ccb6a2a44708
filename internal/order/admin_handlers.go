package order

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/thmjiya022/nnhair/internal/common"
)

// AdminHandler exposes the back-office order management endpoints. Routes
// using it must sit behind the admin role middleware.
type AdminHandler struct {
	Svc *Service
}

type patchStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// PatchStatus handles PATCH /api/v1/admin/orders/{orderID}/status. The
// transition is validated against the fulfillment state machine and every
// applied change lands in the status history ledger.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	ord, err := h.Svc.ChangeStatus(r.Context(), orderID, status, common.Actor(r.Context()), req.Note)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

type paymentEventRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

// PaymentEvent handles POST /api/v1/admin/orders/{orderID}/payment-events.
// Gateway callbacks and manual corrections both land here; captured and
// refunded events cascade into the order status.
func (h *AdminHandler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	var req paymentEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(req.PaymentStatus) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "paymentStatus is required", nil)
		return
	}
	payment, err := ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported payment status", nil)
		return
	}
	ord, err := h.Svc.RecordPaymentEvent(r.Context(), orderID, payment, common.Actor(r.Context()))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// AdminGet handles GET /api/v1/admin/orders/{orderID}.
func (h *AdminHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}
	ord, err := h.Svc.Store.Get(r.Context(), orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// AdminHistory handles GET /api/v1/admin/orders/{orderID}/history.
func (h *AdminHandler) AdminHistory(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
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
