package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/logistics/backend/internal/application/finance"
)

// SettlementHandler serves payments and settlement positions
type SettlementHandler struct {
	BaseHandler
	settlementService *financeapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *financeapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// Summary returns exposure, paid and remaining per supplier and currency
func (h *SettlementHandler) Summary(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.settlementService.Summary(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Reconcile moves a fully paid distributed order to financial
func (h *SettlementHandler) Reconcile(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.settlementService.Reconcile(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// History lists the order's payments, newest first
func (h *SettlementHandler) History(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	payments, err := h.settlementService.History(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, payments, len(payments))
}

// RecordPayment pays a supplier's exposure on the order
func (h *SettlementHandler) RecordPayment(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req financeapp.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.settlementService.RecordPayment(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// RecordLegacyPayment pays a single allocation
func (h *SettlementHandler) RecordLegacyPayment(c *gin.Context) {
	allocationID, ok := h.ParamUUID(c, "allocationId")
	if !ok {
		return
	}
	var req financeapp.RecordLegacyPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, err := h.settlementService.RecordLegacyPayment(c.Request.Context(), allocationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}
