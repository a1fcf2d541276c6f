package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/logistics/backend/internal/application/trade"
)

// OrderHandler serves order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	orderService *tradeapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create creates a draft order, optionally with its first lines
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List lists orders, optionally by status
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	orders, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, orders, len(orders))
}

// GetByID returns one order with its lines
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete removes a draft order
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.Delete(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddLine adds a line to a draft order
func (h *OrderHandler) AddLine(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orderService.AddLine(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// RemoveLine removes a line from a draft order
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParamUUID(c, "lineId")
	if !ok {
		return
	}
	order, err := h.orderService.RemoveLine(c.Request.Context(), orderID, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Lock freezes the order lines and opens distribution
func (h *OrderHandler) Lock(c *gin.Context) {
	h.transition(c, h.orderService.Lock)
}

// Unlock returns a locked order without allocations to draft
func (h *OrderHandler) Unlock(c *gin.Context) {
	h.transition(c, h.orderService.Unlock)
}

// Distribute closes distribution once every line is fully allocated
func (h *OrderHandler) Distribute(c *gin.Context) {
	h.transition(c, h.orderService.Distribute)
}

// Complete closes a settled order
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, h.orderService.Complete)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*tradeapp.OrderResponse, error)) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
