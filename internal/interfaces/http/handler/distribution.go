package handler

import (
	"github.com/gin-gonic/gin"
	distributionapp "github.com/logistics/backend/internal/application/distribution"
)

// DistributionHandler serves the allocation ledger of an order
type DistributionHandler struct {
	BaseHandler
	allocationService *distributionapp.AllocationService
}

// NewDistributionHandler creates a new DistributionHandler
func NewDistributionHandler(allocationService *distributionapp.AllocationService) *DistributionHandler {
	return &DistributionHandler{allocationService: allocationService}
}

// Get returns requested, allocated and remaining quantities per line
func (h *DistributionHandler) Get(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	view, err := h.allocationService.Distribution(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Allocate assigns part of a line to a supplier
func (h *DistributionHandler) Allocate(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req distributionapp.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	allocation, err := h.allocationService.Allocate(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, allocation)
}

// Replace swaps an allocation for a new one in a single step
func (h *DistributionHandler) Replace(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	allocationID, ok := h.ParamUUID(c, "allocationId")
	if !ok {
		return
	}
	var req distributionapp.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	allocation, err := h.allocationService.Replace(c.Request.Context(), orderID, allocationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocation)
}

// Deallocate removes an allocation
func (h *DistributionHandler) Deallocate(c *gin.Context) {
	orderID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	allocationID, ok := h.ParamUUID(c, "allocationId")
	if !ok {
		return
	}
	if err := h.allocationService.Deallocate(c.Request.Context(), orderID, allocationID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
