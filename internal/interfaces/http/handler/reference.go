package handler

import (
	"github.com/gin-gonic/gin"
	auditapp "github.com/logistics/backend/internal/application/audit"
	catalogapp "github.com/logistics/backend/internal/application/catalog"
	partnerapp "github.com/logistics/backend/internal/application/partner"
)

// SupplierHandler serves supplier reference data
type SupplierHandler struct {
	BaseHandler
	supplierService *partnerapp.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *partnerapp.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// Create creates a supplier
func (h *SupplierHandler) Create(c *gin.Context) {
	var req partnerapp.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// List lists suppliers by name
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.supplierService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, suppliers, len(suppliers))
}

// GetByID returns one supplier
func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// ItemHandler serves goods item reference data
type ItemHandler struct {
	BaseHandler
	itemService *catalogapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *catalogapp.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// Create creates an item
func (h *ItemHandler) Create(c *gin.Context) {
	var req catalogapp.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.itemService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List lists items by name
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.itemService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, items, len(items))
}

// GetByID returns one item
func (h *ItemHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	queryService *auditapp.QueryService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(queryService *auditapp.QueryService) *AuditHandler {
	return &AuditHandler{queryService: queryService}
}

// List returns audit entries, newest first
func (h *AuditHandler) List(c *gin.Context) {
	var req auditapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	logs, err := h.queryService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, logs, len(logs))
}
