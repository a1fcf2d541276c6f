package router

import (
	"github.com/logistics/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoint handlers of the ledger API
type Handlers struct {
	System       *handler.SystemHandler
	Orders       *handler.OrderHandler
	Distribution *handler.DistributionHandler
	Settlement   *handler.SettlementHandler
	Suppliers    *handler.SupplierHandler
	Items        *handler.ItemHandler
	Audit        *handler.AuditHandler
}

// LedgerGroups returns the route groups of the ledger API
func LedgerGroups(h Handlers) []RouteRegistrar {
	orders := NewDomainGroup("orders", "/orders").
		POST("", h.Orders.Create).
		GET("", h.Orders.List).
		GET("/:id", h.Orders.GetByID).
		DELETE("/:id", h.Orders.Delete).
		POST("/:id/lines", h.Orders.AddLine).
		DELETE("/:id/lines/:lineId", h.Orders.RemoveLine).
		POST("/:id/lock", h.Orders.Lock).
		POST("/:id/unlock", h.Orders.Unlock).
		POST("/:id/distribute", h.Orders.Distribute).
		POST("/:id/complete", h.Orders.Complete).
		GET("/:id/distribution", h.Distribution.Get).
		POST("/:id/allocations", h.Distribution.Allocate).
		PUT("/:id/allocations/:allocationId", h.Distribution.Replace).
		DELETE("/:id/allocations/:allocationId", h.Distribution.Deallocate).
		GET("/:id/settlement", h.Settlement.Summary).
		POST("/:id/settlement/reconcile", h.Settlement.Reconcile).
		GET("/:id/payments", h.Settlement.History).
		POST("/:id/payments", h.Settlement.RecordPayment)

	allocations := NewDomainGroup("allocations", "/allocations").
		POST("/:allocationId/payments", h.Settlement.RecordLegacyPayment)

	suppliers := NewDomainGroup("suppliers", "/suppliers").
		POST("", h.Suppliers.Create).
		GET("", h.Suppliers.List).
		GET("/:id", h.Suppliers.GetByID)

	items := NewDomainGroup("items", "/items").
		POST("", h.Items.Create).
		GET("", h.Items.List).
		GET("/:id", h.Items.GetByID)

	audit := NewDomainGroup("audit", "/audit-logs").
		GET("", h.Audit.List)

	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health)

	return []RouteRegistrar{orders, allocations, suppliers, items, audit, system}
}
