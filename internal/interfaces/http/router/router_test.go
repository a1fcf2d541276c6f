package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditapp "github.com/logistics/backend/internal/application/audit"
	catalogapp "github.com/logistics/backend/internal/application/catalog"
	distributionapp "github.com/logistics/backend/internal/application/distribution"
	financeapp "github.com/logistics/backend/internal/application/finance"
	partnerapp "github.com/logistics/backend/internal/application/partner"
	tradeapp "github.com/logistics/backend/internal/application/trade"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/lock"
	"github.com/logistics/backend/internal/infrastructure/persistence"
	"github.com/logistics/backend/internal/infrastructure/store"
	"github.com/logistics/backend/internal/interfaces/http/dto"
	"github.com/logistics/backend/internal/interfaces/http/handler"
	"github.com/logistics/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestDomainGroup_RegistersUnderVersionPrefix(t *testing.T) {
	engine := gin.New()
	var seen []string
	group := NewDomainGroup("orders", "/orders").
		Use(func(c *gin.Context) {
			seen = append(seen, "mw")
			c.Next()
		}).
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	group.Group("lines", "/:id/lines").
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) })

	NewRouter(engine, WithAPIVersion("v3")).Register(group).Setup()

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v3/orders/42", http.StatusOK},
		{http.MethodDelete, "/api/v3/orders/42", http.StatusNoContent},
		{http.MethodPost, "/api/v3/orders/42/lines", http.StatusCreated},
		{http.MethodGet, "/api/v1/orders/42", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, "orders", group.Name())
	assert.Equal(t, "/orders", group.Prefix())
}

// =============================================================================
// Ledger API
// =============================================================================

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func newLedgerAPI(t *testing.T) *apiClient {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	s := store.NewMemoryStore()
	orders := persistence.NewOrderRepository(s)
	allocations := persistence.NewAllocationRepository(s)
	payments := persistence.NewPaymentRepository(s)
	items := persistence.NewItemRepository(s)
	suppliers := persistence.NewSupplierRepository(s)
	audits := persistence.NewAuditRepository(s)
	converter := service.NewUnitConversionService(decimal.NewFromInt(26))
	locker := lock.NewMemoryLocker()
	log := zap.NewNop()

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(auditapp.NewRecorder(audits))

	orderService := tradeapp.NewOrderService(orders, allocations, items, converter,
		trade.NewOrderNumberSequence("", nil), locker, log)
	orderService.SetEventPublisher(bus)
	allocationService := distributionapp.NewAllocationService(orders, allocations, payments, suppliers, converter, locker, log)
	allocationService.SetEventPublisher(bus)
	settlementService := financeapp.NewSettlementService(orders, allocations, payments, locker, log)
	settlementService.SetEventPublisher(bus)

	engine := gin.New()
	engine.Use(middleware.Actor(middleware.ActorConfig{AllowHeaderActor: true}))
	NewRouter(engine).Register(LedgerGroups(Handlers{
		System:       handler.NewSystemHandler("ledger", "test"),
		Orders:       handler.NewOrderHandler(orderService),
		Distribution: handler.NewDistributionHandler(allocationService),
		Settlement:   handler.NewSettlementHandler(settlementService),
		Suppliers:    handler.NewSupplierHandler(partnerapp.NewSupplierService(suppliers)),
		Items:        handler.NewItemHandler(catalogapp.NewItemService(items)),
		Audit:        handler.NewAuditHandler(auditapp.NewQueryService(audits)),
	})...).Setup()

	return &apiClient{t: t, engine: engine}
}

func (a *apiClient) do(method, path string, body any) (int, envelope) {
	a.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, "alice")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *apiClient) mustDo(method, path string, body any, status int, out any) {
	a.t.Helper()
	code, env := a.do(method, path, body)
	require.Equal(a.t, status, code, "%s %s: %+v", method, path, env.Error)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func TestLedgerAPI_OrderToSettlement(t *testing.T) {
	api := newLedgerAPI(t)

	var item catalogapp.ItemResponse
	api.mustDo(http.MethodPost, "/items", map[string]any{"name": "Cement", "unit": "t"}, http.StatusCreated, &item)
	var supplier partnerapp.SupplierResponse
	api.mustDo(http.MethodPost, "/suppliers", map[string]any{"name": "Northern Mill"}, http.StatusCreated, &supplier)

	var order tradeapp.OrderResponse
	api.mustDo(http.MethodPost, "/orders", map[string]any{
		"lines": []map[string]any{{"item_id": item.ID, "quantity": "1500", "unit": "kg"}},
	}, http.StatusCreated, &order)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "draft", order.Status)
	assert.Equal(t, "alice", order.CreatedBy)
	assert.True(t, order.TotalTons.Equal(decimal.RequireFromString("1.5")))

	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/lock", nil, http.StatusOK, &order)
	assert.Equal(t, "locked", order.Status)

	var allocation distributionapp.AllocationResponse
	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/allocations", map[string]any{
		"order_line_id": order.Lines[0].ID,
		"supplier_id":   supplier.ID,
		"quantity":      "1.5",
		"unit":          "t",
		"price_per_ton": "200",
		"currency":      "USD",
	}, http.StatusCreated, &allocation)
	assert.True(t, allocation.TotalSum.Equal(decimal.NewFromInt(300)))

	var dist distributionapp.DistributionResponse
	api.mustDo(http.MethodGet, "/orders/"+order.ID.String()+"/distribution", nil, http.StatusOK, &dist)
	assert.True(t, dist.FullyAllocated)

	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/distribute", nil, http.StatusOK, &order)
	assert.Equal(t, "distributed", order.Status)

	var payment financeapp.PaymentResponse
	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/payments", map[string]any{
		"supplier_id": supplier.ID,
		"type":        "PAYOFF",
	}, http.StatusCreated, &payment)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "financial", payment.OrderStatus)

	var summary financeapp.SettlementSummaryResponse
	api.mustDo(http.MethodGet, "/orders/"+order.ID.String()+"/settlement", nil, http.StatusOK, &summary)
	assert.True(t, summary.FullySettled)
	require.Len(t, summary.Suppliers, 1)
	assert.True(t, summary.Suppliers[0].Remaining.IsZero())

	var reconciled financeapp.SettlementSummaryResponse
	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/settlement/reconcile", nil, http.StatusOK, &reconciled)
	assert.True(t, reconciled.FullySettled)

	var history []financeapp.PaymentResponse
	api.mustDo(http.MethodGet, "/orders/"+order.ID.String()+"/payments", nil, http.StatusOK, &history)
	assert.Len(t, history, 1)

	api.mustDo(http.MethodPost, "/orders/"+order.ID.String()+"/complete", nil, http.StatusOK, &order)
	assert.Equal(t, "completed", order.Status)

	var logs []auditapp.LogResponse
	api.mustDo(http.MethodGet, "/audit-logs?entity_id="+order.ID.String(), nil, http.StatusOK, &logs)
	assert.NotEmpty(t, logs)
	for _, l := range logs {
		assert.Equal(t, order.ID, l.EntityID)
	}

	var listed []tradeapp.OrderListItemResponse
	api.mustDo(http.MethodGet, "/orders?status=completed", nil, http.StatusOK, &listed)
	assert.Len(t, listed, 1)
}

func TestLedgerAPI_ErrorMapping(t *testing.T) {
	api := newLedgerAPI(t)

	var item catalogapp.ItemResponse
	api.mustDo(http.MethodPost, "/items", map[string]any{"name": "Sand", "unit": "t"}, http.StatusCreated, &item)
	var supplier partnerapp.SupplierResponse
	api.mustDo(http.MethodPost, "/suppliers", map[string]any{"name": "Quarry"}, http.StatusCreated, &supplier)
	var order tradeapp.OrderResponse
	api.mustDo(http.MethodPost, "/orders", map[string]any{
		"lines": []map[string]any{{"item_id": item.ID, "quantity": "2", "unit": "t"}},
	}, http.StatusCreated, &order)
	orderPath := "/orders/" + order.ID.String()

	t.Run("unknown order is 404", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/orders/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unsupported unit is 400", func(t *testing.T) {
		code, env := api.do(http.MethodPost, orderPath+"/lines", map[string]any{
			"item_id": item.ID, "quantity": "1", "unit": "container",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	})

	t.Run("allocating a draft order is 422", func(t *testing.T) {
		code, env := api.do(http.MethodPost, orderPath+"/allocations", map[string]any{
			"order_line_id": order.Lines[0].ID, "supplier_id": supplier.ID,
			"quantity": "1", "unit": "t", "price_per_ton": "10",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.NotNil(t, env.Error)
	})

	api.mustDo(http.MethodPost, orderPath+"/lock", nil, http.StatusOK, nil)

	t.Run("over-allocation is 422", func(t *testing.T) {
		code, env := api.do(http.MethodPost, orderPath+"/allocations", map[string]any{
			"order_line_id": order.Lines[0].ID, "supplier_id": supplier.ID,
			"quantity": "2.5", "unit": "t", "price_per_ton": "10",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, dto.ErrCodeOverAllocation, env.Error.Code)
	})

	t.Run("distributing an incomplete order is 422", func(t *testing.T) {
		code, env := api.do(http.MethodPost, orderPath+"/distribute", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, dto.ErrCodeIncompleteAllocation, env.Error.Code)
	})

	t.Run("health needs no actor", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, env.Success)
	})
}
