package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/lock"
	"github.com/logistics/backend/internal/infrastructure/persistence"
	"github.com/logistics/backend/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Fixture
// =============================================================================

type allocationInput struct {
	supplier uuid.UUID
	tons     string
	price    string
	currency valueobject.Currency
}

type fixture struct {
	svc         *SettlementService
	orders      *persistence.OrderRepository
	allocations *persistence.AllocationRepository
	payments    *persistence.PaymentRepository
	converter   *service.UnitConversionService
	eventTypes  []string
}

func (f *fixture) Handle(_ context.Context, e shared.DomainEvent) error {
	f.eventTypes = append(f.eventTypes, e.EventType())
	return nil
}

func (f *fixture) EventTypes() []string { return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	f := &fixture{
		orders:      persistence.NewOrderRepository(s),
		allocations: persistence.NewAllocationRepository(s),
		payments:    persistence.NewPaymentRepository(s),
		converter:   service.NewUnitConversionService(decimal.NewFromInt(26)),
	}
	f.svc = NewSettlementService(f.orders, f.allocations, f.payments, lock.NewMemoryLocker(), zap.NewNop())

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(f)
	f.svc.SetEventPublisher(bus)
	return f
}

// distributedOrder stores an order with one line per allocation, fully
// allocated and moved to Distributed
func (f *fixture) distributedOrder(t *testing.T, inputs ...allocationInput) (*trade.Order, []distribution.Allocation) {
	t.Helper()
	ctx := context.Background()

	specs := make([]trade.LineSpec, 0, len(inputs))
	for _, in := range inputs {
		specs = append(specs, trade.LineSpec{ItemID: uuid.New(), Quantity: decimal.RequireFromString(in.tons), Unit: valueobject.UnitTon})
	}
	order, err := trade.NewOrder("ORD-"+uuid.NewString()[:4], "tester", nil, specs, f.converter)
	require.NoError(t, err)
	require.NoError(t, order.Lock("tester"))

	ledger := distribution.NewLedger(order, nil)
	for i, in := range inputs {
		_, err := ledger.Allocate(distribution.AllocationSpec{
			OrderLineID:           order.Lines[i].ID,
			SupplierID:            in.supplier,
			Quantity:              decimal.RequireFromString(in.tons),
			Unit:                  valueobject.UnitTon,
			PricePerCanonicalUnit: decimal.RequireFromString(in.price),
			Currency:              in.currency,
		}, f.converter, "tester")
		require.NoError(t, err)
	}
	require.NoError(t, f.allocations.SaveLedger(ctx, ledger))
	require.NoError(t, order.MarkDistributed(ledger.IsFullyAllocated(), "tester"))
	order.ClearDomainEvents()
	require.NoError(t, f.orders.Save(ctx, order))
	return order, ledger.Allocations()
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func group(t *testing.T, summary *SettlementSummaryResponse, supplier uuid.UUID, currency string) SupplierSettlementResponse {
	t.Helper()
	for _, g := range summary.Suppliers {
		if g.SupplierID == supplier && g.Currency == currency {
			return g
		}
	}
	t.Fatalf("no settlement group for %s %s", supplier, currency)
	return SupplierSettlementResponse{}
}

// =============================================================================
// Current-mode payments
// =============================================================================

func TestSettlementService_PrepaymentThenPayoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "10", price: "100", currency: valueobject.USD})

	payment, err := f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		SupplierID: x, Currency: "USD", Type: "PREPAYMENT", Amount: amount("400"),
	})
	require.NoError(t, err)
	assert.Equal(t, "distributed", payment.OrderStatus)
	assert.Equal(t, "$400.00", payment.AmountLabel)

	summary, err := f.svc.Summary(ctx, order.ID)
	require.NoError(t, err)
	g := group(t, summary, x, "USD")
	assert.True(t, decimal.NewFromInt(600).Equal(g.Remaining))
	assert.Equal(t, "PARTIAL", g.Status)

	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		SupplierID: x, Currency: "USD", Type: "PAYOFF", Amount: amount("700"),
	})
	assert.ErrorIs(t, err, shared.ErrAmountExceedsRemaining)

	payoff, err := f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		SupplierID: x, Currency: "USD", Type: "PAYOFF", Amount: amount("600"),
	})
	require.NoError(t, err)
	assert.Equal(t, "financial", payoff.OrderStatus)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusFinancial, stored.Status)
	assert.Contains(t, f.eventTypes, trade.EventTypeOrderStatusChanged)

	summary, err = f.svc.Summary(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.FullySettled)
	assert.Equal(t, "PAID", group(t, summary, x, "USD").Status)
}

func TestSettlementService_PayoffWithoutAmountPaysRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "2", price: "150.25", currency: valueobject.USD})

	payment, err := f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PAYOFF"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("300.5").Equal(payment.Amount))
	assert.Equal(t, "financial", payment.OrderStatus)

	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT"})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestSettlementService_CurrenciesStayIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t,
		allocationInput{supplier: x, tons: "10", price: "100", currency: valueobject.USD},
		allocationInput{supplier: x, tons: "5", price: "1000000", currency: valueobject.UZS},
	)

	_, err := f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Currency: "USD", Type: "PAYOFF"})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "distributed", summary.Status)
	assert.False(t, summary.FullySettled)
	assert.True(t, group(t, summary, x, "USD").Remaining.IsZero())
	uzs := group(t, summary, x, "UZS")
	assert.True(t, decimal.NewFromInt(5000000).Equal(uzs.Remaining))
	assert.Equal(t, "5 000 000 UZS", uzs.RemainingLabel)

	require.Len(t, summary.Totals, 2)
	assert.Equal(t, "USD", summary.Totals[0].Currency)
	assert.Equal(t, "$1,000.00", summary.Totals[0].PaidLabel)
	assert.Equal(t, "UZS", summary.Totals[1].Currency)
}

func TestSettlementService_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "1", price: "100", currency: valueobject.USD})

	tests := []struct {
		name string
		req  RecordPaymentRequest
		err  error
	}{
		{"zero amount", RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("0")}, shared.ErrInvalidAmount},
		{"negative amount", RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("-5")}, shared.ErrInvalidAmount},
		{"no exposure in currency", RecordPaymentRequest{SupplierID: x, Currency: "UZS", Type: "PREPAYMENT", Amount: amount("1")}, shared.ErrAmountExceedsRemaining},
		{"unknown supplier", RecordPaymentRequest{SupplierID: uuid.New(), Type: "PREPAYMENT", Amount: amount("1")}, shared.ErrAmountExceedsRemaining},
		{"unknown currency", RecordPaymentRequest{SupplierID: x, Currency: "EUR", Type: "PREPAYMENT", Amount: amount("1")}, shared.ErrInvalidCurrency},
		{"unknown type", RecordPaymentRequest{SupplierID: x, Type: "REFUND", Amount: amount("1")}, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordPayment(ctx, order.ID, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSettlementService_RequiresDistributedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := trade.NewOrder("ORD-777", "tester", nil, nil, f.converter)
	require.NoError(t, err)
	require.NoError(t, f.orders.Save(ctx, order))

	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: uuid.New(), Type: "PAYOFF"})
	assert.ErrorIs(t, err, shared.ErrOrderNotEditable)

	_, err = f.svc.Summary(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// =============================================================================
// Legacy payments
// =============================================================================

func TestSettlementService_LegacyAndCurrentPaymentsMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, allocations := f.distributedOrder(t,
		allocationInput{supplier: x, tons: "4", price: "100", currency: valueobject.USD},
		allocationInput{supplier: x, tons: "6", price: "100", currency: valueobject.USD},
	)

	_, err := f.svc.RecordLegacyPayment(ctx, allocations[0].ID, RecordLegacyPaymentRequest{Type: "PREPAYMENT", Amount: amount("300")})
	require.NoError(t, err)

	// the group owes 1000, 300 of it paid against the first allocation
	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("701")})
	assert.ErrorIs(t, err, shared.ErrAmountExceedsRemaining)

	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("500")})
	require.NoError(t, err)

	// the second allocation has 600 of its own but the group only 200
	_, err = f.svc.RecordLegacyPayment(ctx, allocations[1].ID, RecordLegacyPaymentRequest{Type: "PAYOFF", Amount: amount("300")})
	assert.ErrorIs(t, err, shared.ErrAmountExceedsRemaining)

	final, err := f.svc.RecordLegacyPayment(ctx, allocations[1].ID, RecordLegacyPaymentRequest{Type: "PAYOFF"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(final.Amount))
	assert.Equal(t, "financial", final.OrderStatus)

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, final.ID, history[0].ID)
	assert.Equal(t, "allocation", history[0].TargetKind)
	assert.Equal(t, "supplier_order", history[1].TargetKind)
}

func TestSettlementService_LegacyPayment_CurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, allocations := f.distributedOrder(t, allocationInput{supplier: uuid.New(), tons: "1", price: "100", currency: valueobject.UZS})

	_, err := f.svc.RecordLegacyPayment(ctx, allocations[0].ID, RecordLegacyPaymentRequest{Currency: "USD", Type: "PAYOFF"})
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)

	_, err = f.svc.RecordLegacyPayment(ctx, uuid.New(), RecordLegacyPaymentRequest{Type: "PAYOFF"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSettlementService_HistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "10", price: "100", currency: valueobject.USD})

	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("1"), Date: &newer})
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PREPAYMENT", Amount: amount("2"), Date: &older, Comment: "backdated"})
	require.NoError(t, err)

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Date.Equal(newer))
	assert.Equal(t, "backdated", history[1].Comment)
}

// =============================================================================
// Reconciliation
// =============================================================================

// failingOrderSaves fails the next n order saves
type failingOrderSaves struct {
	*persistence.OrderRepository
	n int
}

func (r *failingOrderSaves) Save(ctx context.Context, order *trade.Order) error {
	if r.n > 0 {
		r.n--
		return errors.New("disk full")
	}
	return r.OrderRepository.Save(ctx, order)
}

func TestSettlementService_Reconcile_AfterFailedOrderSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "10", price: "100", currency: valueobject.USD})

	orders := &failingOrderSaves{OrderRepository: f.orders, n: 1}
	svc := NewSettlementService(orders, f.allocations, f.payments, lock.NewMemoryLocker(), zap.NewNop())

	_, err := svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{
		SupplierID: x, Currency: "USD", Type: "PAYOFF", Amount: amount("1000"),
	})
	require.EqualError(t, err, "disk full")

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusDistributed, stored.Status)

	summary, err := svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.FullySettled)
	assert.Len(t, summary.Suppliers, 1)

	stored, err = f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusFinancial, stored.Status)

	history, err := svc.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSettlementService_RecordPayment_ReconcilesStrandedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "1", price: "300", currency: valueobject.USD})

	orders := &failingOrderSaves{OrderRepository: f.orders, n: 1}
	svc := NewSettlementService(orders, f.allocations, f.payments, lock.NewMemoryLocker(), zap.NewNop())
	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(f)
	svc.SetEventPublisher(bus)

	_, err := svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PAYOFF"})
	require.Error(t, err)
	assert.Equal(t, []string{finance.EventTypePaymentRecorded}, f.eventTypes)

	// nothing is left to pay, but the attempt still moves the order on
	_, err = svc.RecordPayment(ctx, order.ID, RecordPaymentRequest{SupplierID: x, Type: "PAYOFF"})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusFinancial, stored.Status)
	assert.Contains(t, f.eventTypes, trade.EventTypeOrderStatusChanged)
}

func TestSettlementService_Reconcile_OpenBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := uuid.New()
	order, _ := f.distributedOrder(t, allocationInput{supplier: x, tons: "2", price: "100", currency: valueobject.USD})

	summary, err := f.svc.Reconcile(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, summary.FullySettled)

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusDistributed, stored.Status)
	assert.Empty(t, f.eventTypes)

	_, err = f.svc.Reconcile(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
