package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testActor = "finance"

var converter = service.NewUnitConversionService(service.DefaultContainerTonnage)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amount(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

type fixture struct {
	order       *trade.Order
	allocations []distribution.Allocation
}

// allocation describes one allocation: supplier, tons, price, currency
type allocation struct {
	supplier uuid.UUID
	tons     string
	price    string
	currency valueobject.Currency
}

// distributedOrder builds an order with one line that is fully allocated
// as described, and moves it to Distributed.
func distributedOrder(t *testing.T, allocs ...allocation) fixture {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(d(a.tons))
	}
	order, err := trade.NewOrder("ORD-010", testActor, nil,
		[]trade.LineSpec{{ItemID: uuid.New(), Quantity: total, Unit: valueobject.UnitTon}}, converter)
	require.NoError(t, err)
	require.NoError(t, order.Lock(testActor))

	ledger := distribution.NewLedger(order, nil)
	for _, a := range allocs {
		_, err := ledger.Allocate(distribution.AllocationSpec{
			OrderLineID:           order.Lines[0].ID,
			SupplierID:            a.supplier,
			Quantity:              d(a.tons),
			Unit:                  valueobject.UnitTon,
			PricePerCanonicalUnit: d(a.price),
			Currency:              a.currency,
		}, converter, testActor)
		require.NoError(t, err)
	}
	require.NoError(t, order.MarkDistributed(ledger.IsFullyAllocated(), testActor))
	return fixture{order: order, allocations: ledger.Allocations()}
}

func supplierPayment(f fixture, supplier uuid.UUID, currency valueobject.Currency, typ PaymentType, amt *decimal.Decimal) PaymentRequest {
	return PaymentRequest{
		Target: SupplierOrderTarget(supplier, f.order.ID, currency),
		Type:   typ,
		Amount: amt,
	}
}

// ============================================
// Scenario: prepayment then payoff
// ============================================

func TestLedger_PrepaymentThenPayoff(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t, allocation{x, "10", "100", valueobject.USD})
	ledger := NewLedger(f.order, f.allocations, nil)

	assert.True(t, d("1000").Equal(ledger.RemainingForSupplier(x, valueobject.USD)))

	_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePrepayment, amount("400")), testActor)
	require.NoError(t, err)
	assert.True(t, d("600").Equal(ledger.RemainingForSupplier(x, valueobject.USD)))
	assert.Equal(t, trade.OrderStatusDistributed, f.order.Status)

	t.Run("amount above remaining is rejected", func(t *testing.T) {
		_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePayoff, amount("700")), testActor)
		assert.ErrorIs(t, err, shared.ErrAmountExceedsRemaining)
		assert.Len(t, ledger.Payments(), 1)
	})

	_, err = ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePayoff, amount("600")), testActor)
	require.NoError(t, err)
	assert.True(t, ledger.RemainingForSupplier(x, valueobject.USD).IsZero())
	assert.True(t, ledger.IsFullySettled())
	assert.Equal(t, trade.OrderStatusFinancial, f.order.Status)
	assert.Len(t, ledger.Events(), 2)
}

func TestLedger_PayoffWithoutAmountPaysRemaining(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t, allocation{x, "2", "125.5", valueobject.USD})
	ledger := NewLedger(f.order, f.allocations, nil)

	p, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePayoff, nil), testActor)
	require.NoError(t, err)
	assert.True(t, d("251").Equal(p.Amount))
	assert.Equal(t, trade.OrderStatusFinancial, f.order.Status)

	_, err = ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePrepayment, nil), testActor)
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestLedger_InvalidAmounts(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t, allocation{x, "1", "10", valueobject.USD})
	ledger := NewLedger(f.order, f.allocations, nil)

	for _, amt := range []string{"0", "-5"} {
		_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePrepayment, amount(amt)), testActor)
		assert.ErrorIs(t, err, shared.ErrInvalidAmount, amt)
	}
	assert.Empty(t, ledger.Payments())
}

// ============================================
// Currency isolation
// ============================================

func TestLedger_CurrenciesAreIndependent(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t,
		allocation{x, "5", "100", valueobject.USD},
		allocation{x, "5", "1200000", valueobject.UZS},
	)
	ledger := NewLedger(f.order, f.allocations, nil)
	uzsBefore := ledger.RemainingForSupplier(x, valueobject.UZS)

	_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePayoff, amount("500")), testActor)
	require.NoError(t, err)

	assert.True(t, ledger.RemainingForSupplier(x, valueobject.USD).IsZero())
	assert.True(t, uzsBefore.Equal(ledger.RemainingForSupplier(x, valueobject.UZS)))
	assert.False(t, ledger.IsFullySettled())
	assert.Equal(t, trade.OrderStatusDistributed, f.order.Status)

	totals := ledger.Totals()
	require.Len(t, totals, 2)
	assert.Equal(t, valueobject.USD, totals[0].Currency)
	assert.True(t, totals[0].Remaining.IsZero())
	assert.Equal(t, valueobject.UZS, totals[1].Currency)
	assert.True(t, d("6000000").Equal(totals[1].Remaining))
}

func TestLedger_CurrencyMismatch(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t, allocation{x, "1", "10", valueobject.UZS})
	ledger := NewLedger(f.order, f.allocations, nil)

	req := supplierPayment(f, x, valueobject.UZS, PaymentTypePrepayment, amount("1"))
	req.Currency = valueobject.USD
	_, err := ledger.RecordPayment(req, testActor)
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)

	legacy := PaymentRequest{Target: LegacyAllocationTarget(f.allocations[0].ID), Type: PaymentTypePrepayment, Amount: amount("1"), Currency: valueobject.USD}
	_, err = ledger.RecordPayment(legacy, testActor)
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
}

// ============================================
// Legacy and current addressing
// ============================================

func TestLedger_MergesLegacyAndCurrentPayments(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t,
		allocation{x, "4", "100", valueobject.USD},
		allocation{x, "6", "100", valueobject.USD},
	)
	legacy := PaymentOperation{
		ID:       uuid.New(),
		Target:   LegacyAllocationTarget(f.allocations[0].ID),
		OrderID:  f.order.ID,
		Type:     PaymentTypePrepayment,
		Amount:   d("300"),
		Currency: valueobject.USD,
		Date:     time.Now().Add(-time.Hour),
	}
	current := PaymentOperation{
		ID:       uuid.New(),
		Target:   SupplierOrderTarget(x, f.order.ID, valueobject.USD),
		OrderID:  f.order.ID,
		Type:     PaymentTypePrepayment,
		Amount:   d("200"),
		Currency: valueobject.USD,
		Date:     time.Now(),
	}
	ledger := NewLedger(f.order, f.allocations, []PaymentOperation{legacy, current})
	key := GroupKey{SupplierID: x, Currency: valueobject.USD}

	assert.True(t, d("1000").Equal(ledger.Exposure(key)))
	assert.True(t, d("500").Equal(ledger.PaidSoFar(key)))
	assert.True(t, d("500").Equal(ledger.RemainingForSupplier(x, valueobject.USD)))

	t.Run("legacy target is capped by its allocation", func(t *testing.T) {
		_, err := ledger.RecordPayment(PaymentRequest{
			Target: LegacyAllocationTarget(f.allocations[0].ID),
			Type:   PaymentTypePayoff,
			Amount: amount("150"),
		}, testActor)
		assert.ErrorIs(t, err, shared.ErrAmountExceedsRemaining)

		p, err := ledger.RecordPayment(PaymentRequest{
			Target: LegacyAllocationTarget(f.allocations[0].ID),
			Type:   PaymentTypePayoff,
		}, testActor)
		require.NoError(t, err)
		assert.True(t, d("100").Equal(p.Amount))
		assert.Equal(t, valueobject.USD, p.Currency)
	})

	t.Run("current payoff settles the rest", func(t *testing.T) {
		_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePayoff, amount("400")), testActor)
		require.NoError(t, err)
		assert.True(t, ledger.IsFullySettled())
		assert.Equal(t, trade.OrderStatusFinancial, f.order.Status)
	})

	history := ledger.History()
	require.Len(t, history, 4)
	assert.Equal(t, legacy.ID, history[len(history)-1].ID, "oldest payment last")
}

func TestLedger_TargetValidation(t *testing.T) {
	x := uuid.New()
	f := distributedOrder(t, allocation{x, "1", "10", valueobject.USD})
	ledger := NewLedger(f.order, f.allocations, nil)

	tests := []struct {
		name    string
		req     PaymentRequest
		wantErr error
	}{
		{"unknown allocation", PaymentRequest{Target: LegacyAllocationTarget(uuid.New()), Type: PaymentTypePrepayment, Amount: amount("1")}, shared.ErrNotFound},
		{"other order", PaymentRequest{Target: SupplierOrderTarget(x, uuid.New(), valueobject.USD), Type: PaymentTypePrepayment, Amount: amount("1")}, shared.ErrInvalidInput},
		{"unknown type", PaymentRequest{Target: SupplierOrderTarget(x, f.order.ID, valueobject.USD), Type: "REFUND", Amount: amount("1")}, shared.ErrInvalidInput},
		{"empty target", PaymentRequest{Type: PaymentTypePrepayment, Amount: amount("1")}, shared.ErrInvalidInput},
		{"supplier without exposure", supplierPayment(f, uuid.New(), valueobject.USD, PaymentTypePrepayment, amount("1")), shared.ErrAmountExceedsRemaining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.RecordPayment(tt.req, testActor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLedger_RejectsPaymentsBeforeDistribution(t *testing.T) {
	order, err := trade.NewOrder("ORD-011", testActor, nil, nil, converter)
	require.NoError(t, err)
	ledger := NewLedger(order, nil, nil)

	_, err = ledger.RecordPayment(PaymentRequest{
		Target: SupplierOrderTarget(uuid.New(), order.ID, valueobject.USD),
		Type:   PaymentTypePrepayment,
		Amount: amount("1"),
	}, testActor)
	assert.ErrorIs(t, err, shared.ErrOrderNotEditable)
}

// ============================================
// Summaries
// ============================================

func TestLedger_Groups(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	f := distributedOrder(t,
		allocation{x, "1", "100", valueobject.USD},
		allocation{y, "1", "50", valueobject.USD},
		allocation{x, "1", "100", valueobject.USD},
	)
	ledger := NewLedger(f.order, f.allocations, nil)
	_, err := ledger.RecordPayment(supplierPayment(f, x, valueobject.USD, PaymentTypePrepayment, amount("50")), testActor)
	require.NoError(t, err)
	_, err = ledger.RecordPayment(supplierPayment(f, y, valueobject.USD, PaymentTypePayoff, nil), testActor)
	require.NoError(t, err)

	groups := ledger.Groups()
	require.Len(t, groups, 2)

	assert.Equal(t, x, groups[0].SupplierID)
	assert.Equal(t, 2, groups[0].Allocations)
	assert.True(t, d("200").Equal(groups[0].Exposure))
	assert.True(t, d("150").Equal(groups[0].Remaining))
	assert.Equal(t, SettlementPartial, groups[0].Status)

	assert.Equal(t, y, groups[1].SupplierID)
	assert.Equal(t, SettlementPaid, groups[1].Status)

	assert.Equal(t, SettlementUnpaid, settlementStatus(decimal.Zero, d("1")))
}

func TestLedger_EmptyOrderIsSettled(t *testing.T) {
	order, err := trade.NewOrder("ORD-012", testActor, nil, nil, converter)
	require.NoError(t, err)
	assert.True(t, NewLedger(order, nil, nil).IsFullySettled())
}

func TestLedger_Reconcile(t *testing.T) {
	t.Run("settled distributed order moves to financial", func(t *testing.T) {
		x := uuid.New()
		f := distributedOrder(t, allocation{x, "2", "50", valueobject.USD})
		paid := PaymentOperation{
			ID:       uuid.New(),
			OrderID:  f.order.ID,
			Target:   SupplierOrderTarget(x, f.order.ID, valueobject.USD),
			Type:     PaymentTypePayoff,
			Amount:   d("100"),
			Currency: valueobject.USD,
		}
		ledger := NewLedger(f.order, f.allocations, []PaymentOperation{paid})
		require.Equal(t, trade.OrderStatusDistributed, f.order.Status)

		changed, err := ledger.Reconcile(testActor)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, trade.OrderStatusFinancial, f.order.Status)

		changed, err = ledger.Reconcile(testActor)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("open balance keeps the order distributed", func(t *testing.T) {
		f := distributedOrder(t, allocation{uuid.New(), "2", "50", valueobject.USD})
		changed, err := NewLedger(f.order, f.allocations, nil).Reconcile(testActor)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, trade.OrderStatusDistributed, f.order.Status)
	})

	t.Run("order without exposure is settled on distribution", func(t *testing.T) {
		order, err := trade.NewOrder("ORD-013", testActor, nil, nil, converter)
		require.NoError(t, err)
		require.NoError(t, order.Lock(testActor))
		require.NoError(t, order.MarkDistributed(true, testActor))

		changed, err := NewLedger(order, nil, nil).Reconcile(testActor)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, trade.OrderStatusFinancial, order.Status)
	})

	t.Run("draft order is left alone", func(t *testing.T) {
		order, err := trade.NewOrder("ORD-014", testActor, nil, nil, converter)
		require.NoError(t, err)
		changed, err := NewLedger(order, nil, nil).Reconcile(testActor)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, trade.OrderStatusDraft, order.Status)
	})
}
