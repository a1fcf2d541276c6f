package telemetry

import (
	"context"

	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrCurrency    = attribute.Key("currency")
	AttrPaymentType = attribute.Key("payment_type")
	AttrTargetKind  = attribute.Key("target_kind")
	AttrStatus      = attribute.Key("status")
)

// LedgerMetrics counts ledger activity. It subscribes to the event bus so
// services never call it directly.
type LedgerMetrics struct {
	ordersCreated      *Counter
	statusChanges      *Counter
	allocationsCreated *Counter
	allocationsRemoved *Counter
	allocatedTons      *FloatCounter
	payments           *Counter
	paidAmount         *FloatCounter
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &LedgerMetrics{}
	var err error
	if m.ordersCreated, err = NewCounter(meter, "ledger_order_created_total", "Total number of orders created", "{orders}"); err != nil {
		return nil, err
	}
	if m.statusChanges, err = NewCounter(meter, "ledger_order_status_changed_total", "Order lifecycle transitions by target status", "{transitions}"); err != nil {
		return nil, err
	}
	if m.allocationsCreated, err = NewCounter(meter, "ledger_allocation_created_total", "Total number of allocations created", "{allocations}"); err != nil {
		return nil, err
	}
	if m.allocationsRemoved, err = NewCounter(meter, "ledger_allocation_removed_total", "Total number of allocations removed", "{allocations}"); err != nil {
		return nil, err
	}
	if m.allocatedTons, err = NewFloatCounter(meter, "ledger_allocated_tons_total", "Tons allocated to suppliers", "t"); err != nil {
		return nil, err
	}
	if m.payments, err = NewCounter(meter, "ledger_payment_total", "Total number of recorded payments", "{payments}"); err != nil {
		return nil, err
	}
	if m.paidAmount, err = NewFloatCounter(meter, "ledger_payment_amount_total", "Sum of recorded payments per currency", "{amount}"); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *LedgerMetrics) EventTypes() []string {
	return []string{
		trade.EventTypeOrderCreated,
		trade.EventTypeOrderStatusChanged,
		distribution.EventTypeAllocationCreated,
		distribution.EventTypeAllocationRemoved,
		finance.EventTypePaymentRecorded,
	}
}

// Handle implements shared.EventHandler
func (m *LedgerMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.OrderCreatedEvent:
		m.ordersCreated.Inc(ctx)
	case *trade.OrderStatusChangedEvent:
		m.statusChanges.Inc(ctx, AttrStatus.String(e.To.String()))
	case *distribution.AllocationCreatedEvent:
		m.allocationsCreated.Inc(ctx, AttrCurrency.String(e.Currency))
		m.allocatedTons.Add(ctx, e.QuantityInTons.InexactFloat64())
	case *distribution.AllocationRemovedEvent:
		m.allocationsRemoved.Inc(ctx)
	case *finance.PaymentRecordedEvent:
		attrs := []attribute.KeyValue{
			AttrCurrency.String(e.Currency),
			AttrPaymentType.String(e.Type.String()),
			AttrTargetKind.String(string(e.TargetKind)),
		}
		m.payments.Inc(ctx, attrs...)
		m.paidAmount.Add(ctx, e.Amount.InexactFloat64(), AttrCurrency.String(e.Currency))
	}
	return nil
}

var _ shared.EventHandler = (*LedgerMetrics)(nil)
