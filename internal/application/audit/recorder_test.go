package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/audit"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/event"
	"github.com/logistics/backend/internal/infrastructure/persistence"
	"github.com/logistics/backend/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuditFixture() (*event.InMemoryEventBus, *persistence.AuditRepository) {
	repo := persistence.NewAuditRepository(store.NewMemoryStore())
	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewRecorder(repo))
	return bus, repo
}

func actions(logs []audit.Log) []string {
	result := make([]string, 0, len(logs))
	for _, l := range logs {
		result = append(result, l.Action)
	}
	return result
}

func TestRecorder_OrderLifecycle(t *testing.T) {
	bus, repo := newAuditFixture()
	ctx := context.Background()
	conv := service.NewUnitConversionService(decimal.NewFromInt(26))

	order, err := trade.NewOrder("ORD-001", "alice", nil, []trade.LineSpec{
		{ItemID: uuid.New(), Quantity: decimal.NewFromInt(3), Unit: valueobject.UnitTon},
	}, conv)
	require.NoError(t, err)
	require.NoError(t, order.Lock("bob"))
	require.NoError(t, order.Unlock(false, "bob"))
	require.NoError(t, order.Lock("bob"))
	require.NoError(t, order.MarkDistributed(true, ""))
	require.NoError(t, bus.Publish(ctx, order.GetDomainEvents()...))

	logs, err := repo.Find(ctx, audit.Filter{EntityID: order.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		audit.ActionCreateOrder,
		audit.ActionLockOrder,
		audit.ActionUnlockOrder,
		audit.ActionLockOrder,
		audit.ActionUpdateOrderStatus,
	}, actions(logs))

	byAction := make(map[string]audit.Log)
	for _, l := range logs {
		byAction[l.Action] = l
	}
	created := byAction[audit.ActionCreateOrder]
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, trade.AggregateTypeOrder, created.EntityType)

	var details map[string]any
	require.NoError(t, json.Unmarshal(created.Details, &details))
	assert.Equal(t, "ORD-001", details["orderNumber"])

	assert.Equal(t, shared.SystemActor, byAction[audit.ActionUpdateOrderStatus].UserID)
}

func TestRecorder_AllocationAndPaymentEvents(t *testing.T) {
	bus, repo := newAuditFixture()
	ctx := context.Background()

	allocation := distribution.Allocation{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		OrderLineID: uuid.New(),
		SupplierID:  uuid.New(),
		Currency:    valueobject.USD,
	}
	payment := finance.PaymentOperation{
		ID:       uuid.New(),
		Target:   finance.LegacyAllocationTarget(allocation.ID),
		OrderID:  allocation.OrderID,
		Type:     finance.PaymentTypePrepayment,
		Amount:   decimal.NewFromInt(10),
		Currency: valueobject.USD,
		Date:     time.Now(),
	}
	require.NoError(t, bus.Publish(ctx,
		distribution.NewAllocationCreatedEvent(allocation, "carol"),
		distribution.NewAllocationRemovedEvent(allocation, "carol"),
		finance.NewPaymentRecordedEvent(payment, "dave"),
	))

	logs, err := repo.Find(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		audit.ActionCreateAllocation,
		audit.ActionDeleteAllocation,
		audit.ActionCreatePayment,
	}, actions(logs))
}

type unknownEvent struct {
	shared.BaseDomainEvent
}

func TestRecorder_IgnoresUnmappedEvents(t *testing.T) {
	bus, repo := newAuditFixture()
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, &unknownEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("Unknown", "Thing", uuid.New(), "x"),
	}))

	logs, err := repo.Find(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestQueryService_FiltersAndLimits(t *testing.T) {
	repo := persistence.NewAuditRepository(store.NewMemoryStore())
	ctx := context.Background()
	orderID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &audit.Log{
			ID:         uuid.New(),
			Action:     audit.ActionAddOrderLine,
			EntityType: trade.AggregateTypeOrder,
			EntityID:   orderID,
			UserID:     "alice",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(ctx, &audit.Log{
		ID:         uuid.New(),
		Action:     audit.ActionCreateAllocation,
		EntityType: distribution.AggregateTypeAllocation,
		EntityID:   uuid.New(),
		UserID:     "bob",
		Timestamp:  base.Add(time.Hour),
	}))

	svc := NewQueryService(repo)

	all, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, audit.ActionCreateAllocation, all[0].Action)

	limited, err := svc.List(ctx, ListRequest{EntityID: orderID.String(), Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.True(t, limited[0].Timestamp.Equal(base.Add(4*time.Minute)))

	typed, err := svc.List(ctx, ListRequest{EntityType: distribution.AggregateTypeAllocation})
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, "bob", typed[0].UserID)

	_, err = svc.List(ctx, ListRequest{EntityID: "not-a-uuid"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
