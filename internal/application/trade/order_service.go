package trade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderService handles order creation, cart edits and lifecycle transitions
type OrderService struct {
	orderRepo      trade.OrderRepository
	allocationRepo distribution.AllocationRepository
	itemRepo       catalog.ItemRepository
	converter      trade.QuantityConverter
	sequence       *trade.OrderNumberSequence
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	allocationRepo distribution.AllocationRepository,
	itemRepo catalog.ItemRepository,
	converter trade.QuantityConverter,
	sequence *trade.OrderNumberSequence,
	locker shared.Locker,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
		itemRepo:       itemRepo,
		converter:      converter,
		sequence:       sequence,
		locker:         locker,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives events after each save
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a draft order with an optional initial cart
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create", "lines", len(req.Lines))
	defer span.End()

	specs := make([]trade.LineSpec, 0, len(req.Lines))
	for _, input := range req.Lines {
		spec, err := s.lineSpec(ctx, input)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		specs = append(specs, spec)
	}

	actor := shared.ActorFromContext(ctx)
	order, err := trade.NewOrder(s.sequence.Next(), actor, req.ContainerTonnage, specs, s.converter)
	if err != nil {
		s.log(ctx).Warn("Order rejected", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, order)

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, order.ID.String(), telemetry.SpanAttrOrderNumber, order.OrderNumber)
	s.log(ctx).Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)),
	)
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID returns one order with its lines
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List returns orders newest first, optionally filtered by status
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderListItemResponse, error) {
	var domainFilter trade.OrderFilter
	if filter.Status != "" {
		status := trade.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown order status: "+filter.Status)
		}
		domainFilter.Status = &status
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	result := make([]OrderListItemResponse, 0, len(orders))
	for i := range orders {
		result = append(result, ToOrderListItemResponse(&orders[i]))
	}
	return result, nil
}

// AddLine appends a line to a draft order
func (s *OrderService) AddLine(ctx context.Context, orderID uuid.UUID, req AddLineRequest) (*OrderResponse, error) {
	spec, err := s.lineSpec(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "add_line", orderID, func(order *trade.Order, actor string) error {
		_, err := order.AddLine(spec, s.converter, actor)
		return err
	})
}

// RemoveLine drops a line from a draft order
func (s *OrderService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, "remove_line", orderID, func(order *trade.Order, actor string) error {
		return order.RemoveLine(lineID, actor)
	})
}

// Lock closes the cart and opens distribution
func (s *OrderService) Lock(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, "lock", orderID, func(order *trade.Order, actor string) error {
		return order.Lock(actor)
	})
}

// Unlock returns a locked order to draft while nothing has been allocated
func (s *OrderService) Unlock(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, "unlock", orderID, func(order *trade.Order, actor string) error {
		allocations, err := s.allocationRepo.FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		return order.Unlock(len(allocations) > 0, actor)
	})
}

// Distribute moves a locked order forward once every line is fully allocated.
// An order that owes nothing, such as one with only zero-quantity lines,
// goes straight on to Financial.
func (s *OrderService) Distribute(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, "distribute", orderID, func(order *trade.Order, actor string) error {
		allocations, err := s.allocationRepo.FindByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		ledger := distribution.NewLedger(order, allocations)
		if err := order.MarkDistributed(ledger.IsFullyAllocated(), actor); err != nil {
			return err
		}
		// no payments can exist before distribution
		_, err = finance.NewLedger(order, allocations, nil).Reconcile(actor)
		return err
	})
}

// Complete closes a settled order
func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, "complete", orderID, func(order *trade.Order, actor string) error {
		return order.Complete(actor)
	})
}

// Delete removes a draft order and its lines
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "delete", telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	release, err := s.locker.Lock(ctx, shared.OrderLockKey(orderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	defer release()

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.MarkDeleted(shared.ActorFromContext(ctx)); err != nil {
		s.log(ctx).Warn("Order deletion rejected", zap.String("order_id", orderID.String()), zap.Error(err))
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.publish(ctx, order)

	s.log(ctx).Info("Order deleted", zap.String("order_id", orderID.String()), zap.String("order_number", order.OrderNumber))
	return nil
}

// mutate loads the order under its lock, applies fn and saves the result
func (s *OrderService) mutate(ctx context.Context, method string, orderID uuid.UUID, fn func(order *trade.Order, actor string) error) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", method, telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	release, err := s.locker.Lock(ctx, shared.OrderLockKey(orderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	from := order.Status
	if err := fn(order, shared.ActorFromContext(ctx)); err != nil {
		s.log(ctx).Warn("Order change rejected",
			zap.String("operation", method),
			zap.String("order_id", orderID.String()),
			zap.String("status", order.Status.String()),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, order)

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, order.Status.String())
	s.log(ctx).Info("Order updated",
		zap.String("operation", method),
		zap.String("order_id", orderID.String()),
		zap.String("from", from.String()),
		zap.String("status", order.Status.String()),
	)
	response := ToOrderResponse(order)
	return &response, nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Order not found")
	}
	return order, err
}

func (s *OrderService) lineSpec(ctx context.Context, input LineInput) (trade.LineSpec, error) {
	unit, err := valueobject.ParseMassUnit(input.Unit)
	if err != nil {
		return trade.LineSpec{}, err
	}
	if s.itemRepo != nil {
		if _, err := s.itemRepo.FindByID(ctx, input.ItemID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return trade.LineSpec{}, shared.NewDomainError(shared.CodeNotFound, "Item not found")
			}
			return trade.LineSpec{}, err
		}
	}
	return trade.LineSpec{ItemID: input.ItemID, Quantity: input.Quantity, Unit: unit}, nil
}

// publish hands the saved order's events to the bus. Handler failures are
// logged by the bus and never undo the save.
func (s *OrderService) publish(ctx context.Context, order *trade.Order) {
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Error("Failed to publish order events", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *OrderService) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
