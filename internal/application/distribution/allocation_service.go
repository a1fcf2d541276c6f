package distribution

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/partner"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/service"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/format"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AllocationService distributes order lines across suppliers
type AllocationService struct {
	orderRepo      trade.OrderRepository
	allocationRepo distribution.AllocationRepository
	paymentRepo    finance.PaymentRepository
	supplierRepo   partner.SupplierRepository
	converter      *service.UnitConversionService
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	orderRepo trade.OrderRepository,
	allocationRepo distribution.AllocationRepository,
	paymentRepo finance.PaymentRepository,
	supplierRepo partner.SupplierRepository,
	converter *service.UnitConversionService,
	locker shared.Locker,
	logger *zap.Logger,
) *AllocationService {
	return &AllocationService{
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
		paymentRepo:    paymentRepo,
		supplierRepo:   supplierRepo,
		converter:      converter,
		locker:         locker,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives events after each save
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Allocate assigns part of a line to a supplier
func (s *AllocationService) Allocate(ctx context.Context, orderID uuid.UUID, req AllocateRequest) (*AllocationResponse, error) {
	spec, err := s.allocationSpec(ctx, req)
	if err != nil {
		return nil, err
	}

	var created *distribution.Allocation
	err = s.withLedger(ctx, "allocate", orderID, func(ledger *distribution.Ledger, actor string) error {
		created, err = ledger.Allocate(spec, s.converter, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Allocation created",
		zap.String("order_id", orderID.String()),
		zap.String("allocation_id", created.ID.String()),
		zap.String("supplier_id", created.SupplierID.String()),
		zap.String("tons", created.QuantityInCanonicalUnit.String()),
		zap.String("currency", created.Currency.String()),
	)
	response := ToAllocationResponse(*created)
	return &response, nil
}

// Replace swaps an allocation for a new one as a single step, so the
// over-allocation check never counts the old allocation.
func (s *AllocationService) Replace(ctx context.Context, orderID, allocationID uuid.UUID, req AllocateRequest) (*AllocationResponse, error) {
	spec, err := s.allocationSpec(ctx, req)
	if err != nil {
		return nil, err
	}

	var created *distribution.Allocation
	err = s.withLedger(ctx, "replace", orderID, func(ledger *distribution.Ledger, actor string) error {
		if err := s.ensureUnpaid(ctx, orderID, allocationID); err != nil {
			return err
		}
		created, err = ledger.Replace(allocationID, spec, s.converter, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("Allocation replaced",
		zap.String("order_id", orderID.String()),
		zap.String("old_allocation_id", allocationID.String()),
		zap.String("allocation_id", created.ID.String()),
	)
	response := ToAllocationResponse(*created)
	return &response, nil
}

// Deallocate retracts an allocation that has no payments against it
func (s *AllocationService) Deallocate(ctx context.Context, orderID, allocationID uuid.UUID) error {
	err := s.withLedger(ctx, "deallocate", orderID, func(ledger *distribution.Ledger, actor string) error {
		if err := s.ensureUnpaid(ctx, orderID, allocationID); err != nil {
			return err
		}
		return ledger.Deallocate(allocationID, actor)
	})
	if err != nil {
		return err
	}

	s.log(ctx).Info("Allocation removed",
		zap.String("order_id", orderID.String()),
		zap.String("allocation_id", allocationID.String()),
	)
	return nil
}

// Distribution returns the per-line allocation state of an order
func (s *AllocationService) Distribution(ctx context.Context, orderID uuid.UUID) (*DistributionResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ledger := distribution.NewLedger(order, allocations)

	lines := make([]LineDistributionResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		allocated := ledger.AllocatedForLine(line.ID)
		remaining := line.QuantityInCanonicalUnit.Sub(allocated)
		containers := s.converter.ContainersFor(line.QuantityInCanonicalUnit, order.ContainerTonnage)

		lineAllocations := ledger.ForLine(line.ID)
		items := make([]AllocationResponse, 0, len(lineAllocations))
		for _, a := range lineAllocations {
			items = append(items, ToAllocationResponse(a))
		}

		lines = append(lines, LineDistributionResponse{
			OrderLineID:     line.ID,
			ItemID:          line.ItemID,
			RequestedTons:   line.QuantityInCanonicalUnit,
			AllocatedTons:   allocated,
			RemainingTons:   remaining,
			Containers:      containers,
			FullyAllocated:  remaining.IsZero(),
			Allocations:     items,
			RequestedLabel:  format.Quantity(line.Quantity, line.Unit, line.QuantityInCanonicalUnit),
			RemainingLabel:  format.Tons(remaining),
			ContainersLabel: format.Containers(containers),
		})
	}

	return &DistributionResponse{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status.String(),
		FullyAllocated: ledger.IsFullyAllocated(),
		Lines:          lines,
	}, nil
}

// withLedger runs fn on the order's allocation ledger under the order lock
// and persists the ledger when fn succeeds
func (s *AllocationService) withLedger(ctx context.Context, method string, orderID uuid.UUID, fn func(ledger *distribution.Ledger, actor string) error) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", method, telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	release, err := s.locker.Lock(ctx, shared.OrderLockKey(orderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	defer release()

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	allocations, err := s.allocationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	ledger := distribution.NewLedger(order, allocations)
	if err := fn(ledger, shared.ActorFromContext(ctx)); err != nil {
		s.log(ctx).Warn("Allocation change rejected",
			zap.String("operation", method),
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.allocationRepo.SaveLedger(ctx, ledger); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, ledger.Events()...); err != nil {
			s.log(ctx).Error("Failed to publish allocation events", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}
	return nil
}

// ensureUnpaid refuses to retract an allocation a legacy payment points at.
// Payments only start once an order is distributed, so this guards imported
// legacy data where a locked order already carries allocation payments.
func (s *AllocationService) ensureUnpaid(ctx context.Context, orderID, allocationID uuid.UUID) error {
	payments, err := s.paymentRepo.FindForOrder(ctx, orderID, []uuid.UUID{allocationID})
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.Target.IsLegacy() && p.Target.AllocationID == allocationID {
			return shared.NewDomainError(shared.CodeOrderNotEditable, "Allocation has recorded payments")
		}
	}
	return nil
}

func (s *AllocationService) allocationSpec(ctx context.Context, req AllocateRequest) (distribution.AllocationSpec, error) {
	unit, err := valueobject.ParseMassUnit(req.Unit)
	if err != nil {
		return distribution.AllocationSpec{}, err
	}
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return distribution.AllocationSpec{}, err
	}
	if s.supplierRepo != nil {
		if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return distribution.AllocationSpec{}, shared.NewDomainError(shared.CodeNotFound, "Supplier not found")
			}
			return distribution.AllocationSpec{}, err
		}
	}
	return distribution.AllocationSpec{
		OrderLineID:           req.OrderLineID,
		SupplierID:            req.SupplierID,
		Quantity:              req.Quantity,
		Unit:                  unit,
		PricePerCanonicalUnit: req.PricePerTon,
		Currency:              currency,
	}, nil
}

func (s *AllocationService) findOrder(ctx context.Context, orderID uuid.UUID) (*trade.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Order not found")
	}
	return order, err
}

func (s *AllocationService) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
