package finance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/distribution"
	"github.com/logistics/backend/internal/domain/finance"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/logger"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SettlementService records supplier payments and reports settlement positions
type SettlementService struct {
	orderRepo      trade.OrderRepository
	allocationRepo distribution.AllocationRepository
	paymentRepo    finance.PaymentRepository
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	orderRepo trade.OrderRepository,
	allocationRepo distribution.AllocationRepository,
	paymentRepo finance.PaymentRepository,
	locker shared.Locker,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
		paymentRepo:    paymentRepo,
		locker:         locker,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher that receives events after each save
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordPayment pays a supplier's exposure on an order in one currency
func (s *SettlementService) RecordPayment(ctx context.Context, orderID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, orderID, finance.PaymentRequest{
		Target:   finance.SupplierOrderTarget(req.SupplierID, orderID, currency),
		Type:     finance.PaymentType(req.Type),
		Amount:   req.Amount,
		Currency: currency,
		Date:     req.Date,
		Comment:  req.Comment,
	})
}

// RecordLegacyPayment pays a single allocation
func (s *SettlementService) RecordLegacyPayment(ctx context.Context, allocationID uuid.UUID, req RecordLegacyPaymentRequest) (*PaymentResponse, error) {
	allocation, err := s.allocationRepo.FindByID(ctx, allocationID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Allocation not found")
	}
	if err != nil {
		return nil, err
	}

	var currency valueobject.Currency
	if req.Currency != "" {
		if currency, err = valueobject.ParseCurrency(req.Currency); err != nil {
			return nil, err
		}
	}
	return s.record(ctx, allocation.OrderID, finance.PaymentRequest{
		Target:   finance.LegacyAllocationTarget(allocationID),
		Type:     finance.PaymentType(req.Type),
		Amount:   req.Amount,
		Currency: currency,
		Date:     req.Date,
		Comment:  req.Comment,
	})
}

// Summary returns exposure, paid and remaining per supplier and currency
func (s *SettlementService) Summary(ctx context.Context, orderID uuid.UUID) (*SettlementSummaryResponse, error) {
	ledger, err := s.loadLedger(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSettlementSummaryResponse(ledger)
	return &response, nil
}

// History returns an order's payments newest first
func (s *SettlementService) History(ctx context.Context, orderID uuid.UUID) ([]PaymentResponse, error) {
	ledger, err := s.loadLedger(ctx, orderID)
	if err != nil {
		return nil, err
	}
	history := ledger.History()
	result := make([]PaymentResponse, 0, len(history))
	for _, p := range history {
		result = append(result, ToPaymentResponse(p))
	}
	return result, nil
}

// Reconcile moves a distributed order whose balances are all paid to
// Financial and returns the resulting settlement summary
func (s *SettlementService) Reconcile(ctx context.Context, orderID uuid.UUID) (*SettlementSummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "reconcile", telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	release, err := s.locker.Lock(ctx, shared.OrderLockKey(orderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	ledger, err := s.loadLedger(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.reconcile(ctx, ledger, shared.ActorFromContext(ctx)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToSettlementSummaryResponse(ledger)
	return &response, nil
}

func (s *SettlementService) record(ctx context.Context, orderID uuid.UUID, req finance.PaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "record_payment",
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrPaymentType, string(req.Type),
	)
	defer span.End()

	release, err := s.locker.Lock(ctx, shared.OrderLockKey(orderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	ledger, err := s.loadLedger(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	order := ledger.Order()
	actor := shared.ActorFromContext(ctx)

	if err := s.reconcile(ctx, ledger, actor); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from := order.Status

	payment, err := ledger.RecordPayment(req, actor)
	if err != nil {
		s.log(ctx).Warn("Payment rejected",
			zap.String("order_id", orderID.String()),
			zap.String("target", string(req.Target.Kind)),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.paymentRepo.SaveLedger(ctx, ledger); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events := ledger.Events()
	if order.Status != from {
		if err := s.orderRepo.Save(ctx, order); err != nil {
			// the payment is stored; the next reconcile moves the order on
			s.log(ctx).Error("Failed to save settled order",
				zap.String("order_id", orderID.String()),
				zap.String("payment_id", payment.ID.String()),
				zap.Error(err),
			)
			s.publish(ctx, orderID, ledger.Events()...)
			telemetry.RecordError(span, err)
			return nil, err
		}
		events = append(events, order.GetDomainEvents()...)
		order.ClearDomainEvents()
		s.log(ctx).Info("Order fully settled",
			zap.String("order_id", orderID.String()),
			zap.String("status", order.Status.String()),
		)
	}
	s.publish(ctx, orderID, events...)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID.String(),
		telemetry.SpanAttrCurrency, payment.Currency.String(),
		telemetry.SpanAttrAmount, payment.Amount.String(),
	)
	s.log(ctx).Info("Payment recorded",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("currency", payment.Currency.String()),
	)

	response := ToPaymentResponse(*payment)
	response.OrderStatus = order.Status.String()
	return &response, nil
}

func (s *SettlementService) loadLedger(ctx context.Context, orderID uuid.UUID) (*finance.Ledger, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocationRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(allocations))
	for _, a := range allocations {
		ids = append(ids, a.ID)
	}
	payments, err := s.paymentRepo.FindForOrder(ctx, orderID, ids)
	if err != nil {
		return nil, err
	}
	return finance.NewLedger(order, allocations, payments), nil
}

// reconcile saves the Distributed to Financial step for a ledger that is
// already settled, such as one whose last payment was stored but whose
// order save failed. Callers hold the order lock.
func (s *SettlementService) reconcile(ctx context.Context, ledger *finance.Ledger, actor string) error {
	changed, err := ledger.Reconcile(actor)
	if err != nil || !changed {
		return err
	}
	order := ledger.Order()
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return err
	}
	s.publish(ctx, order.ID, order.GetDomainEvents()...)
	order.ClearDomainEvents()

	s.log(ctx).Info("Order settlement reconciled",
		zap.String("order_id", order.ID.String()),
		zap.String("status", order.Status.String()),
	)
	return nil
}

func (s *SettlementService) publish(ctx context.Context, orderID uuid.UUID, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Error("Failed to publish settlement events", zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

func (s *SettlementService) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}
