package persistence

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/trade"
	"github.com/logistics/backend/internal/infrastructure/persistence/models"
	"github.com/logistics/backend/internal/infrastructure/store"
)

// OrderRepository implements trade.OrderRepository over the orders and
// order_lines collections
type OrderRepository struct {
	orders collection[models.OrderModel]
	lines  collection[models.OrderLineModel]
}

// NewOrderRepository creates an order repository on s
func NewOrderRepository(s store.CollectionStore) *OrderRepository {
	return &OrderRepository{
		orders: newCollection[models.OrderModel](s, store.KeyOrders),
		lines:  newCollection[models.OrderLineModel](s, store.KeyOrderLines),
	}
}

// FindByID loads an order with its lines
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	orders, err := r.orders.all(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			lines, err := r.linesByOrder(ctx)
			if err != nil {
				return nil, err
			}
			return orders[i].ToDomain(lines[id])
		}
	}
	return nil, shared.ErrNotFound
}

// FindAll lists orders newest first
func (r *OrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]trade.Order, error) {
	orders, err := r.orders.all(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := r.linesByOrder(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]trade.Order, 0, len(orders))
	for i := range orders {
		if filter.Status != nil && trade.OrderStatus(orders[i].Status) != *filter.Status {
			continue
		}
		order, err := orders[i].ToDomain(lines[orders[i].ID])
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// FindByLineID loads the order that owns a line
func (r *OrderRepository) FindByLineID(ctx context.Context, lineID uuid.UUID) (*trade.Order, error) {
	lines, err := r.lines.all(ctx)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.ID == lineID {
			return r.FindByID(ctx, line.OrderID)
		}
	}
	return nil, shared.ErrNotFound
}

// OrderNumbers returns every persisted order number
func (r *OrderRepository) OrderNumbers(ctx context.Context) ([]string, error) {
	orders, err := r.orders.all(ctx)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		numbers = append(numbers, o.OrderNumber)
	}
	return numbers, nil
}

// Save writes the order and replaces its lines. The stored version must be
// lower than the aggregate's, otherwise another writer got there first.
func (r *OrderRepository) Save(ctx context.Context, order *trade.Order) error {
	err := r.orders.update(ctx, func(records []models.OrderModel) ([]models.OrderModel, error) {
		var m models.OrderModel
		m.FromDomain(order)

		for i := range records {
			if records[i].ID != order.ID {
				continue
			}
			if records[i].Version >= order.Version {
				return nil, shared.ErrConcurrencyConflict
			}
			records[i] = m
			return records, nil
		}
		return append(records, m), nil
	})
	if err != nil {
		return err
	}

	return r.lines.update(ctx, func(records []models.OrderLineModel) ([]models.OrderLineModel, error) {
		next := make([]models.OrderLineModel, 0, len(records)+len(order.Lines))
		for _, line := range records {
			if line.OrderID != order.ID {
				next = append(next, line)
			}
		}
		for _, line := range order.Lines {
			next = append(next, models.OrderLineModelFromDomain(line))
		}
		return next, nil
	})
}

// Delete removes an order and all of its lines
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.orders.update(ctx, func(records []models.OrderModel) ([]models.OrderModel, error) {
		for i := range records {
			if records[i].ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, shared.ErrNotFound
	})
	if err != nil {
		return err
	}

	return r.lines.update(ctx, func(records []models.OrderLineModel) ([]models.OrderLineModel, error) {
		next := records[:0]
		for _, line := range records {
			if line.OrderID != id {
				next = append(next, line)
			}
		}
		return next, nil
	})
}

func (r *OrderRepository) linesByOrder(ctx context.Context) (map[uuid.UUID][]models.OrderLineModel, error) {
	lines, err := r.lines.all(ctx)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]models.OrderLineModel)
	for _, line := range lines {
		byOrder[line.OrderID] = append(byOrder[line.OrderID], line)
	}
	return byOrder, nil
}

var _ trade.OrderRepository = (*OrderRepository)(nil)
