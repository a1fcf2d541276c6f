// Package store holds the keyed collection store the ledger persists to.
// Every collection is read and written whole; writes carry the version that
// was read so concurrent writers cannot silently overwrite each other.
package store

import (
	"context"
	"encoding/json"
)

// Collection keys
const (
	KeyOrders      = "orders"
	KeyOrderLines  = "order_lines"
	KeyAllocations = "allocations"
	KeyPayments    = "payments"
	KeyAuditLogs   = "audit_logs"
	KeySuppliers   = "suppliers"
	KeyItems       = "items"
)

// Collection is an ordered sequence of raw JSON records plus the version it
// was read at. A collection that was never written has version 0.
type Collection struct {
	Records []json.RawMessage
	Version int64
}

// CollectionStore loads and overwrites whole collections
type CollectionStore interface {
	// Load returns the collection stored under key
	Load(ctx context.Context, key string) (*Collection, error)

	// Save overwrites the collection if it is still at expectedVersion,
	// and fails with shared.ErrConcurrencyConflict otherwise.
	Save(ctx context.Context, key string, records []json.RawMessage, expectedVersion int64) error
}
