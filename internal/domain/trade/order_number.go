package trade

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// DefaultOrderNumberPrefix is prepended to every generated order number
const DefaultOrderNumberPrefix = "ORD-"

// OrderNumberSequence hands out monotonically increasing order numbers.
// It is seeded once at startup from the persisted orders.
type OrderNumberSequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewOrderNumberSequence creates a sequence whose first number is max(existing)+1.
// Numbers that do not carry the prefix or a numeric suffix are ignored.
func NewOrderNumberSequence(prefix string, existing []string) *OrderNumberSequence {
	if prefix == "" {
		prefix = DefaultOrderNumberPrefix
	}
	maxSeen := 0
	for _, number := range existing {
		if n, ok := parseOrderNumber(prefix, number); ok && n > maxSeen {
			maxSeen = n
		}
	}
	return &OrderNumberSequence{prefix: prefix, next: maxSeen + 1}
}

// Next returns the next order number, e.g. ORD-007
func (s *OrderNumberSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	return fmt.Sprintf("%s%03d", s.prefix, n)
}

// Peek returns the number the next call to Next will use
func (s *OrderNumberSequence) Peek() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func parseOrderNumber(prefix, number string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
