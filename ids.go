package graphplan

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator allocates durable ids. It is injected so tests can be
// deterministic.
type IDGenerator func() string

// NewUUID is the production IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) IDGenerator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
