package character

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDFunc generates instance IDs.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// SequentialIDs returns an IDFunc yielding prefix-1, prefix-2, and so on.
func SequentialIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
