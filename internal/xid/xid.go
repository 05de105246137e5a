package xid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns a prefixed opaque identifier. Callers must never parse the
// suffix; ordering and date information live in dedicated columns.
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String())
}
