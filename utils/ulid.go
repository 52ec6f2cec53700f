package utils

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ulid.MonotonicEntropy is not safe for concurrent use
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID generates the identifier attached to every log line of one script run
func NewRunID() string {
	return GenerateULID().String()
}

// GenerateULID returns a ULID for the current time; IDs from one process sort by creation
func GenerateULID() ulid.ULID {
	return GenerateULIDWithTime(time.Now())
}

// GenerateULIDWithTime generates a ULID whose timestamp component is t
func GenerateULIDWithTime(t time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy)
}

// RunStartedAt recovers the creation time encoded in a run ID
func RunStartedAt(runID string) (time.Time, error) {
	id, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()), nil
}
