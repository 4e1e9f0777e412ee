package shared

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReferencePrefix identifies the kind of business reference.
type ReferencePrefix string

const (
	ReferenceClient    ReferencePrefix = "CLT"
	ReferenceVehicle   ReferencePrefix = "VEH"
	ReferenceContract  ReferencePrefix = "CTR"
	ReferencePolicy    ReferencePrefix = "POL"
	ReferenceBordereau ReferencePrefix = "BRD"
)

// MaxReferenceAttempts caps how many candidates a generator tries before giving up.
const MaxReferenceAttempts = 100

// ReferenceYearPrefix returns "PREFIX-YYYY-" for the given instant.
func ReferenceYearPrefix(prefix ReferencePrefix, at time.Time) string {
	return fmt.Sprintf("%s-%d-", prefix, at.Year())
}

// FormatReference renders PREFIX-YYYY-NNNNN.
func FormatReference(prefix ReferencePrefix, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%05d", ReferenceYearPrefix(prefix, at), seq)
}

// ReferenceSequence extracts the trailing sequence of a PREFIX-YYYY-NNNNN reference.
func ReferenceSequence(ref string) (int64, bool) {
	parts := strings.Split(ref, "-")
	if len(parts) != 3 {
		return 0, false
	}
	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MaxSaveAttempts caps how often a save racing another writer for the same
// reference is retried with a freshly generated one.
const MaxSaveAttempts = 3

// RetryOnDuplicate runs fn until it succeeds, fails with an error other than
// ErrAlreadyExists, or the attempts are used up.
func RetryOnDuplicate(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrAlreadyExists) {
			return err
		}
	}
	return err
}
