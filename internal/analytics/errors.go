package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/stock-analytics-engine/internal/models"
)

// ErrInvalidData is matched by every DataError via errors.Is
var ErrInvalidData = errors.New("invalid bar data")

// DataError reports malformed or non-monotonic input. It is fatal to the
// request that produced it.
type DataError struct {
	Index  int
	Date   time.Time
	Reason string
}

func (e *DataError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("invalid bar data: %s", e.Reason)
	}
	if e.Index < 0 {
		return fmt.Sprintf("invalid bar data on %s: %s", e.Date.Format(models.DateLayout), e.Reason)
	}
	return fmt.Sprintf("invalid bar data at index %d (%s): %s", e.Index, e.Date.Format(models.DateLayout), e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidData) match
func (e *DataError) Unwrap() error {
	return ErrInvalidData
}

func newDataError(index int, date time.Time, format string, args ...interface{}) *DataError {
	return &DataError{
		Index:  index,
		Date:   date,
		Reason: fmt.Sprintf(format, args...),
	}
}
