package engine

import (
	"errors"
	"fmt"
	"time"

	"trendback-go/internal/signal"
)

// Fatal conditions abort the run immediately. Recoverable ones (invalid
// risk, oversized risk, data gaps) are counted in the run summary instead;
// see route and Step.
var (
	// ErrOutOfOrderBar flags a bar whose timestamp does not strictly
	// increase over the previous one.
	ErrOutOfOrderBar = errors.New("bar out of timestamp order")
	// ErrBadPrice flags a bar carrying a negative or non-finite price.
	ErrBadPrice = errors.New("bar has invalid price")
)

// MalformedSignalError reports a strategy bug: an entry proposal missing
// its protective price. It carries full context so the offending bar can
// be replayed; silently defaulting the stop is exactly the failure mode
// this engine exists to eliminate.
type MalformedSignalError struct {
	Index  int
	Time   time.Time
	Signal signal.Signal
}

func (e *MalformedSignalError) Error() string {
	return fmt.Sprintf("malformed signal at bar %d (%s): %s", e.Index, e.Time.Format(time.RFC3339), e.Signal)
}
