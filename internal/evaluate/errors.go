package evaluate

import (
	"errors"
	"fmt"
)

var (
	// ErrOracleUnavailable matches every *OracleUnavailableError via errors.Is.
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")
	// ErrEmptyResponse is returned when an oracle reports success without a response.
	ErrEmptyResponse = errors.New("oracle returned an empty response")
)

// OracleUnavailableError records that retries were exhausted (or the call was
// cancelled) and every factor in the request was left unscored.
type OracleUnavailableError struct {
	Oracle   string
	Attempts int
	Err      error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("oracle %s unavailable after %d attempt(s): %v", e.Oracle, e.Attempts, e.Err)
}

// Is makes errors.Is(err, ErrOracleUnavailable) true.
func (e *OracleUnavailableError) Is(target error) bool {
	return target == ErrOracleUnavailable
}

func (e *OracleUnavailableError) Unwrap() error {
	return e.Err
}
