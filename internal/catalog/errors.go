package catalog

import (
	"errors"
	"strings"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a malformed or inconsistent catalog definition.
// It is fatal: nothing may be evaluated against a catalog that failed to load.
type ConfigurationError struct {
	Problems []string
	Err      error // Underlying decode error, if any
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid scoring catalog")
	if len(e.Problems) == 1 {
		b.WriteString(": ")
		b.WriteString(e.Problems[0])
	} else if len(e.Problems) > 1 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Problems, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is makes errors.Is(err, ErrConfiguration) true.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
