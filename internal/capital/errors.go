package capital

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the errors.Is target for every ConfigurationError.
var ErrConfiguration = errors.New("invalid capital configuration")

// ConfigurationError reports an unusable capital configuration.
// It aborts a scan before any contract is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("capital configuration: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
