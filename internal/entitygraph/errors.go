package entitygraph

import (
	"errors"
	"fmt"
)

// ErrConfiguration is wrapped by every schema construction fault caused by the
// model: unmapped scalar types, bad member paths and name collisions.
var ErrConfiguration = errors.New("schema configuration error")

// UnmappedTypeError reports a scalar property whose declared type has no
// GraphQL scalar mapping.
type UnmappedTypeError struct {
	Entity   string
	Property string
	Type     string
}

func (e *UnmappedTypeError) Error() string {
	return fmt.Sprintf("%s: property %s.%s has unmapped type %q", ErrConfiguration, e.Entity, e.Property, e.Type)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *UnmappedTypeError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConfiguration}, args...)...)
}
