package evaluate

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMismatch means a target references a request missing from the snapshot.
	ErrConfigMismatch = errors.New("no results for target")
	// ErrUnknownTargetType means a target uses an unsupported aggregation type.
	ErrUnknownTargetType = errors.New("unknown target type")
)

// ConfigMismatchError names the request key that had no results.
type ConfigMismatchError struct {
	Key string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigMismatch, e.Key)
}

func (e *ConfigMismatchError) Unwrap() error { return ErrConfigMismatch }

// UnknownTargetTypeError names the unsupported target type.
type UnknownTargetTypeError struct {
	Type TargetType
}

func (e *UnknownTargetTypeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownTargetType, e.Type)
}

func (e *UnknownTargetTypeError) Unwrap() error { return ErrUnknownTargetType }
