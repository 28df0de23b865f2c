// Package decay persists the cooldown counter that damps scaling oscillation.
//
// A workload resource owns exactly one decay record. The record holds the number
// of consecutive evaluations whose target replica count matched the current one.
// Backends only move bytes; encoding lives in this file so every backend stores
// the same compact JSON document:
//
//	{"runs_since_change":3}
//
// Stores do no locking. At most one evaluation per resource may be in flight.
package decay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrStorageRead is returned when the backing medium cannot be read.
	ErrStorageRead = errors.New("decay storage read failure")
	// ErrStorageWrite is returned when the backing medium cannot be written.
	ErrStorageWrite = errors.New("decay storage write failure")
	// ErrStorageParse is returned when a non-empty record is not a valid State.
	ErrStorageParse = errors.New("decay storage parse failure")
)

// State is the persisted decay record of one workload resource.
type State struct {
	RunsSinceChange int `json:"runs_since_change"`
}

// Store reads and overwrites the decay record of a single resource.
type Store interface {
	// Get returns the stored State, or the zero State when the record is empty.
	Get(ctx context.Context) (State, error)
	// Update replaces the whole record with state.
	Update(ctx context.Context, state State) error
}

// Decode parses a raw record. An empty record decodes to the zero State.
func Decode(data []byte) (State, error) {
	if len(data) == 0 {
		return State{}, nil
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrStorageParse, err)
	}
	if s.RunsSinceChange < 0 {
		return State{}, fmt.Errorf("%w: negative runs_since_change %d", ErrStorageParse, s.RunsSinceChange)
	}

	return s, nil
}

// Encode serializes state into its record form.
func Encode(state State) ([]byte, error) {
	if state.RunsSinceChange < 0 {
		return nil, fmt.Errorf("%w: negative runs_since_change %d", ErrStorageWrite, state.RunsSinceChange)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return data, nil
}
