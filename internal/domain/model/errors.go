package model

import "errors"

// Sentinel kinds for match state errors.
var (
	ErrMatchFinalized = errors.New("match is finalized")
	ErrNotBalanced    = errors.New("match has not been balanced")
)

// CheckMutable returns ErrMatchFinalized once a match is finalized.
func (m *Match) CheckMutable() error {
	if m.Finalized {
		return ErrMatchFinalized
	}
	return nil
}
