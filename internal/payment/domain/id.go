package domain

import "github.com/google/uuid"

// NewPaymentID mints a time-ordered unique payment identifier.
//
// UUIDv7 satisfies the core's only real requirement (global
// uniqueness) while keeping ids roughly sortable by creation time,
// which is convenient for the demo repository's in-memory indexes.
func NewPaymentID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewEventID mints a unique event identifier, independent of the
// event's per-aggregate version number.
func NewEventID() string {
	return uuid.Must(uuid.NewV7()).String()
}
