package domain

import "errors"

var (
	// ErrSkipRecord signals that a raw record failed validation and must be
	// skipped without any database write. Never fatal to a batch.
	ErrSkipRecord = errors.New("record skipped")
	// ErrEventNotFound is returned when a referenced event does not exist
	ErrEventNotFound = errors.New("event not found")
	// ErrUserNotFound is returned when a referenced user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrLedgerConflict is returned when a ledger row's event pointer would
	// be re-pointed at a different event. The pointer is append-only.
	ErrLedgerConflict = errors.New("connector event already linked to a different event")
)
