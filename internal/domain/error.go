package domain

import "errors"

var (
	// Lifecycle / configuration errors
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrNotInitialized     = errors.New("registry not initialized")

	// Operation errors surfaced by the escrow and voucher state machines
	ErrUnauthorized   = errors.New("principal not authorized")
	ErrNotFound       = errors.New("entity not found")
	ErrInvalidState   = errors.New("operation not allowed in current state")
	ErrExpired        = errors.New("voucher expired")
	ErrTransferFailed = errors.New("token transfer failed")

	// Infrastructure errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
