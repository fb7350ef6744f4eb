package repository

import (
	"context"

	"planvault/internal/domain/model"
)

// PaymentRepository persists escrow payments. Records are never deleted;
// only the status column ever changes after insert.
type PaymentRepository interface {
	// NextID allocates the next payment id from the counter exclusive to the
	// payment entity. Must be called inside a transaction so a failed create
	// does not burn an id.
	NextID(ctx context.Context, tx Tx) (uint64, error)
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByID locks the row FOR UPDATE when tx is a live transaction.
	FindByID(ctx context.Context, tx Tx, id uint64) (*model.Payment, error)
	// UpdateStatusIfPending flips the status only while the current status is
	// pending; reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id uint64, status model.PaymentStatus) (bool, error)
}
