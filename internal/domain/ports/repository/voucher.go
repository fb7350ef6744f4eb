package repository

import (
	"context"
	"time"

	"planvault/internal/domain/model"
)

// VoucherRepository persists vouchers. Ids are allocated from a counter
// exclusive to the voucher entity, starting at 1, gap-free.
type VoucherRepository interface {
	NextID(ctx context.Context, tx Tx) (uint64, error)
	Save(ctx context.Context, tx Tx, v *model.Voucher) error
	// FindByID locks the row FOR UPDATE when tx is a live transaction.
	FindByID(ctx context.Context, tx Tx, id uint64) (*model.Voucher, error)
	// CountExpiredUnactivated supports the expiry sweep: vouchers whose
	// window passed before `asOf` without ever being activated.
	CountExpiredUnactivated(ctx context.Context, tx Tx, asOf time.Time) (int, error)
}
