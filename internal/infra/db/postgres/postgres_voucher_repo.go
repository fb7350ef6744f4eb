package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/repository"
)

var _ repository.VoucherRepository = (*voucherRepo)(nil)

type voucherRepo struct{ pool *pgxpool.Pool }

func NewVoucherRepo(pool *pgxpool.Pool) *voucherRepo {
	return &voucherRepo{pool: pool}
}

// NextID bumps the voucher-exclusive counter and returns the allocated id.
// Ids are 1..N with no gaps as long as allocation happens inside the same
// transaction as the insert.
func (r *voucherRepo) NextID(ctx context.Context, tx repository.Tx) (uint64, error) {
	const q = `
INSERT INTO id_counters (component, next_id) VALUES ($1, 2)
ON CONFLICT (component) DO UPDATE SET next_id = id_counters.next_id + 1
RETURNING next_id - 1;`
	row, err := pickRow(ctx, r.pool, tx, q, "vouchers")
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return uint64(id), nil
}

func (r *voucherRepo) Save(ctx context.Context, tx repository.Tx, v *model.Voucher) error {
	const q = `
INSERT INTO vouchers (id, owner, plan_id, code, is_active, activated_at, expires_at, duration_hours)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  owner=$2, plan_id=$3, code=$4, is_active=$5, activated_at=$6, expires_at=$7, duration_hours=$8;`
	_, err := execSQL(ctx, r.pool, tx, q, int64(v.ID), v.Owner, v.PlanID, v.Code, v.IsActive, v.ActivatedAt, v.ExpiresAt, int32(v.DurationHours))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *voucherRepo) FindByID(ctx context.Context, tx repository.Tx, id uint64) (*model.Voucher, error) {
	q := `SELECT id, owner, plan_id, code, is_active, activated_at, expires_at, duration_hours FROM vouchers WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, int64(id))
	if err != nil {
		return nil, err
	}

	v := &model.Voucher{}
	var (
		vid   int64
		hours int32
	)
	if err := row.Scan(&vid, &v.Owner, &v.PlanID, &v.Code, &v.IsActive, &v.ActivatedAt, &v.ExpiresAt, &hours); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	v.ID = uint64(vid)
	v.DurationHours = uint32(hours)
	return v, nil
}

func (r *voucherRepo) CountExpiredUnactivated(ctx context.Context, tx repository.Tx, asOf time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM vouchers WHERE is_active=FALSE AND expires_at < $1;`
	row, err := pickRow(ctx, r.pool, tx, q, asOf)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
