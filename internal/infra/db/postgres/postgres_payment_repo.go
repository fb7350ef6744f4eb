package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

// NextID bumps the payment-exclusive counter and returns the allocated id.
// The upsert seeds the counter on first use so ids start at 1.
func (r *paymentRepo) NextID(ctx context.Context, tx repository.Tx) (uint64, error) {
	const q = `
INSERT INTO id_counters (component, next_id) VALUES ($1, 2)
ON CONFLICT (component) DO UPDATE SET next_id = id_counters.next_id + 1
RETURNING next_id - 1;`
	row, err := pickRow(ctx, r.pool, tx, q, "payments")
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return uint64(id), nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, buyer, plan_id, amount, token, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  buyer=$2, plan_id=$3, amount=$4, token=$5, status=$6, created_at=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, int64(p.ID), p.Buyer, p.PlanID, p.Amount, p.Token, string(p.Status), p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id uint64) (*model.Payment, error) {
	q := `SELECT id, buyer, plan_id, amount, token, status, created_at FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, int64(id))
	if err != nil {
		return nil, err
	}

	p := &model.Payment{}
	var pid int64
	var status string
	if err := row.Scan(&pid, &p.Buyer, &p.PlanID, &p.Amount, &p.Token, &status, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.ID = uint64(pid)
	p.Status = model.PaymentStatus(status)
	return p, nil
}

// UpdateStatusIfPending atomically flips the status only while it is still
// pending. Reports whether a row changed.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id uint64, status model.PaymentStatus) (bool, error) {
	const q = `UPDATE payments SET status=$2 WHERE id=$1 AND status='pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, int64(id), string(status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
