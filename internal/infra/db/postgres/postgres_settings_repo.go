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

var _ repository.SettingsRepository = (*settingsRepo)(nil)

type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) Find(ctx context.Context, tx repository.Tx, component string) (*model.RegistrySettings, error) {
	const q = `SELECT component, admin, initialized_at FROM registry_settings WHERE component=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, component)
	if err != nil {
		return nil, err
	}

	s := &model.RegistrySettings{}
	if err := row.Scan(&s.Component, &s.Admin, &s.InitializedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// Create inserts the write-once settings row. A conflicting row means the
// component was already initialized.
func (r *settingsRepo) Create(ctx context.Context, tx repository.Tx, s *model.RegistrySettings) error {
	const q = `INSERT INTO registry_settings (component, admin, initialized_at) VALUES ($1,$2,$3) ON CONFLICT (component) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, s.Component, s.Admin, s.InitializedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyInitialized
	}
	return nil
}
