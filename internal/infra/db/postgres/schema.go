package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry_settings (
  component      TEXT PRIMARY KEY,
  admin          TEXT NOT NULL,
  initialized_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS id_counters (
  component TEXT PRIMARY KEY,
  next_id   BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS payments (
  id         BIGINT PRIMARY KEY,
  buyer      TEXT NOT NULL,
  plan_id    TEXT NOT NULL,
  amount     BIGINT NOT NULL,
  token      TEXT NOT NULL,
  status     TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS vouchers (
  id             BIGINT PRIMARY KEY,
  owner          TEXT NOT NULL,
  plan_id        TEXT NOT NULL,
  code           TEXT NOT NULL,
  is_active      BOOLEAN NOT NULL DEFAULT FALSE,
  activated_at   TIMESTAMPTZ,
  expires_at     TIMESTAMPTZ NOT NULL,
  duration_hours INT NOT NULL
);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
