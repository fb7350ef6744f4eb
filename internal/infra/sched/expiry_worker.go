package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"planvault/internal/domain/ports/adapter"
	"planvault/internal/domain/ports/repository"
	"planvault/internal/infra/metrics"
)

// ExpiryWorker periodically counts vouchers whose window passed without
// activation. Expiry itself is enforced lazily by the registry on activation
// and validity reads; the sweep only feeds observability.
type ExpiryWorker struct {
	interval time.Duration
	vouchers repository.VoucherRepository
	clock    adapter.Clock
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, vouchers repository.VoucherRepository, clock adapter.Clock, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		vouchers: vouchers,
		clock:    clock,
		log:      &l,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry sweep")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry sweep")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.vouchers.CountExpiredUnactivated(ctx, nil, w.clock.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			metrics.SetVouchersExpiredUnactivated(n)
			if n > 0 {
				w.log.Info().Int("count", n).Msg("vouchers expired without activation")
			}
		}
	}
}
