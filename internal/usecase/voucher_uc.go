// File: internal/usecase/voucher_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/adapter"
	"planvault/internal/domain/ports/repository"
	"planvault/internal/infra/metrics"
)

// Compile-time check
var _ VoucherUseCase = (*voucherUC)(nil)

// VoucherUseCase owns the voucher state machine. A voucher is minted
// inactive, may change hands while inactive, and is activated at most once
// before its expiry instant. Expiry is checked lazily on activation and
// validity reads, never by a scheduled transition.
type VoucherUseCase interface {
	// Initialize persists the registry admin exactly once. Ids start at 1.
	Initialize(ctx context.Context, admin string) error
	// Mint issues an inactive voucher to `owner`. The expiry instant is fixed
	// at mint time: now + durationHours * 3600 seconds.
	Mint(ctx context.Context, admin, owner, planID, code string, durationHours uint32) (uint64, error)
	// Activate turns the voucher on, recording the activation instant.
	// Activating exactly at the expiry instant still succeeds.
	Activate(ctx context.Context, voucherID uint64, owner string) error
	Get(ctx context.Context, voucherID uint64) (*model.Voucher, error)
	// IsValid reports active-and-unexpired. A missing id is ErrNotFound, not
	// false: callers must be able to tell "invalid" from "nonexistent".
	IsValid(ctx context.Context, voucherID uint64) (bool, error)
	// Transfer reassigns ownership. Only inactive vouchers move.
	Transfer(ctx context.Context, voucherID uint64, from, to string) error
}

type voucherUC struct {
	settings repository.SettingsRepository
	vouchers repository.VoucherRepository
	auth     adapter.AuthProvider
	clock    adapter.Clock
	events   adapter.EventSink
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewVoucherUseCase(
	settings repository.SettingsRepository,
	vouchers repository.VoucherRepository,
	auth adapter.AuthProvider,
	clock adapter.Clock,
	events adapter.EventSink,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *voucherUC {
	l := logger.With().Str("component", "VoucherUC").Logger()
	return &voucherUC{
		settings: settings,
		vouchers: vouchers,
		auth:     auth,
		clock:    clock,
		events:   events,
		tm:       tm,
		log:      &l,
	}
}

func (uc *voucherUC) Initialize(ctx context.Context, admin string) error {
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return uc.settings.Create(ctx, tx, &model.RegistrySettings{
			Component:     model.ComponentVouchers,
			Admin:         admin,
			InitializedAt: uc.clock.Now(),
		})
	})
	if err != nil {
		return err
	}
	uc.emit(ctx, adapter.TopicInit, struct {
		Component string `json:"component"`
		Admin     string `json:"admin"`
	}{model.ComponentVouchers, admin})
	uc.log.Info().Str("admin", admin).Msg("voucher registry initialized")
	return nil
}

func (uc *voucherUC) Mint(ctx context.Context, admin, owner, planID, code string, durationHours uint32) (uint64, error) {
	var id uint64
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		var err error
		id, err = uc.vouchers.NextID(ctx, tx)
		if err != nil {
			return err
		}
		now := uc.clock.Now()
		v := &model.Voucher{
			ID:            id,
			Owner:         owner,
			PlanID:        planID,
			Code:          code,
			IsActive:      false,
			ExpiresAt:     now.Add(time.Duration(durationHours) * time.Hour),
			DurationHours: durationHours,
		}
		return uc.vouchers.Save(ctx, tx, v)
	})
	if err != nil {
		return 0, err
	}

	metrics.IncVoucher("minted")
	uc.emit(ctx, adapter.TopicVoucherMinted, struct {
		ID     uint64 `json:"id"`
		Owner  string `json:"owner"`
		PlanID string `json:"plan_id"`
		Code   string `json:"code"`
	}{id, owner, planID, code})
	uc.log.Info().Uint64("voucher_id", id).Str("owner", owner).Str("plan_id", planID).Msg("voucher minted")
	return id, nil
}

func (uc *voucherUC) Activate(ctx context.Context, voucherID uint64, owner string) error {
	if err := uc.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}

	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		v, err := uc.vouchers.FindByID(ctx, tx, voucherID)
		if err != nil {
			return err
		}
		// Precondition priority: missing, wrong owner, already active, expired.
		if v.Owner != owner {
			return domain.ErrUnauthorized
		}
		if v.IsActive {
			return domain.ErrInvalidState
		}
		now := uc.clock.Now()
		if v.Expired(now) {
			return domain.ErrExpired
		}
		v.IsActive = true
		v.ActivatedAt = &now
		return uc.vouchers.Save(ctx, tx, v)
	})
	if err != nil {
		return err
	}

	metrics.IncVoucher("activated")
	uc.emit(ctx, adapter.TopicVoucherActivated, struct {
		ID    uint64 `json:"id"`
		Owner string `json:"owner"`
	}{voucherID, owner})
	uc.log.Info().Uint64("voucher_id", voucherID).Str("owner", owner).Msg("voucher activated")
	return nil
}

func (uc *voucherUC) Get(ctx context.Context, voucherID uint64) (*model.Voucher, error) {
	return uc.vouchers.FindByID(ctx, nil, voucherID)
}

func (uc *voucherUC) IsValid(ctx context.Context, voucherID uint64) (bool, error) {
	v, err := uc.vouchers.FindByID(ctx, nil, voucherID)
	if err != nil {
		return false, err
	}
	return v.Valid(uc.clock.Now()), nil
}

func (uc *voucherUC) Transfer(ctx context.Context, voucherID uint64, from, to string) error {
	if err := uc.auth.RequireAuth(ctx, from); err != nil {
		return err
	}

	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		v, err := uc.vouchers.FindByID(ctx, tx, voucherID)
		if err != nil {
			return err
		}
		if v.Owner != from {
			return domain.ErrUnauthorized
		}
		// Activation freezes ownership.
		if v.IsActive {
			return domain.ErrInvalidState
		}
		v.Owner = to
		return uc.vouchers.Save(ctx, tx, v)
	})
	if err != nil {
		return err
	}

	metrics.IncVoucher("transferred")
	uc.emit(ctx, adapter.TopicVoucherTransferred, struct {
		ID   uint64 `json:"id"`
		From string `json:"from"`
		To   string `json:"to"`
	}{voucherID, from, to})
	uc.log.Info().Uint64("voucher_id", voucherID).Str("from", from).Str("to", to).Msg("voucher transferred")
	return nil
}

func (uc *voucherUC) requireAdmin(ctx context.Context, tx repository.Tx, admin string) error {
	if err := uc.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}
	s, err := uc.settings.Find(ctx, tx, model.ComponentVouchers)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotInitialized
		}
		return err
	}
	if s.Admin != admin {
		return domain.ErrUnauthorized
	}
	return nil
}

func (uc *voucherUC) emit(ctx context.Context, topic string, payload any) {
	if err := uc.events.Publish(ctx, topic, payload); err != nil {
		uc.log.Error().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}
