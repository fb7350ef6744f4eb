// File: internal/usecase/escrow_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"planvault/internal/domain"
	"planvault/internal/domain/model"
	"planvault/internal/domain/ports/adapter"
	"planvault/internal/domain/ports/repository"
	"planvault/internal/infra/metrics"
)

// Compile-time check
var _ EscrowUseCase = (*escrowUC)(nil)

// EscrowUseCase owns the payment state machine: create, complete, refund.
// Every mutating call is one transaction; the paired token transfer runs
// inside it so a ledger rejection aborts the whole operation.
type EscrowUseCase interface {
	// Initialize persists the escrow admin exactly once.
	Initialize(ctx context.Context, admin string) error
	// CreatePayment escrows `amount` of `token` from the buyer and records a
	// pending payment. Returns the allocated payment id.
	CreatePayment(ctx context.Context, buyer, planID string, amount int64, token string) (uint64, error)
	// CompletePayment marks a pending payment completed. It moves no funds:
	// disbursement of the escrowed amount is an external step, and the escrow
	// account stays queryable via EscrowBalance for reconciliation.
	CompletePayment(ctx context.Context, paymentID uint64, admin string) error
	// RefundPayment returns the escrowed amount to the buyer and marks the
	// payment refunded.
	RefundPayment(ctx context.Context, paymentID uint64, admin string, token string) error
	GetPayment(ctx context.Context, paymentID uint64) (*model.Payment, error)
	// EscrowBalance reads the escrow account's balance for `token`.
	EscrowBalance(ctx context.Context, token string) (int64, error)
}

type escrowUC struct {
	settings repository.SettingsRepository
	payments repository.PaymentRepository
	ledger   adapter.TokenLedger
	auth     adapter.AuthProvider
	clock    adapter.Clock
	events   adapter.EventSink
	tm       repository.TransactionManager
	account  string // escrow-held account principal
	log      *zerolog.Logger
}

func NewEscrowUseCase(
	settings repository.SettingsRepository,
	payments repository.PaymentRepository,
	ledger adapter.TokenLedger,
	auth adapter.AuthProvider,
	clock adapter.Clock,
	events adapter.EventSink,
	tm repository.TransactionManager,
	escrowAccount string,
	logger *zerolog.Logger,
) *escrowUC {
	l := logger.With().Str("component", "EscrowUC").Logger()
	return &escrowUC{
		settings: settings,
		payments: payments,
		ledger:   ledger,
		auth:     auth,
		clock:    clock,
		events:   events,
		tm:       tm,
		account:  escrowAccount,
		log:      &l,
	}
}

func (uc *escrowUC) Initialize(ctx context.Context, admin string) error {
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return uc.settings.Create(ctx, tx, &model.RegistrySettings{
			Component:     model.ComponentEscrow,
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
	}{model.ComponentEscrow, admin})
	uc.log.Info().Str("admin", admin).Msg("escrow initialized")
	return nil
}

func (uc *escrowUC) CreatePayment(ctx context.Context, buyer, planID string, amount int64, token string) (uint64, error) {
	if err := uc.auth.RequireAuth(ctx, buyer); err != nil {
		return 0, err
	}

	var id uint64
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		id, err = uc.payments.NextID(ctx, tx)
		if err != nil {
			return err
		}
		p := &model.Payment{
			ID:        id,
			Buyer:     buyer,
			PlanID:    planID,
			Amount:    amount,
			Token:     token,
			Status:    model.PaymentStatusPending,
			CreatedAt: uc.clock.Now(),
		}
		if err := uc.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		// Transfer last: a ledger rejection rolls back the record so no
		// pending payment can exist without escrowed funds.
		if err := uc.ledger.Transfer(ctx, token, buyer, uc.account, amount); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("buyer", buyer).Str("plan_id", planID).Msg("create payment failed")
		return 0, err
	}

	metrics.IncPayment("created")
	uc.emit(ctx, adapter.TopicPaymentCreated, struct {
		ID     uint64 `json:"id"`
		PlanID string `json:"plan_id"`
		Buyer  string `json:"buyer"`
		Amount int64  `json:"amount"`
	}{id, planID, buyer, amount})
	uc.log.Info().Uint64("payment_id", id).Str("buyer", buyer).Int64("amount", amount).Msg("payment created")
	return id, nil
}

func (uc *escrowUC) CompletePayment(ctx context.Context, paymentID uint64, admin string) error {
	var buyer string
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		p, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Terminal() {
			return domain.ErrInvalidState
		}
		changed, err := uc.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvalidState
		}
		buyer = p.Buyer
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IncPayment("completed")
	uc.emit(ctx, adapter.TopicPaymentCompleted, struct {
		ID    uint64 `json:"id"`
		Buyer string `json:"buyer"`
	}{paymentID, buyer})
	uc.log.Info().Uint64("payment_id", paymentID).Msg("payment completed")
	return nil
}

func (uc *escrowUC) RefundPayment(ctx context.Context, paymentID uint64, admin string, token string) error {
	var (
		buyer  string
		amount int64
	)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.requireAdmin(ctx, tx, admin); err != nil {
			return err
		}
		p, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Terminal() {
			return domain.ErrInvalidState
		}
		changed, err := uc.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusRefunded)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvalidState
		}
		// Transfer inside the transaction: if the ledger rejects the refund
		// the status rolls back to pending.
		if err := uc.ledger.Transfer(ctx, token, uc.account, p.Buyer, p.Amount); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
		}
		buyer, amount = p.Buyer, p.Amount
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Uint64("payment_id", paymentID).Msg("refund failed")
		return err
	}

	metrics.IncPayment("refunded")
	uc.emit(ctx, adapter.TopicPaymentRefunded, struct {
		ID     uint64 `json:"id"`
		Buyer  string `json:"buyer"`
		Amount int64  `json:"amount"`
	}{paymentID, buyer, amount})
	uc.log.Info().Uint64("payment_id", paymentID).Str("buyer", buyer).Msg("payment refunded")
	return nil
}

func (uc *escrowUC) GetPayment(ctx context.Context, paymentID uint64) (*model.Payment, error) {
	return uc.payments.FindByID(ctx, nil, paymentID)
}

func (uc *escrowUC) EscrowBalance(ctx context.Context, token string) (int64, error) {
	return uc.ledger.Balance(ctx, token, uc.account)
}

// requireAdmin verifies the acting principal authorized the call and equals
// the admin persisted at initialization.
func (uc *escrowUC) requireAdmin(ctx context.Context, tx repository.Tx, admin string) error {
	if err := uc.auth.RequireAuth(ctx, admin); err != nil {
		return err
	}
	s, err := uc.settings.Find(ctx, tx, model.ComponentEscrow)
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

// emit publishes exactly one event for a committed mutation. Publish errors
// are logged, never surfaced: the sink carries no delivery guarantee.
func (uc *escrowUC) emit(ctx context.Context, topic string, payload any) {
	if err := uc.events.Publish(ctx, topic, payload); err != nil {
		uc.log.Error().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}
