//go:build !integration

// File: internal/usecase/voucher_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"planvault/internal/domain"
)

type voucherDeps struct {
	settings *memSettingsRepo
	vouchers *memVoucherRepo
	auth     *allowAuth
	clock    *fakeClock
	sink     *memSink
}

func newVoucherDeps(principals ...string) (*voucherDeps, *voucherUC) {
	d := &voucherDeps{
		settings: newMemSettingsRepo(),
		vouchers: newMemVoucherRepo(),
		auth:     newAllowAuth(principals...),
		clock:    newFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		sink:     newMemSink(),
	}
	tm := newMemTxManager(d.settings, d.vouchers)
	uc := NewVoucherUseCase(d.settings, d.vouchers, d.auth, d.clock, d.sink, tm, newTestLogger())
	return d, uc
}

func initializedVoucherUC(t *testing.T, principals ...string) (*voucherDeps, *voucherUC) {
	t.Helper()
	d, uc := newVoucherDeps(principals...)
	if err := uc.Initialize(context.Background(), "admin"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return d, uc
}

func TestVoucherInitialize(t *testing.T) {
	ctx := context.Background()
	_, uc := newVoucherDeps("admin")
	if err := uc.Initialize(ctx, "admin"); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if err := uc.Initialize(ctx, "admin"); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestMintVoucher(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential ids with no gaps", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin")
		for want := uint64(1); want <= 5; want++ {
			id, err := uc.Mint(ctx, "admin", "owner", "plan-1", "CODE", 24)
			if err != nil {
				t.Fatalf("mint %d: %v", want, err)
			}
			if id != want {
				t.Fatalf("mint returned id %d, want %d", id, want)
			}
		}
	})

	t.Run("fixes expiry at mint time", func(t *testing.T) {
		d, uc := initializedVoucherUC(t, "admin")
		mintTime := d.clock.Now()
		id, err := uc.Mint(ctx, "admin", "owner", "plan-1", "CODE", 24)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		v, err := uc.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if want := mintTime.Add(24 * time.Hour); !v.ExpiresAt.Equal(want) {
			t.Errorf("expires at %v, want %v", v.ExpiresAt, want)
		}
		if v.IsActive {
			t.Error("freshly minted voucher must be inactive")
		}
		if v.ActivatedAt != nil {
			t.Error("activated_at must be unset before activation")
		}
	})

	t.Run("only the stored admin mints", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "mallory")
		if _, err := uc.Mint(ctx, "mallory", "owner", "plan-1", "CODE", 24); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("uninitialized registry", func(t *testing.T) {
		_, uc := newVoucherDeps("admin")
		if _, err := uc.Mint(ctx, "admin", "owner", "plan-1", "CODE", 24); !errors.Is(err, domain.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got %v", err)
		}
	})
}

func TestActivateVoucher(t *testing.T) {
	ctx := context.Background()

	mint := func(t *testing.T, uc *voucherUC, hours uint32) uint64 {
		t.Helper()
		id, err := uc.Mint(ctx, "admin", "owner", "plan-1", "CODE", hours)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		return id
	}

	t.Run("records the activation instant once", func(t *testing.T) {
		d, uc := initializedVoucherUC(t, "admin", "owner")
		id := mint(t, uc, 24)
		d.clock.Advance(time.Hour)
		activateTime := d.clock.Now()

		if err := uc.Activate(ctx, id, "owner"); err != nil {
			t.Fatalf("activate: %v", err)
		}
		v, _ := uc.Get(ctx, id)
		if !v.IsActive {
			t.Error("voucher should be active")
		}
		if v.ActivatedAt == nil || !v.ActivatedAt.Equal(activateTime) {
			t.Errorf("activated_at = %v, want %v", v.ActivatedAt, activateTime)
		}
	})

	t.Run("second activation fails regardless of caller", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "owner")
		id := mint(t, uc, 24)
		if err := uc.Activate(ctx, id, "owner"); err != nil {
			t.Fatalf("activate: %v", err)
		}
		if err := uc.Activate(ctx, id, "owner"); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "owner", "mallory")
		id := mint(t, uc, 24)
		if err := uc.Activate(ctx, id, "mallory"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("missing voucher", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "owner")
		if err := uc.Activate(ctx, 77, "owner"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("activation at the expiry instant still succeeds", func(t *testing.T) {
		d, uc := initializedVoucherUC(t, "admin", "owner")
		id := mint(t, uc, 24)
		d.clock.Advance(24 * time.Hour)
		if err := uc.Activate(ctx, id, "owner"); err != nil {
			t.Errorf("boundary activation failed: %v", err)
		}
	})

	t.Run("one second past expiry fails", func(t *testing.T) {
		d, uc := initializedVoucherUC(t, "admin", "owner")
		id := mint(t, uc, 24)
		d.clock.Advance(24*time.Hour + time.Second)
		if err := uc.Activate(ctx, id, "owner"); !errors.Is(err, domain.ErrExpired) {
			t.Errorf("expected ErrExpired, got %v", err)
		}
	})
}

func TestIsValid(t *testing.T) {
	ctx := context.Background()
	d, uc := initializedVoucherUC(t, "admin", "owner")

	id, err := uc.Mint(ctx, "admin", "owner", "plan-1", "X1", 24)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if valid, err := uc.IsValid(ctx, id); err != nil || valid {
		t.Errorf("inactive voucher must be invalid (valid=%v err=%v)", valid, err)
	}

	if err := uc.Activate(ctx, id, "owner"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if valid, err := uc.IsValid(ctx, id); err != nil || !valid {
		t.Errorf("active voucher must be valid (valid=%v err=%v)", valid, err)
	}

	d.clock.Advance(25 * time.Hour)
	if valid, err := uc.IsValid(ctx, id); err != nil || valid {
		t.Errorf("expired voucher must be invalid (valid=%v err=%v)", valid, err)
	}

	if _, err := uc.IsValid(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing voucher must surface ErrNotFound, got %v", err)
	}
}

func TestTransferVoucher(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive voucher changes hands and the new owner activates", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "alice", "bob")
		id, err := uc.Mint(ctx, "admin", "alice", "plan-1", "X1", 24)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}

		if err := uc.Transfer(ctx, id, "alice", "bob"); err != nil {
			t.Fatalf("transfer: %v", err)
		}
		v, _ := uc.Get(ctx, id)
		if v.Owner != "bob" {
			t.Errorf("owner = %q, want bob", v.Owner)
		}

		if err := uc.Activate(ctx, id, "alice"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("previous owner activation: expected ErrUnauthorized, got %v", err)
		}
		if err := uc.Activate(ctx, id, "bob"); err != nil {
			t.Errorf("new owner activation: %v", err)
		}
	})

	t.Run("activation freezes ownership", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "alice", "bob")
		id, err := uc.Mint(ctx, "admin", "alice", "plan-1", "X1", 24)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if err := uc.Activate(ctx, id, "alice"); err != nil {
			t.Fatalf("activate: %v", err)
		}
		if err := uc.Transfer(ctx, id, "alice", "bob"); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("non-owner cannot transfer", func(t *testing.T) {
		_, uc := initializedVoucherUC(t, "admin", "alice", "mallory")
		id, err := uc.Mint(ctx, "admin", "alice", "plan-1", "X1", 24)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		if err := uc.Transfer(ctx, id, "mallory", "mallory"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

// End-to-end: mint, activate, validity over time. Mirrors the lifecycle a
// plan buyer actually walks through.
func TestVoucherLifecycle(t *testing.T) {
	ctx := context.Background()
	d, uc := initializedVoucherUC(t, "admin", "owner")

	id, err := uc.Mint(ctx, "admin", "owner", "p1", "X1", 24)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id != 1 {
		t.Fatalf("first voucher id = %d, want 1", id)
	}

	if valid, _ := uc.IsValid(ctx, id); valid {
		t.Error("voucher valid before activation")
	}
	if err := uc.Activate(ctx, id, "owner"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if valid, _ := uc.IsValid(ctx, id); !valid {
		t.Error("voucher invalid after activation")
	}

	d.clock.Advance(24*time.Hour + time.Second)
	if valid, _ := uc.IsValid(ctx, id); valid {
		t.Error("voucher still valid past its window")
	}

	topics := d.sink.Topics()
	want := []string{"init", "voucher_minted", "voucher_activated"}
	if len(topics) != len(want) {
		t.Fatalf("events = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}
