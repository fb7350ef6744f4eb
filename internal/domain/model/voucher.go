package model

import "time"

// Voucher is a time-bounded entitlement to a plan. It is minted inactive,
// transferable while inactive, and activated at most once by its owner.
// ExpiresAt is fixed at mint time and never recomputed.
type Voucher struct {
	ID            uint64
	Owner         string
	PlanID        string
	Code          string
	IsActive      bool
	ActivatedAt   *time.Time // nil until activation; set exactly once
	ExpiresAt     time.Time
	DurationHours uint32
}

// Expired reports whether the voucher's window has passed at the given instant.
// The boundary instant itself is still valid.
func (v *Voucher) Expired(now time.Time) bool { return now.After(v.ExpiresAt) }

// Valid reports whether the voucher grants access at the given instant.
func (v *Voucher) Valid(now time.Time) bool { return v.IsActive && !v.Expired(now) }
