package model

import "time"

// Component names the two registries that keep independent settings and
// id counters. They never share state.
const (
	ComponentEscrow   = "escrow"
	ComponentVouchers = "vouchers"
)

// RegistrySettings holds the per-component configuration written exactly once
// at initialization. Admin is immutable afterwards; every admin-gated
// operation compares the acting principal against it.
type RegistrySettings struct {
	Component     string
	Admin         string
	InitializedAt time.Time
}
