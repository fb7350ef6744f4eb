package adapter

import "time"

// Clock supplies the monotonically non-decreasing timestamp used for payment
// creation times, voucher expiry windows, and lazy validity checks. Injected
// so tests can travel in time.
type Clock interface {
	Now() time.Time
}
