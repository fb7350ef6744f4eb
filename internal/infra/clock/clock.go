// File: internal/infra/clock/clock.go
package clock

import (
	"time"

	"planvault/internal/domain/ports/adapter"
)

var _ adapter.Clock = (*System)(nil)

// System is the wall clock, truncated to whole seconds to match the
// second-granularity timestamps the registries persist.
type System struct{}

func NewSystem() *System { return &System{} }

func (System) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }
