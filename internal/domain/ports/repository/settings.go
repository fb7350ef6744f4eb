package repository

import (
	"context"

	"planvault/internal/domain/model"
)

// SettingsRepository stores the write-once per-component settings record.
type SettingsRepository interface {
	// Find returns domain.ErrNotFound while the component is uninitialized.
	Find(ctx context.Context, tx Tx, component string) (*model.RegistrySettings, error)
	// Create inserts the settings record; returns domain.ErrAlreadyInitialized
	// if one already exists for the component.
	Create(ctx context.Context, tx Tx, s *model.RegistrySettings) error
}
