package ingest

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const (
	msgKeyRequired = "Device API key required"
	msgKeyInvalid  = "Invalid device API key"
)

// Validator resolves a device API key to its community
type Validator struct {
	store  CredentialStore
	logger zerolog.Logger
}

// NewValidator creates a new Validator
func NewValidator(store CredentialStore, logger zerolog.Logger) *Validator {
	return &Validator{store: store, logger: logger}
}

// Validate returns the community the key belongs to
func (v *Validator) Validate(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", Unauthorized(msgKeyRequired)
	}

	cred, err := v.store.LookupDeviceCredential(ctx, apiKey)
	if err != nil {
		return "", InternalError("Failed to validate device API key", err)
	}
	if cred == nil || !cred.IsActive {
		v.logger.Warn().Str("key", models.KeyPrefix(apiKey)).Msg("Rejected device API key")
		return "", Unauthorized(msgKeyInvalid)
	}

	if err := v.store.TouchDeviceCredential(ctx, cred.ID); err != nil {
		v.logger.Warn().Err(err).Str("device", cred.ID.String()).Msg("Failed to update last_used_at")
	}

	return cred.CommunityID, nil
}
