package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const deviceColumns = `id, api_key, community_id, COALESCE(device_name, ''), is_active, last_used_at, created_at, created_by`

func scanDeviceCredential(row rowScanner) (*models.DeviceCredential, error) {
	var cred models.DeviceCredential
	var lastUsedAt sql.NullTime
	var createdBy uuid.NullUUID

	err := row.Scan(
		&cred.ID,
		&cred.APIKey,
		&cred.CommunityID,
		&cred.DeviceName,
		&cred.IsActive,
		&lastUsedAt,
		&cred.CreatedAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}

	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		cred.LastUsedAt = &t
	}
	if createdBy.Valid {
		id := createdBy.UUID
		cred.CreatedBy = &id
	}

	return &cred, nil
}

// generateAPIKey returns a random 64 character hex key
func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateDeviceCredential provisions a new API key for a device of the community
func (dm *DatabaseManager) CreateDeviceCredential(ctx context.Context, communityID, deviceName string, createdBy *uuid.UUID) (*models.DeviceCredential, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	var name sql.NullString
	if deviceName != "" {
		name = sql.NullString{String: deviceName, Valid: true}
	}
	var creator uuid.NullUUID
	if createdBy != nil {
		creator = uuid.NullUUID{UUID: *createdBy, Valid: true}
	}

	query := `
        INSERT INTO device_api_keys (api_key, community_id, device_name, created_by)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + deviceColumns

	cred, err := scanDeviceCredential(dm.QueryRowWithHealthCheck(ctx, query, apiKey, communityID, name, creator))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("community %s: %w", communityID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create device credential: %w", err)
	}

	return cred, nil
}

// LookupDeviceCredential finds a credential by exact key match. Returns nil without error for unknown keys.
func (dm *DatabaseManager) LookupDeviceCredential(ctx context.Context, apiKey string) (*models.DeviceCredential, error) {
	query := `SELECT ` + deviceColumns + ` FROM device_api_keys WHERE api_key = $1`

	cred, err := scanDeviceCredential(dm.QueryRowWithHealthCheck(ctx, query, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device credential: %w", err)
	}

	return cred, nil
}

// TouchDeviceCredential records that the credential was just used
func (dm *DatabaseManager) TouchDeviceCredential(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE device_api_keys SET last_used_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := dm.ExecWithHealthCheck(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last_used_at: %w", err)
	}
	return nil
}

// ListDeviceCredentials returns all credentials of a community, newest first
func (dm *DatabaseManager) ListDeviceCredentials(ctx context.Context, communityID string) ([]models.DeviceCredential, error) {
	query := `
        SELECT ` + deviceColumns + `
        FROM device_api_keys
        WHERE community_id = $1
        ORDER BY created_at DESC
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.DeviceCredential
	for rows.Next() {
		cred, err := scanDeviceCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device credential: %w", err)
		}
		creds = append(creds, *cred)
	}

	return creds, rows.Err()
}

// DeactivateDeviceCredential disables a key. The row is kept.
func (dm *DatabaseManager) DeactivateDeviceCredential(ctx context.Context, id uuid.UUID) error {
	result, err := dm.ExecWithHealthCheck(ctx, `UPDATE device_api_keys SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate device credential: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
