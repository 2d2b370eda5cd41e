package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const alertColumns = `id, community_id, type, severity, title, message, sensor_data_id, is_active, created_at, resolved_at`

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var sensorDataID uuid.NullUUID
	var resolvedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.CommunityID,
		&a.Type,
		&a.Severity,
		&a.Title,
		&a.Message,
		&sensorDataID,
		&a.IsActive,
		&a.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if sensorDataID.Valid {
		id := sensorDataID.UUID
		a.SensorDataID = &id
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}

	return &a, nil
}

// InsertAlerts stores all alerts with a single multi-row INSERT. IDs are
// generated before the insert and creation times are matched back by ID.
func (dm *DatabaseManager) InsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	const cols = 8
	placeholders := make([]string, 0, len(alerts))
	args := make([]interface{}, 0, len(alerts)*cols)
	ids := make([]uuid.UUID, len(alerts))
	byID := make(map[uuid.UUID]int, len(alerts))

	for i, alert := range alerts {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		var sensorDataID uuid.NullUUID
		if alert.SensorDataID != nil {
			sensorDataID = uuid.NullUUID{UUID: *alert.SensorDataID, Valid: true}
		}

		ids[i] = uuid.New()
		byID[ids[i]] = i

		args = append(args,
			ids[i],
			alert.CommunityID,
			string(alert.Type),
			string(alert.Severity),
			alert.Title,
			alert.Message,
			sensorDataID,
			alert.IsActive,
		)
	}

	query := `
        INSERT INTO alerts (id, community_id, type, severity, title, message, sensor_data_id, is_active)
        VALUES ` + strings.Join(placeholders, ", ") + `
        RETURNING id, created_at
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert alerts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			return fmt.Errorf("failed to scan alert id: %w", err)
		}
		i, ok := byID[id]
		if !ok {
			return fmt.Errorf("insert returned unknown alert id %s", id)
		}
		alerts[i].ID = id
		alerts[i].CreatedAt = createdAt
	}

	return rows.Err()
}

// CreateAlert stores a single alert, used for manual reports
func (dm *DatabaseManager) CreateAlert(ctx context.Context, alert *models.Alert) error {
	alerts := []models.Alert{*alert}
	if err := dm.InsertAlerts(ctx, alerts); err != nil {
		return err
	}
	*alert = alerts[0]
	return nil
}

// GetAlerts retrieves a page of alerts, newest first, and the total count matching the filters
func (dm *DatabaseManager) GetAlerts(ctx context.Context, params models.AlertQueryParams) ([]models.Alert, int, error) {
	conditions := []string{"community_id = $1"}
	args := []interface{}{params.CommunityID}
	argPos := 2

	if params.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *params.Active)
		argPos++
	}

	if params.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, string(params.Type))
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := dm.QueryRowWithHealthCheck(ctx, "SELECT COUNT(*) FROM alerts WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM alerts
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, alertColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}

	return alerts, total, rows.Err()
}

// ResolveAlert marks an active alert of the community as resolved.
// Returns ErrNotFound if the alert does not exist, belongs to another community or is already resolved.
func (dm *DatabaseManager) ResolveAlert(ctx context.Context, communityID string, alertID uuid.UUID) (*models.Alert, error) {
	query := `
        UPDATE alerts
        SET is_active = FALSE, resolved_at = CURRENT_TIMESTAMP
        WHERE id = $1 AND community_id = $2 AND is_active
        RETURNING ` + alertColumns

	alert, err := scanAlert(dm.QueryRowWithHealthCheck(ctx, query, alertID, communityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}

	return alert, nil
}
