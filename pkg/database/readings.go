package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sguter90/agrimaestro/pkg/models"
)

const readingColumns = `id, community_id, sequence, soil, rain, "pH", "Hum", "Temp", turbidity,
        "O3", "NH3", "CO2", "TiltX", "TiltY", timestamp, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (*models.SensorReading, error) {
	var r models.SensorReading
	err := row.Scan(
		&r.ID,
		&r.CommunityID,
		&r.Sequence,
		&r.Soil,
		&r.Rain,
		&r.PH,
		&r.Humidity,
		&r.Temp,
		&r.Turbidity,
		&r.O3,
		&r.NH3,
		&r.CO2,
		&r.TiltX,
		&r.TiltY,
		&r.Timestamp,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertSensorReading stores a reading and fills in its ID and CreatedAt
func (dm *DatabaseManager) InsertSensorReading(ctx context.Context, reading *models.SensorReading) error {
	query := `
        INSERT INTO sensor_data (
            community_id, sequence, soil, rain, "pH", "Hum", "Temp", turbidity,
            "O3", "NH3", "CO2", "TiltX", "TiltY", timestamp
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING id, created_at
    `

	err := dm.QueryRowWithHealthCheck(ctx, query,
		reading.CommunityID,
		reading.Sequence,
		reading.Soil,
		reading.Rain,
		reading.PH,
		reading.Humidity,
		reading.Temp,
		reading.Turbidity,
		reading.O3,
		reading.NH3,
		reading.CO2,
		reading.TiltX,
		reading.TiltY,
		reading.Timestamp,
	).Scan(&reading.ID, &reading.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}

	return nil
}

// LatestSensorReading returns the most recently stored reading of a community, or nil if there is none
func (dm *DatabaseManager) LatestSensorReading(ctx context.Context, communityID string) (*models.SensorReading, error) {
	query := `
        SELECT ` + readingColumns + `
        FROM sensor_data
        WHERE community_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `

	reading, err := scanReading(dm.QueryRowWithHealthCheck(ctx, query, communityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}

	return reading, nil
}

// GetSensorReadings retrieves a page of readings and the total count matching the filters
func (dm *DatabaseManager) GetSensorReadings(ctx context.Context, params models.ReadingQueryParams) ([]models.SensorReading, int, error) {
	conditions := []string{"community_id = $1"}
	args := []interface{}{params.CommunityID}
	argPos := 2

	if params.StartTime != "" {
		start, err := time.Parse(time.RFC3339, params.StartTime)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid start time: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", argPos))
		args = append(args, start)
		argPos++
	}

	if params.EndTime != "" {
		end, err := time.Parse(time.RFC3339, params.EndTime)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid end time: %w", err)
		}
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", argPos))
		args = append(args, end)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM sensor_data WHERE " + where
	if err := dm.QueryRowWithHealthCheck(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count readings: %w", err)
	}

	order := "DESC"
	if params.Order == "asc" {
		order = "ASC"
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM sensor_data
        WHERE %s
        ORDER BY timestamp %s, created_at %s
        LIMIT $%d OFFSET $%d
    `, readingColumns, where, order, order, argPos, argPos+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := dm.QueryWithHealthCheck(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []models.SensorReading{}
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, *reading)
	}

	return readings, total, rows.Err()
}
