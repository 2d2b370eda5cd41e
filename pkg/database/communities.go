package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// ErrCommunityExists is returned when a community name is taken
var ErrCommunityExists = errors.New("community already exists")

// CreateCommunity creates a new community
func (dm *DatabaseManager) CreateCommunity(ctx context.Context, name, description, location string) (*models.Community, error) {
	if name == "" {
		return nil, errors.New("community name must not be empty")
	}

	query := `
        INSERT INTO communities (name, description, location)
        VALUES ($1, $2, $3)
        RETURNING id, name, description, location, created_at, updated_at
    `

	var c models.Community
	err := dm.QueryRowWithHealthCheck(ctx, query, name, description, location).
		Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCommunityExists
		}
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	return &c, nil
}

// ListCommunities returns all communities ordered by name
func (dm *DatabaseManager) ListCommunities(ctx context.Context) ([]models.Community, error) {
	query := `
        SELECT id, name, description, location, created_at, updated_at
        FROM communities
        ORDER BY name
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query communities: %w", err)
	}
	defer rows.Close()

	var communities []models.Community
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		communities = append(communities, c)
	}

	return communities, rows.Err()
}

// GetCommunity retrieves a community by ID
func (dm *DatabaseManager) GetCommunity(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	query := `
        SELECT id, name, description, location, created_at, updated_at
        FROM communities
        WHERE id = $1
    `

	var c models.Community
	err := dm.QueryRowWithHealthCheck(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query community: %w", err)
	}

	return &c, nil
}
