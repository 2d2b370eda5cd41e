package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sguter90/agrimaestro/pkg/models"
)

// ReadingsPage is a page of readings
type ReadingsPage struct {
	Data       []models.SensorReading `json:"data"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	Limit      int                    `json:"limit"`
	HasMore    bool                   `json:"has_more"`
}

// PushReading sends one reading with the configured device key
func (c *Client) PushReading(ctx context.Context, payload models.ReadingPayload) (*models.IngestResponse, error) {
	if c.deviceKey == "" {
		return nil, errors.New("device key is required to push readings")
	}

	var result models.IngestResponse
	if err := c.getJSON(ctx, http.MethodPost, "/api/v1/sensor-data-ingestion", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LatestReading returns the most recent reading of the caller's community
func (c *Client) LatestReading(ctx context.Context) (*models.SensorReading, error) {
	var reading models.SensorReading
	if err := c.getJSON(ctx, http.MethodGet, "/api/v1/readings/latest", nil, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

// ListReadings returns a page of readings; zero values are left to server defaults
func (c *Client) ListReadings(ctx context.Context, startTime, endTime string, limit, page int) (*ReadingsPage, error) {
	query := url.Values{}
	if startTime != "" {
		query.Set("start", startTime)
	}
	if endTime != "" {
		query.Set("end", endTime)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	path := "/api/v1/readings"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result ReadingsPage
	if err := c.getJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
