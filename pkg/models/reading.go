package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Measurements holds the optional values a field device may report.
// A nil pointer means the device did not report the value.
type Measurements struct {
	Soil      *float64 `json:"soil,omitempty"`
	Rain      *float64 `json:"rain,omitempty"`
	PH        *float64 `json:"pH,omitempty"`
	Humidity  *float64 `json:"Hum,omitempty"`
	Temp      *float64 `json:"Temp,omitempty"`
	Turbidity *float64 `json:"turbidity,omitempty"`
	O3        *float64 `json:"O3,omitempty"`
	NH3       *float64 `json:"NH3,omitempty"`
	CO2       *float64 `json:"CO2,omitempty"`
	TiltX     *float64 `json:"TiltX,omitempty"`
	TiltY     *float64 `json:"TiltY,omitempty"`
}

// Field returns a pointer to the measurement slot for a field name, or nil for unknown fields
func (m *Measurements) Field(name string) **float64 {
	switch name {
	case FieldSoil:
		return &m.Soil
	case FieldRain:
		return &m.Rain
	case FieldPH:
		return &m.PH
	case FieldHumidity:
		return &m.Humidity
	case FieldTemp:
		return &m.Temp
	case FieldTurbidity:
		return &m.Turbidity
	case FieldO3:
		return &m.O3
	case FieldNH3:
		return &m.NH3
	case FieldCO2:
		return &m.CO2
	case FieldTiltX:
		return &m.TiltX
	case FieldTiltY:
		return &m.TiltY
	}
	return nil
}

// Set stores a value for a field name
func (m *Measurements) Set(name string, value float64) error {
	slot := m.Field(name)
	if slot == nil {
		return fmt.Errorf("unknown measurement: %s", name)
	}
	*slot = &value
	return nil
}

// Values returns the reported measurements keyed by field name
func (m Measurements) Values() map[string]float64 {
	values := make(map[string]float64)
	for _, info := range MeasurementCatalog {
		if v := *m.Field(info.Field); v != nil {
			values[info.Field] = *v
		}
	}
	return values
}

// SensorReading is one ingested observation as stored in sensor_data
type SensorReading struct {
	ID          uuid.UUID `json:"id"`
	CommunityID string    `json:"community_id"`
	Sequence    int64     `json:"sequence"`
	Measurements
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingPayload is the body a device posts to the ingestion endpoint
type ReadingPayload struct {
	Sequence int64 `json:"sequence"`
	Measurements
	Timestamp string `json:"timestamp,omitempty"`
}

// IngestResponse is returned by the ingestion endpoint on success
type IngestResponse struct {
	Success bool      `json:"success"`
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

// ReadingQueryParams holds all query parameters for reading queries
type ReadingQueryParams struct {
	CommunityID string
	StartTime   string
	EndTime     string
	Limit       int
	Page        int
	Order       string
}

// Validate checks if the query parameters are valid
func (p *ReadingQueryParams) Validate() error {
	if p.CommunityID == "" {
		return fmt.Errorf("community is required")
	}

	var start, end time.Time
	if p.StartTime != "" {
		t, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			return fmt.Errorf("invalid start time: %s", p.StartTime)
		}
		start = t
	}

	if p.EndTime != "" {
		t, err := time.Parse(time.RFC3339, p.EndTime)
		if err != nil {
			return fmt.Errorf("invalid end time: %s", p.EndTime)
		}
		end = t
	}

	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("start time must be before end time")
	}

	// Validate limit
	if p.Limit < 1 || p.Limit > 10000 {
		return fmt.Errorf("limit must be between 1 and 10000")
	}

	// Validate page
	if p.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}

	if p.Order != "asc" && p.Order != "desc" {
		return fmt.Errorf("invalid order: %s (valid: asc, desc)", p.Order)
	}

	return nil
}

// PagedResponse wraps one page of readings or alerts
type PagedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Limit      int         `json:"limit"`
	HasMore    bool        `json:"has_more"`
}

// NewPagedResponse fills in the pagination fields
func NewPagedResponse(data interface{}, total, page, limit int) *PagedResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &PagedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		Limit:      limit,
		HasMore:    page < totalPages,
	}
}
