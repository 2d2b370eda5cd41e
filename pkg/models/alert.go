package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType classifies an alert
type AlertType string

const (
	AlertTypeWeather    AlertType = "weather"
	AlertTypeIrrigation AlertType = "irrigation"
	AlertTypeSoil       AlertType = "soil"
	AlertTypePest       AlertType = "pest"
	AlertTypeOther      AlertType = "other"
)

// Valid reports whether t is a known alert type
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeWeather, AlertTypeIrrigation, AlertTypeSoil, AlertTypePest, AlertTypeOther:
		return true
	}
	return false
}

// Severity ranks an alert
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Alert is a notification raised by the rule engine or filed by a user
type Alert struct {
	ID           uuid.UUID  `json:"id"`
	CommunityID  string     `json:"community_id"`
	Type         AlertType  `json:"type"`
	Severity     Severity   `json:"severity"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	SensorDataID *uuid.UUID `json:"sensor_data_id,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// AlertQueryParams holds all query parameters for alert listings
type AlertQueryParams struct {
	CommunityID string
	Active      *bool
	Type        AlertType
	Limit       int
	Page        int
}

// Validate checks if the query parameters are valid
func (p *AlertQueryParams) Validate() error {
	if p.CommunityID == "" {
		return fmt.Errorf("community is required")
	}
	if p.Type != "" && !p.Type.Valid() {
		return fmt.Errorf("invalid alert type: %s", p.Type)
	}
	if p.Limit < 1 || p.Limit > 1000 {
		return fmt.Errorf("limit must be between 1 and 1000")
	}
	if p.Page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	return nil
}

// Report kinds offered by the manual incident form
const (
	ReportKindPest     = "pest"
	ReportKindRainfall = "rainfall"
	ReportKindOther    = "other"
)

var reportKindTypes = map[string]AlertType{
	ReportKindPest:     AlertTypePest,
	ReportKindRainfall: AlertTypeWeather,
	ReportKindOther:    AlertTypeOther,
}

var reportKindTitles = map[string]string{
	ReportKindPest:     "Pest Report",
	ReportKindRainfall: "Heavy Rainfall Report",
	ReportKindOther:    "Incident Report",
}

// ManualReport is an incident filed by a community member
type ManualReport struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity,omitempty"`
}

// Validate checks the report before it becomes an alert
func (r *ManualReport) Validate() error {
	if _, ok := reportKindTypes[r.Kind]; !ok {
		return fmt.Errorf("invalid report kind: %q (valid: pest, rainfall, other)", r.Kind)
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	if r.Severity != "" && !r.Severity.Valid() {
		return fmt.Errorf("invalid severity: %s", r.Severity)
	}
	return nil
}

// ToAlert builds the alert stored for a report. Manual alerts never link to a reading.
func (r *ManualReport) ToAlert(communityID string) Alert {
	severity := r.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	return Alert{
		CommunityID: communityID,
		Type:        reportKindTypes[r.Kind],
		Severity:    severity,
		Title:       reportKindTitles[r.Kind],
		Message:     r.Description,
		IsActive:    true,
	}
}
