package models

import "encoding/json"

// Live event types pushed to dashboards and brokers
const (
	EventTypeReading  = "reading"
	EventTypeAlert    = "alert"
	EventTypeAdvisory = "advisory"
)

// IngestEvent is published after a reading has been stored
type IngestEvent struct {
	Reading    SensorReading `json:"reading"`
	Alerts     []Alert       `json:"alerts"`
	Advisories []Alert       `json:"advisories"`
}

// LiveEvent is one message on the dashboard feed
type LiveEvent struct {
	Type        string          `json:"type"`
	CommunityID string          `json:"community_id"`
	Payload     json.RawMessage `json:"payload"`
}
