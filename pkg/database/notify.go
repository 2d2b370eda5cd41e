package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sguter90/agrimaestro/pkg/models"
)

// EventChannel is the Postgres NOTIFY channel used by the insert triggers
const EventChannel = "agri_events"

// AdvisoryNotifier sends advisories over the same NOTIFY channel the insert triggers use.
// Readings and stored alerts already reach listeners through the triggers.
type AdvisoryNotifier struct {
	dm *DatabaseManager
}

// NewAdvisoryNotifier creates a publisher for advisories
func NewAdvisoryNotifier(dm *DatabaseManager) *AdvisoryNotifier {
	return &AdvisoryNotifier{dm: dm}
}

// Publish notifies listeners of every advisory in the event
func (n *AdvisoryNotifier) Publish(ctx context.Context, event models.IngestEvent) error {
	var errs []error
	for _, advisory := range event.Advisories {
		payload, err := encodeLiveEvent(models.EventTypeAdvisory, advisory.CommunityID, advisory)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := n.dm.ExecWithHealthCheck(ctx, "SELECT pg_notify($1, $2)", EventChannel, payload); err != nil {
			errs = append(errs, fmt.Errorf("failed to notify advisory: %w", err))
		}
	}
	return errors.Join(errs...)
}

func encodeLiveEvent(eventType, communityID string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	data, err := json.Marshal(models.LiveEvent{
		Type:        eventType,
		CommunityID: communityID,
		Payload:     raw,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return string(data), nil
}
