package ingest

import (
	"context"
	"errors"

	"github.com/sguter90/agrimaestro/pkg/models"
)

// Publisher forwards stored readings and their alerts to live consumers
type Publisher interface {
	Publish(ctx context.Context, event models.IngestEvent) error
}

// MultiPublisher fans an event out to several publishers
type MultiPublisher []Publisher

// Publish sends the event to every publisher and joins their errors
func (m MultiPublisher) Publish(ctx context.Context, event models.IngestEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.IngestEvent) error { return nil }
