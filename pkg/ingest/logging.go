package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
)

type loggingIngester struct {
	next   Ingester
	logger zerolog.Logger
}

// NewLoggingIngester wraps an Ingester with outcome and timing logs
func NewLoggingIngester(next Ingester, logger zerolog.Logger) Ingester {
	return &loggingIngester{next: next, logger: logger}
}

func (l *loggingIngester) Ingest(ctx context.Context, apiKey string, body []byte) (result *Result, err error) {
	defer func(timeCalled time.Time) {
		duration := time.Since(timeCalled).Milliseconds()
		if err != nil {
			var event *zerolog.Event
			if StatusCode(err) >= 500 {
				event = l.logger.Error()
			} else {
				event = l.logger.Warn()
			}
			event.Err(err).
				Str("key", models.KeyPrefix(apiKey)).
				Int64("duration", duration).
				Msg("Ingestion rejected")
			return
		}
		l.logger.Info().
			Str("reading", result.ReadingID.String()).
			Str("community", result.Reading.CommunityID).
			Int64("sequence", result.Reading.Sequence).
			Int("alerts", len(result.Alerts)).
			Int("advisories", len(result.Advisories)).
			Int64("duration", duration).
			Msg("✓ Reading ingested")
	}(time.Now())

	return l.next.Ingest(ctx, apiKey, body)
}
