package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const reconnectDelay = 5 * time.Second

// Broadcaster receives decoded live events
type Broadcaster interface {
	Broadcast(event models.LiveEvent)
}

// Listener holds a dedicated Postgres connection that LISTENs on the event
// channel and forwards every notification to a Broadcaster.
type Listener struct {
	dsn     string
	channel string
	target  Broadcaster
	logger  zerolog.Logger
}

// NewListener creates a listener for the given channel
func NewListener(dsn, channel string, target Broadcaster, logger zerolog.Logger) *Listener {
	return &Listener{
		dsn:     dsn,
		channel: channel,
		target:  target,
		logger:  logger,
	}
}

// Run listens until ctx is done, reconnecting after connection failures
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Error().Err(err).Dur("retry_in", reconnectDelay).Msg("❌ Live listener disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect listener: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}
	l.logger.Info().Str("channel", l.channel).Msg("✓ Live listener started")

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		l.handle(notification.Payload)
	}
}

func (l *Listener) handle(payload string) {
	event, err := DecodeEvent([]byte(payload))
	if err != nil {
		l.logger.Warn().Err(err).Msg("Dropping malformed live event")
		return
	}
	l.target.Broadcast(event)
}

// DecodeEvent parses a notification payload
func DecodeEvent(payload []byte) (models.LiveEvent, error) {
	var event models.LiveEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("failed to decode live event: %w", err)
	}
	switch event.Type {
	case models.EventTypeReading, models.EventTypeAlert, models.EventTypeAdvisory:
	default:
		return event, fmt.Errorf("unknown live event type: %q", event.Type)
	}
	if event.CommunityID == "" {
		return event, fmt.Errorf("live event without community")
	}
	return event, nil
}
