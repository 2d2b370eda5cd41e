package broker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const (
	publishQoS     = 1
	publishTimeout = 2 * time.Second
	disconnectWait = 250 // milliseconds
)

// Options configures the MQTT connection
type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// Publisher forwards ingest events to an MQTT broker, one message per
// reading, alert and advisory.
type Publisher struct {
	client pmqtt.Client
	prefix string
	logger zerolog.Logger
}

// Connect creates a publisher and connects it to the broker
func Connect(opts Options, logger zerolog.Logger) (*Publisher, error) {
	clientOpts := pmqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID + "-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ pmqtt.Client, err error) {
			logger.Warn().Err(err).Msg("MQTT connection lost")
		}).
		SetOnConnectHandler(func(_ pmqtt.Client) {
			logger.Info().Str("broker", opts.BrokerURL).Msg("✓ Connected to MQTT broker")
		})

	if strings.HasPrefix(opts.BrokerURL, "ssl://") || strings.HasPrefix(opts.BrokerURL, "wss://") {
		clientOpts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	client := pmqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return NewPublisher(client, opts.TopicPrefix, logger), nil
}

// NewPublisher wraps an already configured client
func NewPublisher(client pmqtt.Client, prefix string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		logger: logger,
	}
}

// Topic returns the topic for a community and event kind
func (p *Publisher) Topic(communityID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, communityID, kind)
}

// Publish sends the reading, its alerts and its advisories
func (p *Publisher) Publish(ctx context.Context, event models.IngestEvent) error {
	communityID := event.Reading.CommunityID

	var errs []error
	if err := p.send(ctx, p.Topic(communityID, "readings"), event.Reading); err != nil {
		errs = append(errs, err)
	}
	for _, alert := range event.Alerts {
		if err := p.send(ctx, p.Topic(communityID, "alerts"), alert); err != nil {
			errs = append(errs, err)
		}
	}
	for _, advisory := range event.Advisories {
		if err := p.send(ctx, p.Topic(communityID, "advisories"), advisory); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) send(ctx context.Context, topic string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, publishQoS, false, b)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug().Str("topic", topic).Int("bytes", len(b)).Msg("Published MQTT message")
	return nil
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectWait)
	p.logger.Info().Msg("Disconnected from MQTT broker")
}
