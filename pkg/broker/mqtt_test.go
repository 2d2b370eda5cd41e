package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// MockToken completes immediately unless timeout is set
type MockToken struct {
	err     error
	timeout bool
}

func (t *MockToken) Wait() bool { return true }

func (t *MockToken) WaitTimeout(time.Duration) bool { return !t.timeout }

func (t *MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *MockToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// MockClient records publishes; other Client methods are not used
type MockClient struct {
	pmqtt.Client
	messages     []published
	err          error
	timeout      bool
	disconnected bool
}

func (c *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) pmqtt.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &MockToken{err: c.err, timeout: c.timeout}
}

func (c *MockClient) Disconnect(uint) {
	c.disconnected = true
}

func testEvent() models.IngestEvent {
	return models.IngestEvent{
		Reading: models.SensorReading{CommunityID: "community-a", Sequence: 7},
		Alerts: []models.Alert{
			{CommunityID: "community-a", Type: models.AlertTypeWeather, Title: "High Temperature Alert"},
			{CommunityID: "community-a", Type: models.AlertTypeIrrigation, Title: "Low Soil Moisture"},
		},
		Advisories: []models.Alert{
			{CommunityID: "community-a", Type: models.AlertTypeOther, Title: "Landslide Risk"},
		},
	}
}

func TestPublisher_Publish(t *testing.T) {
	client := &MockClient{}
	p := NewPublisher(client, "agrimaestro/", zerolog.Nop())

	if err := p.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	wantTopics := []string{
		"agrimaestro/community-a/readings",
		"agrimaestro/community-a/alerts",
		"agrimaestro/community-a/alerts",
		"agrimaestro/community-a/advisories",
	}
	if len(client.messages) != len(wantTopics) {
		t.Fatalf("Expected %d messages, got %d", len(wantTopics), len(client.messages))
	}
	for i, want := range wantTopics {
		if client.messages[i].topic != want {
			t.Errorf("Message %d: expected topic %s, got %s", i, want, client.messages[i].topic)
		}
		if client.messages[i].qos != 1 {
			t.Errorf("Message %d: expected QoS 1, got %d", i, client.messages[i].qos)
		}
	}

	var reading models.SensorReading
	if err := json.Unmarshal(client.messages[0].payload, &reading); err != nil {
		t.Fatalf("Failed to decode reading payload: %v", err)
	}
	if reading.Sequence != 7 {
		t.Errorf("Expected sequence 7, got %d", reading.Sequence)
	}
}

func TestPublisher_PublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		client  *MockClient
		wantErr bool
	}{
		{name: "Broker error", client: &MockClient{err: errors.New("not connected")}, wantErr: true},
		{name: "Timeout", client: &MockClient{timeout: true}, wantErr: true},
		{name: "Success", client: &MockClient{}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(tt.client, "agrimaestro", zerolog.Nop())
			err := p.Publish(context.Background(), testEvent())
			if (err != nil) != tt.wantErr {
				t.Errorf("Publish() error = %v, wantErr %v", err, tt.wantErr)
			}
			// Every message is attempted even after a failure
			if len(tt.client.messages) != 4 {
				t.Errorf("Expected 4 publish attempts, got %d", len(tt.client.messages))
			}
		})
	}
}

func TestPublisher_CanceledContext(t *testing.T) {
	client := &MockClient{}
	p := NewPublisher(client, "agrimaestro", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Publish(ctx, testEvent()); err == nil {
		t.Error("Expected error for canceled context")
	}
	if len(client.messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(client.messages))
	}
}

func TestPublisher_Close(t *testing.T) {
	client := &MockClient{}
	NewPublisher(client, "agrimaestro", zerolog.Nop()).Close()

	if !client.disconnected {
		t.Error("Expected client to be disconnected")
	}
}
