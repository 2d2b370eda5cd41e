package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sguter90/agrimaestro/pkg/models"
)

const msgSequenceRequired = "sequence field is required and must be a number"

// Keys outside the schema are ignored. Keys match exactly, so "Sequence" or
// "temp" do not stand in for "sequence" or "Temp".
const (
	keySequence  = "sequence"
	keyTimestamp = "timestamp"
)

// Accepted device timestamps. A value without zone is taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Normalizer turns a device payload into a SensorReading
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a new Normalizer. A nil clock uses time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize validates the payload and builds a reading for the community.
// Measurements are copied as reported.
func (n *Normalizer) Normalize(body []byte, communityID string) (*models.SensorReading, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ValidationError("request body must be a JSON object", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, ValidationError("invalid JSON payload", err)
	}

	sequence, err := parseSequence(fields[keySequence])
	if err != nil {
		return nil, ValidationError(msgSequenceRequired, err)
	}

	var measurements models.Measurements
	for _, info := range models.MeasurementCatalog {
		raw, ok := fields[info.Field]
		if !ok || isNull(raw) {
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, ValidationError(fmt.Sprintf("%s must be a number", info.Field), err)
		}
		if err := measurements.Set(info.Field, value); err != nil {
			return nil, InternalError("failed to set measurement", err)
		}
	}

	timestamp := n.now().UTC()
	if raw, ok := fields[keyTimestamp]; ok && !isNull(raw) {
		parsed, err := parseTimestamp(raw)
		if err != nil {
			return nil, ValidationError("timestamp must be an ISO 8601 date-time string", err)
		}
		if !parsed.IsZero() {
			timestamp = parsed
		}
	}

	return &models.SensorReading{
		CommunityID:  communityID,
		Sequence:     sequence,
		Measurements: measurements,
		Timestamp:    timestamp,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// parseTimestamp accepts a string in one of timestampLayouts. An empty string means no timestamp.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}

	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseSequence accepts JSON numbers with an integral value
func parseSequence(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, errors.New("sequence missing")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return 0, err
	}

	number, ok := value.(json.Number)
	if !ok {
		return 0, fmt.Errorf("sequence has type %T", value)
	}

	if i, err := number.Int64(); err == nil {
		return i, nil
	}

	fl, err := number.Float64()
	if err != nil {
		return 0, err
	}
	if fl != math.Trunc(fl) || fl >= math.MaxInt64 || fl < math.MinInt64 {
		return 0, fmt.Errorf("sequence %s is not an integer", number)
	}
	return int64(fl), nil
}
