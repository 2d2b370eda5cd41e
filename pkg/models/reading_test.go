package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestReadingQueryParams_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		params      ReadingQueryParams
		expectError bool
		errorMsg    string
	}{
		{
			name: "Valid basic params",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				Limit:       100,
				Page:        1,
				Order:       "desc",
			},
			expectError: false,
		},
		{
			name: "Missing community",
			params: ReadingQueryParams{
				Limit: 100,
				Page:  1,
				Order: "desc",
			},
			expectError: true,
			errorMsg:    "community is required",
		},
		{
			name: "Invalid limit - too low",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				Limit:       0,
				Page:        1,
				Order:       "desc",
			},
			expectError: true,
			errorMsg:    "limit must be between 1 and 10000",
		},
		{
			name: "Invalid limit - too high",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				Limit:       10001,
				Page:        1,
				Order:       "desc",
			},
			expectError: true,
			errorMsg:    "limit must be between 1 and 10000",
		},
		{
			name: "Invalid page - zero",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				Limit:       100,
				Page:        0,
				Order:       "desc",
			},
			expectError: true,
			errorMsg:    "page must be greater than 0",
		},
		{
			name: "Invalid order",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				Limit:       100,
				Page:        1,
				Order:       "invalid",
			},
			expectError: true,
			errorMsg:    "invalid order: invalid (valid: asc, desc)",
		},
		{
			name: "Invalid start time",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				StartTime:   "yesterday",
				Limit:       100,
				Page:        1,
				Order:       "asc",
			},
			expectError: true,
			errorMsg:    "invalid start time",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tc.errorMsg != "" && !strings.Contains(err.Error(), tc.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tc.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestReadingQueryParams_TimeRangeValidation(t *testing.T) {
	now := time.Now().UTC()

	testCases := []struct {
		name        string
		params      ReadingQueryParams
		expectError bool
	}{
		{
			name: "Valid time range",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				StartTime:   now.Add(-1 * time.Hour).Format(time.RFC3339),
				EndTime:     now.Format(time.RFC3339),
				Limit:       100,
				Page:        1,
				Order:       "desc",
			},
			expectError: false,
		},
		{
			name: "Start time after end time",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				StartTime:   now.Format(time.RFC3339),
				EndTime:     now.Add(-1 * time.Hour).Format(time.RFC3339),
				Limit:       100,
				Page:        1,
				Order:       "desc",
			},
			expectError: true,
		},
		{
			name: "Only start time",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				StartTime:   now.Add(-1 * time.Hour).Format(time.RFC3339),
				Limit:       100,
				Page:        1,
				Order:       "desc",
			},
			expectError: false,
		},
		{
			name: "Only end time",
			params: ReadingQueryParams{
				CommunityID: "community-1",
				EndTime:     now.Format(time.RFC3339),
				Limit:       100,
				Page:        1,
				Order:       "desc",
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tc.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestMeasurements_SetAndValues(t *testing.T) {
	var m Measurements

	if err := m.Set(FieldTemp, 46); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set(FieldPH, 6.5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set("pressure", 1013); err == nil {
		t.Error("Expected error for unknown measurement")
	}

	values := m.Values()
	if len(values) != 2 {
		t.Fatalf("Expected 2 values, got %d", len(values))
	}
	if values[FieldTemp] != 46 {
		t.Errorf("Expected Temp=46, got %v", values[FieldTemp])
	}
	if m.Soil != nil {
		t.Error("Expected soil to stay absent")
	}
}

func TestSensorReading_JSONFieldNames(t *testing.T) {
	soil := 15.0
	reading := SensorReading{
		CommunityID:  "community-1",
		Sequence:     7,
		Measurements: Measurements{Soil: &soil},
	}

	data, err := json.Marshal(reading)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded["soil"] != 15.0 {
		t.Errorf("Expected flattened soil=15, got %v", decoded["soil"])
	}
	if _, ok := decoded["Temp"]; ok {
		t.Error("Expected absent Temp to be omitted")
	}
	if decoded["sequence"] != 7.0 {
		t.Errorf("Expected sequence=7, got %v", decoded["sequence"])
	}
}

func TestNewPagedResponse(t *testing.T) {
	resp := NewPagedResponse([]SensorReading{}, 25, 2, 10)

	if resp.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", resp.TotalPages)
	}
	if !resp.HasMore {
		t.Error("Expected HasMore on page 2 of 3")
	}

	last := NewPagedResponse(nil, 25, 3, 10)
	if last.HasMore {
		t.Error("Expected no more pages on the last page")
	}
}

func TestNewPagedResponse_Alerts(t *testing.T) {
	alerts := []Alert{{Title: "Low Soil Moisture", Type: AlertTypeIrrigation}}
	resp := NewPagedResponse(alerts, 1, 1, 50)

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if !strings.Contains(string(out), `"title":"Low Soil Moisture"`) || !strings.Contains(string(out), `"total_pages":1`) {
		t.Errorf("Unexpected page %s", out)
	}
	if resp.HasMore {
		t.Error("Expected a single page")
	}
}
