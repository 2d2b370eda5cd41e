package rules

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sguter90/agrimaestro/pkg/models"
)

// Rule names as used in configuration
const (
	RuleHighTemperature = "high_temperature"
	RuleLowTemperature  = "low_temperature"
	RuleLowSoilMoisture = "low_soil_moisture"
	RuleSoilPH          = "soil_ph"
	RuleSoilErosion     = "soil_erosion"
	RuleTiltChange      = "tilt_change"
)

// Thresholds
const (
	HighTemperatureC   = 45.0
	LowTemperatureC    = 5.0
	LowSoilMoisturePct = 20.0
	MinSoilPH          = 5.5
	MaxSoilPH          = 8.5
	ErosionSoilPct     = 70.0
	ErosionRainMM      = 50.0
	TiltDeltaDeg       = 5.0
)

// Rule is one threshold check over a reading
type Rule struct {
	Name         string
	Type         models.AlertType
	Severity     models.Severity
	Title        string
	Condition    string
	DefaultMode  Mode
	NeedsHistory bool

	// check returns the alert message when the rule fires
	check func(reading, previous *models.SensorReading) (string, bool)
}

// formatValue prints the shortest decimal form of v, so 46 stays "46" and 45.5 stays "45.5"
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultRules returns the built-in rule set in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        RuleHighTemperature,
			Type:        models.AlertTypeWeather,
			Severity:    models.SeverityHigh,
			Title:       "High Temperature Alert",
			Condition:   "Temp > 45",
			DefaultMode: ModePersist,
			check: func(r, _ *models.SensorReading) (string, bool) {
				if r.Temp == nil || *r.Temp <= HighTemperatureC {
					return "", false
				}
				return fmt.Sprintf("Extreme temperature detected: %s°C. Take immediate action to protect crops.", formatValue(*r.Temp)), true
			},
		},
		{
			Name:        RuleLowTemperature,
			Type:        models.AlertTypeWeather,
			Severity:    models.SeverityHigh,
			Title:       "Low Temperature Alert",
			Condition:   "Temp < 5",
			DefaultMode: ModePersist,
			check: func(r, _ *models.SensorReading) (string, bool) {
				if r.Temp == nil || *r.Temp >= LowTemperatureC {
					return "", false
				}
				return fmt.Sprintf("Freezing temperature detected: %s°C. Protect sensitive crops from frost damage.", formatValue(*r.Temp)), true
			},
		},
		{
			Name:        RuleLowSoilMoisture,
			Type:        models.AlertTypeIrrigation,
			Severity:    models.SeverityMedium,
			Title:       "Low Soil Moisture",
			Condition:   "soil < 20",
			DefaultMode: ModePersist,
			check: func(r, _ *models.SensorReading) (string, bool) {
				if r.Soil == nil || *r.Soil >= LowSoilMoisturePct {
					return "", false
				}
				return fmt.Sprintf("Soil moisture is critically low: %s%%. Consider irrigation.", formatValue(*r.Soil)), true
			},
		},
		{
			Name:        RuleSoilPH,
			Type:        models.AlertTypeSoil,
			Severity:    models.SeverityMedium,
			Title:       "Soil pH Alert",
			Condition:   "pH < 5.5 or pH > 8.5",
			DefaultMode: ModePersist,
			check: func(r, _ *models.SensorReading) (string, bool) {
				if r.PH == nil || (*r.PH >= MinSoilPH && *r.PH <= MaxSoilPH) {
					return "", false
				}
				return fmt.Sprintf("Soil pH is outside optimal range: %s. Consider soil treatment.", formatValue(*r.PH)), true
			},
		},
		{
			Name:        RuleSoilErosion,
			Type:        models.AlertTypeSoil,
			Severity:    models.SeverityHigh,
			Title:       "Soil Erosion Risk",
			Condition:   "soil > 70 and rain > 50",
			DefaultMode: ModeAdvisory,
			check: func(r, _ *models.SensorReading) (string, bool) {
				if r.Soil == nil || r.Rain == nil {
					return "", false
				}
				if *r.Soil <= ErosionSoilPct || *r.Rain <= ErosionRainMM {
					return "", false
				}
				return fmt.Sprintf("High soil moisture (%s%%) and rainfall (%smm) detected. Possible soil erosion risk.",
					formatValue(*r.Soil), formatValue(*r.Rain)), true
			},
		},
		{
			Name:         RuleTiltChange,
			Type:         models.AlertTypeOther,
			Severity:     models.SeverityHigh,
			Title:        "Landslide Risk",
			Condition:    "abs(TiltX - previous TiltX) > 5 or abs(TiltY - previous TiltY) > 5",
			DefaultMode:  ModeAdvisory,
			NeedsHistory: true,
			check:        checkTilt,
		},
	}
}

func checkTilt(r, prev *models.SensorReading) (string, bool) {
	if prev == nil {
		return "", false
	}

	delta := 0.0
	if r.TiltX != nil && prev.TiltX != nil {
		delta = math.Abs(*r.TiltX - *prev.TiltX)
	}
	if r.TiltY != nil && prev.TiltY != nil {
		delta = math.Max(delta, math.Abs(*r.TiltY-*prev.TiltY))
	}

	if delta <= TiltDeltaDeg {
		return "", false
	}
	return fmt.Sprintf("Tilt sensor value changed by %s°. Possible landslide risk detected.", formatValue(delta)), true
}
