package rules

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// Mode controls what happens when a rule fires
type Mode string

const (
	// ModePersist stores the alert in the alerts table
	ModePersist Mode = "persist"
	// ModeAdvisory publishes the alert to live consumers without storing it
	ModeAdvisory Mode = "advisory"
	// ModeOff disables the rule
	ModeOff Mode = "off"
)

// ParseMode converts a configuration value into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePersist, ModeAdvisory, ModeOff:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid rule mode: %q (valid: persist, advisory, off)", s)
}

// Result holds everything a single evaluation produced
type Result struct {
	Alerts     []models.Alert
	Advisories []models.Alert
}

// RuleInfo describes a configured rule
type RuleInfo struct {
	Name      string           `json:"name" yaml:"name"`
	Type      models.AlertType `json:"type" yaml:"type"`
	Severity  models.Severity  `json:"severity" yaml:"severity"`
	Title     string           `json:"title" yaml:"title"`
	Condition string           `json:"condition" yaml:"condition"`
	Mode      Mode             `json:"mode" yaml:"mode"`
}

// Engine evaluates readings against the configured rule set
type Engine struct {
	rules []Rule
	modes map[string]Mode
}

// NewEngine creates an engine with the default rules. Overrides map rule names to modes.
func NewEngine(overrides map[string]Mode) (*Engine, error) {
	return newEngine(DefaultRules(), overrides)
}

func newEngine(rules []Rule, overrides map[string]Mode) (*Engine, error) {
	modes := make(map[string]Mode, len(rules))
	for _, rule := range rules {
		modes[rule.Name] = rule.DefaultMode
	}

	for name, mode := range overrides {
		if _, ok := modes[name]; !ok {
			return nil, fmt.Errorf("unknown rule: %s", name)
		}
		if _, err := ParseMode(string(mode)); err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
		modes[name] = mode
	}

	return &Engine{rules: rules, modes: modes}, nil
}

// Mode returns the effective mode of a rule
func (e *Engine) Mode(name string) Mode {
	return e.modes[name]
}

// NeedsHistory reports whether any enabled rule reads the previous reading
func (e *Engine) NeedsHistory() bool {
	for _, rule := range e.rules {
		if rule.NeedsHistory && e.modes[rule.Name] != ModeOff {
			return true
		}
	}
	return false
}

// Rules describes the effective rule set in evaluation order
func (e *Engine) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(e.rules))
	for _, rule := range e.rules {
		infos = append(infos, RuleInfo{
			Name:      rule.Name,
			Type:      rule.Type,
			Severity:  rule.Severity,
			Title:     rule.Title,
			Condition: rule.Condition,
			Mode:      e.modes[rule.Name],
		})
	}
	return infos
}

// Evaluate runs every enabled rule against the reading. previous may be nil.
// Each rule contributes at most one alert and output follows rule order.
func (e *Engine) Evaluate(reading, previous *models.SensorReading) Result {
	var result Result
	if reading == nil {
		return result
	}

	for _, rule := range e.rules {
		mode := e.modes[rule.Name]
		if mode == ModeOff {
			continue
		}

		message, fired := rule.check(reading, previous)
		if !fired {
			continue
		}

		alert := models.Alert{
			CommunityID: reading.CommunityID,
			Type:        rule.Type,
			Severity:    rule.Severity,
			Title:       rule.Title,
			Message:     message,
			IsActive:    true,
		}
		if reading.ID != uuid.Nil {
			id := reading.ID
			alert.SensorDataID = &id
		}

		if mode == ModeAdvisory {
			result.Advisories = append(result.Advisories, alert)
		} else {
			result.Alerts = append(result.Alerts, alert)
		}
	}

	return result
}
