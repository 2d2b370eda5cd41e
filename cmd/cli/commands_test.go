package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
	"github.com/sguter90/agrimaestro/pkg/rules"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func newSendFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
	for _, info := range models.MeasurementCatalog {
		flags.Float64(info.Field, 0, info.Label)
	}
	return flags
}

func TestPayloadFromFlags(t *testing.T) {
	flags := newSendFlags()
	if err := flags.Parse([]string{"--Temp=41.5", "--soil=0", "--TiltX=-3"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	payload, err := payloadFromFlags(flags, 7)
	if err != nil {
		t.Fatalf("payloadFromFlags() error = %v", err)
	}

	if payload.Sequence != 7 {
		t.Errorf("Expected sequence 7, got %d", payload.Sequence)
	}
	if payload.Temp == nil || *payload.Temp != 41.5 {
		t.Errorf("Expected Temp 41.5, got %v", payload.Temp)
	}
	// An explicit zero is a reported value
	if payload.Soil == nil || *payload.Soil != 0 {
		t.Errorf("Expected soil 0, got %v", payload.Soil)
	}
	if payload.TiltX == nil || *payload.TiltX != -3 {
		t.Errorf("Expected TiltX -3, got %v", payload.TiltX)
	}
	if payload.Humidity != nil || payload.Rain != nil || payload.CO2 != nil {
		t.Error("Expected unset flags to stay absent")
	}
}

func TestRenderRules(t *testing.T) {
	engine, err := rules.NewEngine(map[string]rules.Mode{rules.RuleTiltChange: rules.ModePersist})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	out, err := renderRules(engine.Rules())
	if err != nil {
		t.Fatalf("renderRules() error = %v", err)
	}

	var decoded struct {
		Rules []rules.RuleInfo `yaml:"rules"`
	}
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v\n%s", err, out)
	}
	if len(decoded.Rules) != len(engine.Rules()) {
		t.Fatalf("Expected %d rules, got %d", len(engine.Rules()), len(decoded.Rules))
	}

	for _, info := range decoded.Rules {
		if info.Name == rules.RuleTiltChange && info.Mode != rules.ModePersist {
			t.Errorf("Expected override to be rendered, got %s", info.Mode)
		}
	}
	if !strings.Contains(out, rules.RuleHighTemperature) {
		t.Errorf("Expected %s in output", rules.RuleHighTemperature)
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{value: "", want: nil},
		{value: "*", want: []string{"*"}},
		{value: "https://a.example, https://b.example,,", want: []string{"https://a.example", "https://b.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := splitOrigins(tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitOrigins(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	if tm.ttl != 24*time.Hour {
		t.Errorf("Expected default ttl of 24h, got %s", tm.ttl)
	}

	user := &models.User{ID: uuid.New(), Username: "farmer", CommunityID: "community-a"}
	token, expiresAt, err := tm.Generate(user)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if time.Until(expiresAt) < 23*time.Hour {
		t.Errorf("Unexpected expiry %s", expiresAt)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.ID != user.ID || parsed.Username != user.Username || parsed.CommunityID != user.CommunityID {
		t.Errorf("Unexpected user %+v", parsed)
	}

	tm.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := tm.Parse(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{value: "english", want: "english"},
		{value: " Hindi ", want: "hindi"},
		{value: "marathi", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseLanguage(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLanguage(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLanguage(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestPrintUsers(t *testing.T) {
	var out strings.Builder
	users := []models.User{
		{ID: uuid.New(), Username: "anita", Language: "hindi", CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
	}

	if err := printUsers(&out, users); err != nil {
		t.Fatalf("printUsers() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %q", out.String())
	}
	for _, want := range []string{"anita", "hindi", "2026-03-01 09:30"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("Expected %q in row %q", want, lines[1])
		}
	}
}
