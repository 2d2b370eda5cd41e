package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sguter90/agrimaestro/pkg/rules"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Live      LiveConfig      `mapstructure:"live"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	User                string        `mapstructure:"user"`
	Password            string        `mapstructure:"password"`
	Name                string        `mapstructure:"name"`
	SSLMode             string        `mapstructure:"sslmode"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig holds dashboard session configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MQTTConfig holds MQTT publisher configuration. An empty broker disables publishing.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	Port        int    `mapstructure:"port"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

// AssistantConfig holds chat assistant configuration
type AssistantConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// RulesConfig holds per-rule modes keyed by rule name
type RulesConfig struct {
	Modes map[string]string `mapstructure:"modes"`
}

// LiveConfig holds dashboard live feed configuration
type LiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

const placeholderSecret = "change_me_in_production"

// Load reads configuration from defaults, an optional config.yaml in path,
// a .env file and the environment, in increasing precedence
func Load(path string) (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "agri_user")
	v.SetDefault("database.password", "agri_pass")
	v.SetDefault("database.name", "agri_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.health_check_interval", 30*time.Second)

	v.SetDefault("server.port", "8059")
	v.SetDefault("server.allowed_origins", "*")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "agrimaestro")
	v.SetDefault("mqtt.topic_prefix", "agrimaestro")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.base_url", "")
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.max_tokens", 1000)
	v.SetDefault("assistant.temperature", 0.7)

	v.SetDefault("live.enabled", true)
}

// bindEnv maps configuration keys to the environment variable names used in deployments
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.host":                  "DB_HOST",
		"database.port":                  "DB_PORT",
		"database.user":                  "DB_USER",
		"database.password":              "DB_PASSWORD",
		"database.name":                  "DB_NAME",
		"database.sslmode":               "DB_SSLMODE",
		"database.health_check_interval": "DB_HEALTH_CHECK_INTERVAL",

		"server.port":            "SERVER_PORT",
		"server.allowed_origins": "SERVER_ALLOWED_ORIGINS",

		"auth.jwt_secret": "JWT_SECRET",
		"auth.token_ttl":  "JWT_TTL",

		"log.level":  "LOG_LEVEL",
		"log.format": "LOG_FORMAT",

		"mqtt.broker":       "MQTT_BROKER",
		"mqtt.port":         "MQTT_PORT",
		"mqtt.client_id":    "MQTT_CLIENT_ID",
		"mqtt.topic_prefix": "MQTT_TOPIC_PREFIX",
		"mqtt.username":     "MQTT_USERNAME",
		"mqtt.password":     "MQTT_PASSWORD",

		"assistant.api_key":  "OPENAI_API_KEY",
		"assistant.base_url": "OPENAI_BASE_URL",
		"assistant.model":    "OPENAI_MODEL",

		"rules.modes.soil_erosion": "RULES_EROSION_MODE",
		"rules.modes.tilt_change":  "RULES_TILT_MODE",

		"live.enabled": "LIVE_ENABLED",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate checks settings every command depends on
func (c *Config) Validate() error {
	if _, err := c.RuleModes(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q (valid: console, json)", c.Log.Format)
	}
	return nil
}

// ValidateServer checks settings only the HTTP server needs
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == placeholderSecret {
		return errors.New("JWT_SECRET environment variable is not set or has an invalid value")
	}
	return nil
}

// RuleModes converts the configured rule modes
func (c *Config) RuleModes() (map[string]rules.Mode, error) {
	modes := make(map[string]rules.Mode, len(c.Rules.Modes))
	for name, value := range c.Rules.Modes {
		if value == "" {
			continue
		}
		mode, err := rules.ParseMode(strings.ToLower(value))
		if err != nil {
			return nil, fmt.Errorf("rules.modes.%s: %w", name, err)
		}
		modes[name] = mode
	}
	return modes, nil
}

// DSN returns the lib/pq connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MQTTBrokerURL returns the broker URL in the form the MQTT client expects
func (c *Config) MQTTBrokerURL() string {
	brokerURL := c.MQTT.Broker
	if brokerURL == "" {
		return ""
	}

	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://"} {
		if strings.HasPrefix(brokerURL, scheme) {
			if !strings.Contains(strings.TrimPrefix(brokerURL, scheme), ":") {
				brokerURL = fmt.Sprintf("%s:%d", brokerURL, c.MQTT.Port)
			}
			return brokerURL
		}
	}

	// Handle http:// and https:// by converting to mqtt protocols
	if host, ok := strings.CutPrefix(brokerURL, "http://"); ok {
		return "tcp://" + withPort(host, c.MQTT.Port)
	}
	if host, ok := strings.CutPrefix(brokerURL, "https://"); ok {
		return "ssl://" + withPort(host, c.MQTT.Port)
	}

	return "tcp://" + withPort(brokerURL, c.MQTT.Port)
}

func withPort(host string, port int) string {
	if strings.Contains(host, ":") {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}
