package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Sol Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Registry RegistryConfig `yaml:"registry"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// GeminiConfig contains settings for the Gemini language-model backend.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// BaseURL overrides the Gemini API endpoint. Leave empty for the
	// production endpoint; tests point it at an httptest server.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds a single generateContent call, in seconds.
	Timeout int `yaml:"timeout"`
}

// RegistryConfig contains the static client/device provisioning data
// and registry behaviour settings.
type RegistryConfig struct {
	// OfflineAfter marks clients offline when no heartbeat has been seen
	// for this duration. Zero disables the sweep entirely.
	OfflineAfter time.Duration  `yaml:"offline_after"`
	Clients      []ClientConfig `yaml:"clients"`
}

// ClientConfig describes one registered physical controller.
type ClientConfig struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Location string         `yaml:"location"`
	AuthKey  string         `yaml:"auth_key"`
	Firmware string         `yaml:"firmware"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one controllable device owned by a client.
type DeviceConfig struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Value    *int           `yaml:"value,omitempty"`
	Features FeaturesConfig `yaml:"features"`
}

// FeaturesConfig lists the capability flags a device declares.
type FeaturesConfig struct {
	Dimmable     bool `yaml:"dimmable"`
	SpeedControl bool `yaml:"speed_control"`
	HasTimer     bool `yaml:"has_timer"`
	HasSchedule  bool `yaml:"has_schedule"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOLCORE_SECTION_KEY
// For example: SOLCORE_MQTT_HOST, SOLCORE_GEMINI_API_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Sol",
			Timezone: "UTC",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "solcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SOLCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("SOLCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SOLCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SOLCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("SOLCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Gemini - API key (IMPORTANT: prefer the environment in production)
	if v := os.Getenv("SOLCORE_GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Gemini.APIKey == "" {
		errs = append(errs, "gemini.api_key is required (set SOLCORE_GEMINI_API_KEY environment variable)")
	}
	if c.Gemini.Timeout < 1 {
		errs = append(errs, "gemini.timeout must be at least 1 second")
	}

	// Registry validation: client ids unique, auth keys present,
	// device ids unique within their client, values in range.
	seenClients := make(map[string]bool, len(c.Registry.Clients))
	for _, client := range c.Registry.Clients {
		if client.ID == "" {
			errs = append(errs, "registry client id is required")
			continue
		}
		if seenClients[client.ID] {
			errs = append(errs, fmt.Sprintf("registry client %q declared twice", client.ID))
		}
		seenClients[client.ID] = true

		if client.AuthKey == "" {
			errs = append(errs, fmt.Sprintf("registry client %q has no auth_key", client.ID))
		}

		seenDevices := make(map[string]bool, len(client.Devices))
		for _, dev := range client.Devices {
			if dev.ID == "" {
				errs = append(errs, fmt.Sprintf("registry client %q has a device with no id", client.ID))
				continue
			}
			if seenDevices[dev.ID] {
				errs = append(errs, fmt.Sprintf("registry client %q device %q declared twice", client.ID, dev.ID))
			}
			seenDevices[dev.ID] = true

			if dev.Value != nil && (*dev.Value < 0 || *dev.Value > 255) {
				errs = append(errs, fmt.Sprintf("registry device %q value must be between 0 and 255", dev.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetGeminiTimeout returns the Gemini call timeout as a Duration.
func (c *Config) GetGeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.Timeout) * time.Second
}
