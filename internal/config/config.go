package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the hub configuration.
type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	// Devices are the speaker hosts the hub watches, as host or host:port.
	Devices          []string `yaml:"devices"`
	RequestTimeoutMs int      `yaml:"request_timeout_ms"`
	NotifyReconnect  bool     `yaml:"notify_reconnect"`
	// ResyncSchedule is a cron spec for a full HTTP refresh of every device.
	// Empty disables the periodic resync.
	ResyncSchedule string `yaml:"resync_schedule"`

	MQTTBroker      string `yaml:"mqtt_broker"`
	MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
	MQTTClientID    string `yaml:"mqtt_client_id"`

	// JWTSecret enables bearer auth on the API when set.
	JWTSecret string `yaml:"jwt_secret"`

	DiscoveryEnabled   bool   `yaml:"discovery_enabled"`
	DiscoveryTimeoutMs int    `yaml:"discovery_timeout_ms"`
	DiscoveryInterface string `yaml:"discovery_interface"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               "9000",
		Devices:            []string{},
		RequestTimeoutMs:   10000,
		NotifyReconnect:    true,
		ResyncSchedule:     "@every 5m",
		MQTTTopicPrefix:    "soundtouch",
		MQTTClientID:       "soundtouch-hub",
		DiscoveryTimeoutMs: 3000,
	}
}

// Load reads the YAML file named by SOUNDTOUCH_HUB_CONFIG, if any, then
// applies environment overrides.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("SOUNDTOUCH_HUB_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Host = envString("HOST", cfg.Host)
	cfg.Port = envString("PORT", cfg.Port)
	if devices := envCSV("SOUNDTOUCH_DEVICES"); len(devices) > 0 {
		cfg.Devices = devices
	}
	cfg.RequestTimeoutMs = envInt("REQUEST_TIMEOUT_MS", cfg.RequestTimeoutMs)
	cfg.NotifyReconnect = envBool("NOTIFY_RECONNECT", cfg.NotifyReconnect)
	cfg.ResyncSchedule = envString("RESYNC_SCHEDULE", cfg.ResyncSchedule)
	cfg.MQTTBroker = envString("MQTT_BROKER", cfg.MQTTBroker)
	cfg.MQTTTopicPrefix = envString("MQTT_TOPIC_PREFIX", cfg.MQTTTopicPrefix)
	cfg.MQTTClientID = envString("MQTT_CLIENT_ID", cfg.MQTTClientID)
	cfg.JWTSecret = envString("JWT_SECRET", cfg.JWTSecret)
	cfg.DiscoveryEnabled = envBool("DISCOVERY_ENABLED", cfg.DiscoveryEnabled)
	cfg.DiscoveryTimeoutMs = envInt("DISCOVERY_TIMEOUT_MS", cfg.DiscoveryTimeoutMs)
	cfg.DiscoveryInterface = envString("DISCOVERY_INTERFACE", cfg.DiscoveryInterface)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	if secret := strings.TrimSpace(c.JWTSecret); secret != "" && len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.RequestTimeoutMs <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be positive")
	}
	if len(c.Devices) == 0 && !c.DiscoveryEnabled {
		return fmt.Errorf("no devices configured: set SOUNDTOUCH_DEVICES or DISCOVERY_ENABLED")
	}
	return nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}

func envCSV(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
