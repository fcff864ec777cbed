package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

type HTTPConfig struct {
	OrderPort    int `yaml:"order_port"`
	TrackingPort int `yaml:"tracking_port"`
}

// Config holds every parameter of the application. Services receive the
// sections they need through their constructors; nothing reads ambient
// global state.
type Config struct {
	// Broker selects the broadcast transport: "rabbitmq" (default) or "kafka".
	Broker   string         `yaml:"broker"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	HTTP     HTTPConfig     `yaml:"http"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Broker == "" {
		cfg.Broker = "rabbitmq"
	}
	if cfg.HTTP.OrderPort == 0 {
		cfg.HTTP.OrderPort = 3000
	}
	if cfg.HTTP.TrackingPort == 0 {
		cfg.HTTP.TrackingPort = 3002
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return errors.New("invalid config: missing database host")
	}
	switch c.Broker {
	case "rabbitmq":
		if c.RabbitMQ.Host == "" {
			return errors.New("invalid config: missing rabbitmq host")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("invalid config: missing kafka brokers")
		}
	default:
		return fmt.Errorf("invalid config: unknown broker %q", c.Broker)
	}
	return nil
}

// FindConfig returns the first config file present among the usual
// candidates.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
