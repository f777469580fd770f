// Package config loads the daemon's settings from an optional YAML file,
// then applies the environment overrides the original deployment scripts
// rely on (ADSB_HOST, ADSB_PORT, ATAK_HOST, ATAK_PORT).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Adsb     AdsbConfig     `yaml:"adsb"`
	Cot      CotConfig      `yaml:"cot"`
	Pubsub   PubsubConfig   `yaml:"pubsub"`
	Registry RegistryConfig `yaml:"registry"`
}

// AdsbConfig locates the SBS BaseStation feed, normally dump1090's
// port-30003 socket.
type AdsbConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CotConfig describes the CoT output channel and event schema constants.
type CotConfig struct {
	Host string `yaml:"host"` // TAK multicast group by default
	Port int    `yaml:"port"`

	// TTLSeconds sets the validity window stamped into each event's
	// "stale" attribute.
	TTLSeconds int `yaml:"ttl_seconds"`

	// MaxEventsPerSecond caps the UDP fan-out; 0 disables the limiter.
	MaxEventsPerSecond int `yaml:"max_events_per_second"`
}

// PubsubConfig enables the optional Cloud Pub/Sub mirror. Empty topic means
// disabled.
type PubsubConfig struct {
	Project string `yaml:"project"`
	Topic   string `yaml:"topic"`
}

// RegistryConfig tunes record eviction. Zero SweepAfterSeconds keeps
// records for the life of the process, matching the historical behavior.
type RegistryConfig struct {
	SweepAfterSeconds int `yaml:"sweep_after_seconds"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.setDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	c.Adsb.Host = "127.0.0.1"
	c.Adsb.Port = 30003

	c.Cot.Host = "239.2.3.1"
	c.Cot.Port = 6969
	c.Cot.TTLSeconds = 120
	c.Cot.MaxEventsPerSecond = 0

	c.Registry.SweepAfterSeconds = 0
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("ADSB_HOST"); host != "" {
		c.Adsb.Host = host
	}
	if port := os.Getenv("ADSB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Adsb.Port = p
		}
	}
	if host := os.Getenv("ATAK_HOST"); host != "" {
		c.Cot.Host = host
	}
	if port := os.Getenv("ATAK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Cot.Port = p
		}
	}
	if project := os.Getenv("PUBSUB_PROJECT"); project != "" {
		c.Pubsub.Project = project
	}
	if topic := os.Getenv("PUBSUB_TOPIC"); topic != "" {
		c.Pubsub.Topic = topic
	}
}

func (c *Config) validate() error {
	if c.Adsb.Host == "" {
		return fmt.Errorf("adsb host cannot be empty")
	}
	if c.Adsb.Port < 1 || c.Adsb.Port > 65535 {
		return fmt.Errorf("adsb port must be between 1 and 65535")
	}
	if c.Cot.Host == "" {
		return fmt.Errorf("cot host cannot be empty")
	}
	if c.Cot.Port < 1 || c.Cot.Port > 65535 {
		return fmt.Errorf("cot port must be between 1 and 65535")
	}
	if c.Cot.TTLSeconds <= 0 {
		return fmt.Errorf("cot ttl must be positive")
	}
	if c.Cot.MaxEventsPerSecond < 0 {
		return fmt.Errorf("max events per second cannot be negative")
	}
	if c.Pubsub.Topic != "" && c.Pubsub.Project == "" {
		return fmt.Errorf("pubsub topic set but no project given")
	}
	if c.Registry.SweepAfterSeconds < 0 {
		return fmt.Errorf("registry sweep age cannot be negative")
	}
	return nil
}

// TTL is the configured event validity window.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cot.TTLSeconds) * time.Second
}

// SweepAfter is the record eviction age; zero means never evict.
func (c *Config) SweepAfter() time.Duration {
	return time.Duration(c.Registry.SweepAfterSeconds) * time.Second
}

// AdsbAddr is the host:port to dial for the input feed.
func (c *Config) AdsbAddr() string {
	return net.JoinHostPort(c.Adsb.Host, strconv.Itoa(c.Adsb.Port))
}

// CotAddr is the host:port UDP destination for encoded events.
func (c *Config) CotAddr() string {
	return net.JoinHostPort(c.Cot.Host, strconv.Itoa(c.Cot.Port))
}
