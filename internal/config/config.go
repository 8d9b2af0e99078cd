// Package config loads the driver's YAML configuration, with .env and
// environment-variable overrides layered on top, mirroring the
// teacher's load-then-override config pipeline.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SerialConfig names the candidate serial ports to race during port
// enumeration, plus a baud rate. BaudRate is loaded but not read by the
// port scanner, which always opens at portscan.BaudRate.
type SerialConfig struct {
	Ports    []string `yaml:"ports" json:"ports"`
	BaudRate int      `yaml:"baud_rate" json:"baudRate"`
}

// PacemakerConfig holds a control period in milliseconds (default 40).
// It is loaded but not read by the pacemaker, which always ticks at
// pacemaker.Period.
type PacemakerConfig struct {
	PeriodMs int `yaml:"period_ms" json:"periodMs"`
}

// SupervisorConfig holds a maximum open-retry backoff delay (default
// 60s). It is loaded but not read by portscan, whose backoff cap is a
// fixed 60s.
type SupervisorConfig struct {
	MaxRetryDelaySeconds int `yaml:"max_retry_delay_seconds" json:"maxRetryDelaySeconds"`
}

// TelemetryConfig configures the supplementary WebSocket status bridge.
type TelemetryConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listenAddr"`
}

// LoggingConfig configures CSV telemetry recording.
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Path       string `yaml:"path" json:"path"`
	IntervalMs int    `yaml:"interval_ms" json:"intervalMs"`
}

// Config is the driver's top-level configuration.
type Config struct {
	Serial     SerialConfig     `yaml:"serial" json:"serial"`
	Pacemaker  PacemakerConfig  `yaml:"pacemaker" json:"pacemaker"`
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`

	path string
}

// Default returns a Config with sensible defaults: empty port list (OS
// enumeration picks candidates), standard 40ms pacemaker period, and
// telemetry disabled.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Ports:    nil,
			BaudRate: 115200,
		},
		Pacemaker: PacemakerConfig{PeriodMs: 40},
		Supervisor: SupervisorConfig{
			MaxRetryDelaySeconds: 60,
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			ListenAddr: ":8088",
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Path:       "/var/log/pm1-driver",
			IntervalMs: 100,
		},
	}
}

// Load reads YAML config from path, then applies a .env file (from the
// config's directory, then CWD) and environment variable overrides.
// Falls back to defaults if the file doesn't exist or fails to parse.
func Load(path string) *Config {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err != nil:
		log.Printf("[config] no config at %s, using defaults", path)
	case yaml.Unmarshal(data, cfg) != nil:
		log.Printf("[config] error parsing %s, using defaults", path)
		cfg = Default()
		cfg.path = path
	default:
		log.Printf("[config] loaded from %s", path)
	}

	for _, p := range []string{filepath.Join(filepath.Dir(path), ".env"), ".env"} {
		loadEnvFile(p)
	}
	cfg.applyEnvOverrides()
	return cfg
}

func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// applyEnvOverrides reads PM1_PORTS (comma-separated), PM1_BAUD,
// PM1_PACEMAKER_PERIOD_MS, PM1_TELEMETRY_ADDR, PM1_LOG_PATH.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PM1_PORTS"); v != "" {
		var ports []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ports = append(ports, p)
			}
		}
		c.Serial.Ports = ports
	}
	if v := os.Getenv("PM1_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Serial.BaudRate = n
		}
	}
	if v := os.Getenv("PM1_PACEMAKER_PERIOD_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pacemaker.PeriodMs = n
		}
	}
	if v := os.Getenv("PM1_TELEMETRY_ADDR"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.ListenAddr = v
	}
	if v := os.Getenv("PM1_LOG_PATH"); v != "" {
		c.Logging.Enabled = true
		c.Logging.Path = v
	}
}
