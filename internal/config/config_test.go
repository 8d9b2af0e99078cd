package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if cfg.Serial.BaudRate != 115200 {
		t.Fatalf("BaudRate = %d, want 115200", cfg.Serial.BaudRate)
	}
	if cfg.Pacemaker.PeriodMs != 40 {
		t.Fatalf("PeriodMs = %d, want 40", cfg.Pacemaker.PeriodMs)
	}
	if cfg.Telemetry.Enabled {
		t.Fatal("telemetry should default to disabled")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
serial:
  ports: ["/dev/ttyUSB0", "/dev/ttyUSB1"]
  baud_rate: 57600
pacemaker:
  period_ms: 20
telemetry:
  enabled: true
  listen_addr: ":9000"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path)
	if len(cfg.Serial.Ports) != 2 || cfg.Serial.Ports[0] != "/dev/ttyUSB0" {
		t.Fatalf("Ports = %v", cfg.Serial.Ports)
	}
	if cfg.Serial.BaudRate != 57600 {
		t.Fatalf("BaudRate = %d, want 57600", cfg.Serial.BaudRate)
	}
	if cfg.Pacemaker.PeriodMs != 20 {
		t.Fatalf("PeriodMs = %d, want 20", cfg.Pacemaker.PeriodMs)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.ListenAddr != ":9000" {
		t.Fatalf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestEnvOverridesTakePrecedenceOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("serial:\n  baud_rate: 9600\n"), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("PM1_BAUD", "115200")
	os.Setenv("PM1_PORTS", "/dev/ttyACM0, /dev/ttyACM1")
	defer os.Unsetenv("PM1_BAUD")
	defer os.Unsetenv("PM1_PORTS")

	cfg := Load(path)
	if cfg.Serial.BaudRate != 115200 {
		t.Fatalf("BaudRate = %d, want env override 115200", cfg.Serial.BaudRate)
	}
	if len(cfg.Serial.Ports) != 2 || cfg.Serial.Ports[1] != "/dev/ttyACM1" {
		t.Fatalf("Ports = %v", cfg.Serial.Ports)
	}
}

func TestEnvFileIsLoadedWhenPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PM1_LOG_PATH=/tmp/pm1-logs\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv("PM1_LOG_PATH")

	cfg := Load(path)
	if !cfg.Logging.Enabled || cfg.Logging.Path != "/tmp/pm1-logs" {
		t.Fatalf("Logging = %+v", cfg.Logging)
	}
}
