// Package chassislog records timestamped chassis snapshots to
// rotating CSV files, the same shape as the teacher's ECU/GPS logger
// adapted to PM1's status fields.
package chassislog

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/autolaborcenter/pm1-driver/internal/chassis"
)

const maxRowsPerFile = 100_000

var csvHeader = []string{
	"timestamp", "battery_percent", "power_switch",
	"speed_mps", "rudder_rad", "x", "y", "theta", "arc_length", "rotation",
}

// Logger records chassis.Snapshot values to CSV, rotating files once
// maxRowsPerFile is reached.
type Logger struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	enabled  bool

	file   *os.File
	writer *csv.Writer
	lastTs time.Time
	rows   int
}

// New constructs a Logger. An interval below 50ms is rounded up to the
// default 100ms (10 Hz), matching the teacher's floor.
func New(dir string, intervalMs int, enabled bool) *Logger {
	interval := time.Duration(intervalMs) * time.Millisecond
	if interval < 50*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return &Logger{dir: dir, interval: interval, enabled: enabled}
}

// Record writes one row if logging is enabled and the minimum interval
// has elapsed since the last row.
func (l *Logger) Record(s chassis.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	now := time.Now()
	if now.Sub(l.lastTs) < l.interval {
		return
	}
	l.lastTs = now

	if l.writer == nil || l.rows >= maxRowsPerFile {
		if err := l.rotateFile(now); err != nil {
			log.Printf("[chassislog] rotate failed: %v", err)
			return
		}
	}

	row := buildRow(now, s)
	if err := l.writer.Write(row); err != nil {
		log.Printf("[chassislog] write failed: %v", err)
		return
	}
	l.writer.Flush()
	l.rows++
}

// Close flushes and closes the current log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeFile()
}

func (l *Logger) rotateFile(now time.Time) error {
	l.closeFile()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", l.dir, err)
	}

	path := filepath.Join(l.dir, fmt.Sprintf("pm1_%s.csv", now.Format("2006-01-02_150405")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	l.file = f
	l.writer = csv.NewWriter(f)
	l.rows = 0

	if err := l.writer.Write(csvHeader); err != nil {
		return err
	}
	l.writer.Flush()
	log.Printf("[chassislog] opened %s", path)
	return nil
}

func (l *Logger) closeFile() {
	if l.writer != nil {
		l.writer.Flush()
		l.writer = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func buildRow(ts time.Time, s chassis.Snapshot) []string {
	return []string{
		ts.Format(time.RFC3339Nano),
		fmt.Sprintf("%d", s.BatteryPercent),
		boolStr(s.PowerSwitch),
		fmt.Sprintf("%.4f", s.Physical.Speed),
		fmt.Sprintf("%.4f", s.Physical.Rudder),
		fmt.Sprintf("%.4f", s.Pose.X),
		fmt.Sprintf("%.4f", s.Pose.Y),
		fmt.Sprintf("%.4f", s.Pose.Theta),
		fmt.Sprintf("%.4f", s.Pose.S),
		fmt.Sprintf("%.4f", s.Pose.A),
	}
}

func boolStr(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
