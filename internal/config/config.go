package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the runtime knobs for the data layer. Resolution order:
// defaults, then the optional YAML file, then environment variables.
type Config struct {
	DBPath       string        `yaml:"db_path"`
	SaveDelay    time.Duration `yaml:"save_delay"`
	SyncDelay    time.Duration `yaml:"sync_delay"`
	TickInterval time.Duration `yaml:"tick_interval"`
	UndoCapacity int           `yaml:"undo_capacity"`
	UndoTTL      time.Duration `yaml:"undo_ttl"`
}

func Default() Config {
	return Config{
		DBPath:       defaultDBPath(),
		SaveDelay:    500 * time.Millisecond,
		SyncDelay:    2 * time.Second,
		TickInterval: time.Second,
		UndoCapacity: 20,
		UndoTTL:      10 * time.Minute,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasklite.db"
	}
	return filepath.Join(home, ".tasklite", "tasklite.db")
}

// LoadFile overlays the YAML file at path onto base. A missing file is not
// an error; a malformed one is.
func LoadFile(base Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := base
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if file.SaveDelay > 0 {
		cfg.SaveDelay = file.SaveDelay
	}
	if file.SyncDelay > 0 {
		cfg.SyncDelay = file.SyncDelay
	}
	if file.TickInterval > 0 {
		cfg.TickInterval = file.TickInterval
	}
	if file.UndoCapacity > 0 {
		cfg.UndoCapacity = file.UndoCapacity
	}
	if file.UndoTTL > 0 {
		cfg.UndoTTL = file.UndoTTL
	}
	return cfg, nil
}

// FromEnv overlays TASKLITE_* environment variables onto base. Malformed
// values are ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("TASKLITE_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v, ok := getEnvDuration("TASKLITE_SAVE_DELAY"); ok && v > 0 {
		cfg.SaveDelay = v
	}
	if v, ok := getEnvDuration("TASKLITE_SYNC_DELAY"); ok && v > 0 {
		cfg.SyncDelay = v
	}
	if v, ok := getEnvDuration("TASKLITE_TICK_INTERVAL"); ok && v > 0 {
		cfg.TickInterval = v
	}
	if v, ok := getEnvInt("TASKLITE_UNDO_CAPACITY"); ok && v > 0 {
		cfg.UndoCapacity = v
	}
	if v, ok := getEnvDuration("TASKLITE_UNDO_TTL"); ok && v > 0 {
		cfg.UndoTTL = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
