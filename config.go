package commbus

import (
	"os"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables for the executors, reorder buffer, and
// subscriber queues. Every field carries a yaml tag for file-based config
// and an env tag for operator overrides.
type Config struct {
	DefaultQueueCapacity  int    `json:"defaultQueueCapacity" yaml:"defaultQueueCapacity" env:"COMMBUS_DEFAULT_QUEUE_CAPACITY"`
	ReorderRingCapacity   uint64 `json:"reorderRingCapacity" yaml:"reorderRingCapacity" env:"COMMBUS_REORDER_RING_CAPACITY"`
	MaxDrainPerSubscriber int    `json:"maxDrainPerSubscriber" yaml:"maxDrainPerSubscriber" env:"COMMBUS_MAX_DRAIN_PER_SUBSCRIBER"`
	TimeOffsetNS          int64  `json:"timeOffsetNS" yaml:"timeOffsetNS" env:"COMMBUS_TIME_OFFSET_NS"`
	MultiThreadedWorkers  int    `json:"multiThreadedWorkers" yaml:"multiThreadedWorkers" env:"COMMBUS_WORKERS"`
}

// DefaultConfig returns the built-in tunables, matching the defaults named
// in the reorder buffer and sequence-ordered executor design.
func DefaultConfig() Config {
	return Config{
		DefaultQueueCapacity:  1024,
		ReorderRingCapacity:   DefaultRingCapacity,
		MaxDrainPerSubscriber: MaxDrainPerSubscriber,
		TimeOffsetNS:          20_000_000,
		MultiThreadedWorkers:  0,
	}
}

// LoadConfig reads a YAML file (if path is non-empty) over DefaultConfig,
// then applies any env tag overrides found in the process environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		raw, ok := os.LookupEnv(tag)
		if !ok {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int64:
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				field.SetInt(n)
			}
		case reflect.Uint, reflect.Uint64:
			if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
				field.SetUint(n)
			}
		}
	}
}
