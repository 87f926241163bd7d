package config

import "time"

// Config is the root configuration for a market server instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this server in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the public API listener settings.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	BodyLimit   int           `yaml:"body_limit"` // bytes; bounds request bodies
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// StorageConfig holds the table store location.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
