package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID  = "market"
	DefaultListenAddr  = ":3000"
	DefaultBodyLimit   = 1 << 20 // 1 MB
	DefaultReadTimeout = 30 * time.Second
	DefaultDataDir     = "data"
	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultListenAddr
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = DefaultBodyLimit
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
