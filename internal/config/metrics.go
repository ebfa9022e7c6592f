package config

// Metrics configures the scrape endpoint of binaries that serve no API.
type Metrics struct {
	Port uint32 `env:"METRICS_PORT" envDefault:"9100"`
}
