package config

import "time"

type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP" envDefault:"nfcstore"`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"nfcstore"`

	// Compression is one of none, gzip, snappy, lz4 or zstd.
	Compression     string        `env:"KAFKA_COMPRESSION" envDefault:"snappy"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT" envDefault:"30s"`
}
