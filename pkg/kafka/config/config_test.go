package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.ConsumerMaxRetries != DefaultConsumerMaxRetries {
		t.Errorf("ConsumerMaxRetries = %d", cfg.ConsumerMaxRetries)
	}
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " k1:9092, ,k2:9092 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if strings.Join(cfg.Brokers, "|") != "k1:9092|k2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "ProducerCompression") || !strings.Contains(msg, "ProducerRequireAcks") {
		t.Errorf("error should list every problem, got %q", msg)
	}
}
