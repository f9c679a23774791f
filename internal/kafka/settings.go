package kafka

import (
	"fmt"
	"strings"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ProducerSettings carries the broker-level options for one producer
// session.
type ProducerSettings struct {
	BootstrapServers []string
	Acks             string // "all", "1", or "0"
	Idempotent       bool
	FlushTimeoutMs   int
}

// ConsumerSettings carries the broker-level options for one consumer
// session.
type ConsumerSettings struct {
	BootstrapServers []string
	GroupID          string
	Topic            string
	AutoCommit       bool
	AutoOffsetReset  string // "earliest" or "latest"
}

func (s ProducerSettings) configMap() (*ck.ConfigMap, error) {
	if len(s.BootstrapServers) == 0 {
		return nil, fmt.Errorf("bootstrap servers cannot be empty")
	}

	cfg := &ck.ConfigMap{
		"bootstrap.servers": strings.Join(s.BootstrapServers, ","),
	}
	if s.Acks != "" {
		if err := cfg.SetKey("acks", s.Acks); err != nil {
			return nil, err
		}
	}
	if s.Idempotent {
		if err := cfg.SetKey("enable.idempotence", true); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (s ConsumerSettings) configMap() (*ck.ConfigMap, error) {
	if len(s.BootstrapServers) == 0 {
		return nil, fmt.Errorf("bootstrap servers cannot be empty")
	}
	if s.GroupID == "" {
		return nil, fmt.Errorf("group id cannot be empty")
	}

	cfg := &ck.ConfigMap{
		"bootstrap.servers":  strings.Join(s.BootstrapServers, ","),
		"group.id":           s.GroupID,
		"enable.auto.commit": s.AutoCommit,
	}
	reset := s.AutoOffsetReset
	if reset == "" {
		reset = "latest"
	}
	if err := cfg.SetKey("auto.offset.reset", reset); err != nil {
		return nil, err
	}
	return cfg, nil
}
