// Package config binds YAML or JSON configuration files to named
// producer and consumer sections. It is a host-side convenience; the
// middleware core consumes only the resolved messaging configs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/glimte/kmate-go/messaging"
)

// Producer is the file-level shape of one producer section.
type Producer struct {
	BootstrapServers []string `koanf:"bootstrapServers"`
	Topic            string   `koanf:"topic"`
	Acks             string   `koanf:"acks"`
	Idempotent       bool     `koanf:"idempotent"`
	FlushTimeoutMs   int      `koanf:"flushTimeoutMs"`
}

// ToConfig converts the section to a messaging.ProducerConfig. Key
// extraction and serializer slots are code-level concerns supplied at
// registration.
func (p Producer) ToConfig() messaging.ProducerConfig {
	return messaging.ProducerConfig{
		BootstrapServers: p.BootstrapServers,
		DefaultTopic:     p.Topic,
		Acks:             messaging.Acks(p.Acks),
		Idempotent:       p.Idempotent,
		FlushTimeout:     time.Duration(p.FlushTimeoutMs) * time.Millisecond,
	}
}

// Consumer is the file-level shape of one consumer section.
type Consumer struct {
	BootstrapServers []string `koanf:"bootstrapServers"`
	Topic            string   `koanf:"topic"`
	GroupID          string   `koanf:"groupId"`
	WorkerCount      int      `koanf:"workerCount"`
	AutoCommit       bool     `koanf:"autoCommit"`
	AutoOffsetReset  string   `koanf:"autoOffsetReset"`
	PollTimeoutMs    int      `koanf:"pollTimeoutMs"`
}

// ToConfig converts the section to a messaging.ConsumerConfig. The
// message factory and deserializer slots are supplied at registration.
func (c Consumer) ToConfig() messaging.ConsumerConfig {
	return messaging.ConsumerConfig{
		BootstrapServers: c.BootstrapServers,
		Topic:            c.Topic,
		GroupID:          c.GroupID,
		WorkerCount:      c.WorkerCount,
		AutoCommit:       c.AutoCommit,
		AutoOffsetReset:  messaging.OffsetReset(c.AutoOffsetReset),
		PollTimeout:      time.Duration(c.PollTimeoutMs) * time.Millisecond,
	}
}

// File is the root of a configuration file: named producer and consumer
// sections.
type File struct {
	Producers map[string]Producer `koanf:"producers"`
	Consumers map[string]Consumer `koanf:"consumers"`
}

// Load reads and parses a configuration file, detecting the format from
// the file extension (.yaml, .yml, or .json).
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	return Parse(data, format)
}

// Parse binds raw configuration bytes in the given format ("yaml",
// "yml", or "json").
func Parse(data []byte, format string) (*File, error) {
	var parser koanf.Parser
	switch strings.ToLower(format) {
	case "yaml", "yml":
		parser = kyaml.Parser()
	case "json":
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var file File
	if err := k.Unmarshal("", &file); err != nil {
		return nil, fmt.Errorf("bind config: %w", err)
	}
	return &file, nil
}
