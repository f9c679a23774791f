// Package kafka wraps the confluent-kafka-go client behind the four
// primitive operations the middleware needs: build a producer, build a
// consumer, produce one message, poll one message, commit offsets.
// Everything above this package works against the Producer and Consumer
// interfaces so tests can substitute in-memory sessions.
package kafka
