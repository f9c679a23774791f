// Package contracts defines the data carried through produce and consume
// pipelines: message contexts, headers, delivery results, offset tokens,
// and the error types surfaced by the middleware.
package contracts
