// Package messaging contains the middleware core: per-type producer
// facades, the lazy handle cache over broker sessions, consumer worker
// pools, and explicit offset acknowledgment.
//
// Registration is explicit. The host application assigns each message
// type a string tag and registers its configuration, handler, and
// interceptors through the root client; nothing is discovered at
// runtime.
package messaging
