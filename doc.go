// Package kex implements the core of a Kafka wire-protocol client: broker
// connection management, cluster metadata caching and refresh, request
// routing with automatic leader-misroute recovery, the length-prefixed
// big-endian binary codec, and consumer-group coordination primitives
// (join/sync/heartbeat/leave, offset commit/fetch).
//
// The package deliberately stops short of a public client façade, a
// high-level streaming consumer, SASL authentication, message-set
// compression, and transaction support. Callers build those on top of
// the Worker type exported here.
package kex
