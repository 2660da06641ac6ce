package kex

import "time"

// Process-wide constants, unchangeable at runtime, per spec.md section 6.
const (
	// RetryCount is the default metadata-refresh retry budget: up to
	// RetryCount retries (RetryCount+1 total attempts) on
	// LeaderNotAvailable.
	RetryCount = 3

	// WaitTime is the default wait, in milliseconds, the
	// consumer-group-update timer uses when no explicit interval is
	// configured.
	WaitTime = 10

	// MinBytes and MaxBytes bound a Fetch request's requested byte
	// range per spec.md section 6.
	MinBytes = 1
	MaxBytes = 1000000
)

// defaultSyncTimeout is the process-wide default per-socket round-trip
// timeout (spec.md section 6, "sync_timeout").
const defaultSyncTimeout = 1000 * time.Millisecond

// defaultMetadataUpdateInterval is spec.md section 6's
// "metadata_update_interval" default.
const defaultMetadataUpdateInterval = 30000 * time.Millisecond

// defaultCallerTimeout is spec.md section 5's default outer caller
// timeout, raised to SyncTimeout when the latter is larger.
const defaultCallerTimeout = 5000 * time.Millisecond

// Config holds every option a Worker is constructed with, per spec.md
// section 6. It follows the teacher's own Config.Validate() convention:
// a single struct built up by the caller (or by functional options),
// checked once before use.
type Config struct {
	// URIs is the ordered list of bootstrap broker addresses, each
	// "host:port". At least one is required.
	URIs []string

	// UseSSL wraps every broker connection in TLS when true.
	UseSSL bool

	// SSLOptions carries the TLS parameters used when UseSSL is set.
	SSLOptions SSLOptions

	// MetadataUpdateInterval is the period between periodic metadata
	// refreshes. Zero means defaultMetadataUpdateInterval.
	MetadataUpdateInterval time.Duration

	// ConsumerGroup is the group id for group-aware ops. Empty disables
	// the consumer-metadata refresh timer.
	ConsumerGroup string

	// ConsumerGroupUpdateInterval is the period between coordinator
	// refreshes. Zero means WaitTime milliseconds.
	ConsumerGroupUpdateInterval time.Duration

	// WorkerName identifies this worker in log lines and metric names.
	WorkerName string

	// SyncTimeout is the process-wide per-socket round-trip timeout.
	// Zero means defaultSyncTimeout.
	SyncTimeout time.Duration

	// DialFunc, when set, overrides how broker connections are dialed.
	// Left nil, connections use net.Dialer.DialContext directly.
	DialFunc DialFunc

	// Proxy configures optional SOCKS dialing of broker connections,
	// mirroring the teacher's own optional proxy-dial support.
	Proxy ProxyConfig

	// MetricsRegistry, when set, is the go-metrics registry every
	// instrumented call registers into. Left nil, a private registry is
	// allocated per Worker.
	MetricsRegistry Registry

	// Logger, when set, overrides the package-level default Logger for
	// this Worker only; every line the Worker logs goes through it
	// instead of the package-level Logger.
	Logger StdLogger

	// EventSink, when set, receives lifecycle events posted by the
	// Worker (currently "init" and "terminate") and is stopped when the
	// Worker terminates, per spec.md section 4.5's Terminate behavior.
	EventSink EventSink
}

// ProxyConfig configures optional SOCKS5 dialing of broker connections.
type ProxyConfig struct {
	Enable bool
	// Dialer is the golang.org/x/net/proxy dialer to use when Enable is
	// true. Left nil with Enable set, Validate rejects the Config.
	Dialer ProxyDialer
}

// NewConfig returns a Config with every default from spec.md section 6
// applied, ready for the caller to override specific fields before
// calling Validate.
func NewConfig() *Config {
	return &Config{
		MetadataUpdateInterval:      defaultMetadataUpdateInterval,
		ConsumerGroupUpdateInterval: WaitTime * time.Millisecond,
		SyncTimeout:                 defaultSyncTimeout,
		WorkerName:                  "kex",
	}
}

// Validate checks the Config for internal consistency, following the
// teacher's Config.Validate()/ConfigurationError convention: the first
// offending field is reported, not an aggregate of every problem.
func (c *Config) Validate() error {
	if len(c.URIs) == 0 {
		return ConfigurationError("at least one broker URI is required")
	}
	if c.MetadataUpdateInterval < 0 {
		return ConfigurationError("MetadataUpdateInterval must not be negative")
	}
	if c.ConsumerGroupUpdateInterval < 0 {
		return ConfigurationError("ConsumerGroupUpdateInterval must not be negative")
	}
	if c.SyncTimeout <= 0 {
		return ConfigurationError("SyncTimeout must be positive")
	}
	if c.UseSSL {
		if c.SSLOptions.CertFile == "" && c.SSLOptions.CAFile == "" {
			return ConfigurationError("UseSSL requires SSLOptions.CertFile or SSLOptions.CAFile")
		}
	}
	if c.Proxy.Enable && c.Proxy.Dialer == nil {
		return ConfigurationError("Proxy.Enable requires a Proxy.Dialer")
	}
	if c.WorkerName == "" {
		return ConfigurationError("WorkerName must not be empty")
	}
	return nil
}

// callerTimeout resolves spec.md section 5's default-vs-configured
// outer caller timeout rule: defaultCallerTimeout unless SyncTimeout is
// larger, in which case SyncTimeout wins.
func (c *Config) callerTimeout() time.Duration {
	if c.SyncTimeout > defaultCallerTimeout {
		return c.SyncTimeout
	}
	return defaultCallerTimeout
}
