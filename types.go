package kex

// BrokerMetadata is the plain-data description of a broker as carried
// in a MetadataSnapshot, per spec.md section 3. It mirrors the
// teacher-pack's BrokerMetadata split between "where a broker is" and
// the runtime Broker that owns a live socket to it (see broker.go).
type BrokerMetadata struct {
	NodeID int32
	Host   string
	Port   int32
}

// PartitionMetadata describes one partition of a topic, per spec.md
// section 3.
type PartitionMetadata struct {
	PartitionID int32
	ErrorCode   int16
	Leader      int32
	Replicas    []int32
	ISR         []int32
}

// TopicMetadata describes one topic and its partitions, per spec.md
// section 3.
type TopicMetadata struct {
	Topic      string
	ErrorCode  int16
	Partitions []PartitionMetadata
}

// MetadataSnapshot is a fully decoded Metadata response, replacing the
// worker's prior view of the cluster atomically, per spec.md section 3.
type MetadataSnapshot struct {
	Brokers []BrokerMetadata
	Topics  []TopicMetadata
}

// ConsumerMetadata identifies the broker acting as group coordinator
// for a consumer group, per spec.md section 3.
type ConsumerMetadata struct {
	CoordinatorNodeID int32
	CoordinatorHost   string
	CoordinatorPort   int32
	ErrorCode         int16
}

// SSLOptions carries opaque TLS parameters for broker connections, per
// spec.md section 6's ssl_options configuration option.
type SSLOptions struct {
	CertFile           string
	KeyFile            string
	CAFile             string
	InsecureSkipVerify bool
	ServerName         string
}

// Event is posted to an EventSink for lifecycle/diagnostic
// notification. It is intentionally minimal: the event_sink collaborator
// is out of scope per spec.md section 1; this is the seam a caller
// plugs an observability backend into.
type Event struct {
	Name string
	Data map[string]interface{}
}

// EventSink receives lifecycle events from a Worker. It is the opaque
// event_sink referenced by WorkerState in spec.md section 3.
type EventSink interface {
	Post(Event)
	Stop()
}
