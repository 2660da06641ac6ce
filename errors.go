package kex

import "fmt"

// KError is a numeric Kafka API error code that has been resolved to a
// symbolic Go error. It satisfies the error interface so it can be
// returned and compared directly.
type KError int16

const (
	ErrNoError                        KError = 0
	ErrUnknown                        KError = -1
	ErrOffsetOutOfRange               KError = 1
	ErrInvalidMessage                 KError = 2
	ErrUnknownTopicOrPartition        KError = 3
	ErrInvalidMessageSize             KError = 4
	ErrLeaderNotAvailable             KError = 5
	ErrNotLeaderForPartition          KError = 6
	ErrRequestTimedOut                KError = 7
	ErrBrokerNotAvailable             KError = 8
	ErrReplicaNotAvailable            KError = 9
	ErrMessageSizeTooLarge            KError = 10
	ErrStaleControllerEpoch           KError = 11
	ErrOffsetMetadataTooLarge         KError = 12
	ErrNetworkException               KError = 13
	ErrOffsetsLoadInProgress          KError = 14
	ErrConsumerCoordinatorNotAvailable KError = 15
	ErrNotCoordinatorForConsumer      KError = 16
	ErrInvalidTopic                   KError = 17
	ErrRecordListTooLarge             KError = 18
	ErrNotEnoughReplicas              KError = 19
	ErrNotEnoughReplicasAfterAppend   KError = 20
	ErrInvalidRequiredAcks            KError = 21
	ErrIllegalGeneration              KError = 22
	ErrInconsistentGroupProtocol      KError = 23
	ErrInvalidGroupID                 KError = 24
	ErrUnknownMemberID                KError = 25
	ErrInvalidSessionTimeout          KError = 26
	ErrRebalanceInProgress            KError = 27
	ErrInvalidCommitOffsetSize        KError = 28
	ErrTopicAuthorizationFailed       KError = 29
	ErrGroupAuthorizationFailed       KError = 30
	ErrClusterAuthorizationFailed     KError = 31
)

var errCodeNames = map[KError]string{
	ErrNoError:                         "kafka server: Not an error, why are you printing me?",
	ErrUnknown:                         "kafka server: Unexpected (unknown?) server error",
	ErrOffsetOutOfRange:                "kafka server: The requested offset is outside the range of offsets maintained by the server for the given topic/partition",
	ErrInvalidMessage:                  "kafka server: Message contents does not match its CRC",
	ErrUnknownTopicOrPartition:         "kafka server: Request was for a topic or partition that does not exist on this broker",
	ErrInvalidMessageSize:              "kafka server: The message has a negative size",
	ErrLeaderNotAvailable:              "kafka server: In the middle of a leadership election, there is currently no leader for this partition and hence it is unavailable for writes",
	ErrNotLeaderForPartition:           "kafka server: Tried to send a message to a replica that is not the leader for some partition, your metadata is out of date",
	ErrRequestTimedOut:                 "kafka server: Request exceeded the user-specified time limit in the request",
	ErrBrokerNotAvailable:              "kafka server: Broker not available, internal error on the broker",
	ErrReplicaNotAvailable:             "kafka server: Replica not available for the requested topic/partition",
	ErrMessageSizeTooLarge:             "kafka server: Message was too large, server rejected it to avoid allocation error",
	ErrStaleControllerEpoch:            "kafka server: Stale controller epoch",
	ErrOffsetMetadataTooLarge:          "kafka server: Specified a string larger than the configured maximum for offset metadata",
	ErrNetworkException:                "kafka server: The server disconnected before a response was received",
	ErrOffsetsLoadInProgress:           "kafka server: Offsets topic has not yet been created or is still loading",
	ErrConsumerCoordinatorNotAvailable: "kafka server: Coordinator for the consumer group is not available",
	ErrNotCoordinatorForConsumer:       "kafka server: This is not the correct coordinator for the consumer group",
	ErrInvalidTopic:                    "kafka server: The request attempted to perform an operation on an invalid topic",
	ErrRecordListTooLarge:              "kafka server: The message set being produced exceeds the maximum size for a partition",
	ErrNotEnoughReplicas:               "kafka server: Not enough in-sync replicas to satisfy the acks",
	ErrNotEnoughReplicasAfterAppend:    "kafka server: The message was written to the log but not enough in-sync replicas acknowledged it",
	ErrInvalidRequiredAcks:             "kafka server: The requested required acks is invalid",
	ErrIllegalGeneration:               "kafka server: The generation id provided in the request is not the current generation",
	ErrInconsistentGroupProtocol:       "kafka server: The group member's protocol type/set does not match the rest of the group",
	ErrInvalidGroupID:                  "kafka server: The group id is empty or invalid",
	ErrUnknownMemberID:                 "kafka server: The member id is unknown",
	ErrInvalidSessionTimeout:           "kafka server: The session timeout is outside the allowed range",
	ErrRebalanceInProgress:             "kafka server: A rebalance for the group is in progress",
	ErrInvalidCommitOffsetSize:         "kafka server: The committing offset data size is not valid",
	ErrTopicAuthorizationFailed:        "kafka server: Not authorized to access this topic",
	ErrGroupAuthorizationFailed:        "kafka server: Not authorized to access this group",
	ErrClusterAuthorizationFailed:      "kafka server: Not authorized to an inter-broker operation",
}

func (e KError) Error() string {
	if s, ok := errCodeNames[e]; ok {
		return s
	}
	return fmt.Sprintf("kafka server: unknown/unmapped error code %d", int16(e))
}

// UnknownServerError wraps a non-zero error code that has no symbolic
// mapping, preserving it verbatim for the caller.
type UnknownServerError struct {
	Code int16
}

func (e UnknownServerError) Error() string {
	return fmt.Sprintf("kafka server: unknown server error (code %d)", e.Code)
}

// errorForCode resolves a wire error code to a Go error, or nil for
// ErrNoError. Codes that appear in the symbolic table map to a KError;
// everything else becomes an UnknownServerError.
func errorForCode(code int16) error {
	if code == 0 {
		return nil
	}
	ke := KError(code)
	if _, ok := errCodeNames[ke]; ok {
		return ke
	}
	return UnknownServerError{Code: code}
}

// Sentinel errors for conditions that are not Kafka server error codes.
var (
	// ErrMalformed is returned by the decoder when the byte stream ends
	// before a declared length, or a length is implausible.
	ErrMalformed = fmt.Errorf("kex: malformed packet")

	// ErrNoBrokersAvailable is fatal to a metadata refresh: no broker in
	// the current list accepted the Metadata request.
	ErrNoBrokersAvailable = fmt.Errorf("kex: no brokers available to satisfy metadata request")

	// ErrTimeout is returned when a socket round trip exceeds its
	// configured timeout.
	ErrTimeout = fmt.Errorf("kex: request timed out waiting for response")

	// ErrDisconnected is returned when a broker's socket is closed, a
	// write fails, or its circuit breaker is open.
	ErrDisconnected = fmt.Errorf("kex: broker is disconnected")

	// ErrTopicNotFound is returned when a leader is still unresolved
	// after one on-demand metadata refresh.
	ErrTopicNotFound = fmt.Errorf("kex: topic/partition not found in cluster metadata")

	// ErrUnknownRequestKey is returned for a request kind the codec
	// cannot encode.
	ErrUnknownRequestKey = fmt.Errorf("kex: unknown request api key")

	// ErrClosedWorker is returned by any operation issued after the
	// worker has terminated.
	ErrClosedWorker = fmt.Errorf("kex: worker is closed")

	// ErrNoSuchBroker is returned when a node id cannot be resolved to a
	// broker in the current list.
	ErrNoSuchBroker = fmt.Errorf("kex: no broker known for that node id")
)

// ConfigurationError is returned by Config.Validate and by operations
// invoked with an invalid combination of options.
type ConfigurationError string

func (e ConfigurationError) Error() string {
	return "kex: invalid configuration (" + string(e) + ")"
}
