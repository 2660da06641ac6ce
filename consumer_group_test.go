package kex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDiscoverCoordinatorRoutesGroupOps checks spec.md section 4.6: a
// GroupCoordinator request resolves the coordinator's location, and
// group ops are then routed to that broker rather than a partition
// leader.
func TestDiscoverCoordinatorRoutesGroupOps(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConsumerGroup = "g1"

	bootstrap, bootstrapSrv := newFakeBroker(t, -1, cfg)
	defer bootstrap.close()
	coordinator, coordinatorSrv := newFakeBroker(t, 9, cfg)
	defer coordinator.close()

	w := &Worker{
		cfg:     cfg,
		log:     workerLogger{name: "cg"},
		metrics: newWorkerMetrics(nil, "cg"),
		brokers: []*Broker{bootstrap, coordinator},
	}
	// The coordinator broker is already in w.brokers under node id 9, so
	// coordinatorBrokerLocked finds it by node id without a real dial;
	// its host/port are set to match what discoverCoordinatorLocked
	// will report.
	coordinator.Host = "coord-host"
	coordinator.Port = 7777

	go func() {
		bootstrapSrv.expectRequest()
		bootstrapSrv.reply(0, &GroupCoordinatorResponse{
			ErrorCode:       0,
			CoordinatorID:   9,
			CoordinatorHost: "coord-host",
			CoordinatorPort: 7777,
		})
	}()

	cm, err := w.discoverCoordinatorLocked()
	require.NoError(t, err)
	require.EqualValues(t, 9, cm.CoordinatorNodeID)
	w.consumerMetadata = cm

	go func() {
		coordinatorSrv.expectRequest()
		coordinatorSrv.reply(w.correlationID, &HeartbeatResponse{ErrorCode: 0})
	}()

	req := &HeartbeatRequest{ConsumerGroup: "g1", GenerationID: 1, MemberID: "m1"}
	resp := &HeartbeatResponse{}
	require.NoError(t, w.dispatchCoordinatorLocked(req, resp, 0))
	require.EqualValues(t, 0, resp.ErrorCode)
}

// TestInvalidateCoordinatorOnNotCoordinatorError checks spec.md section
// 4.6: a NotCoordinatorForConsumer error clears the cached coordinator
// so the next call rediscovers it.
func TestInvalidateCoordinatorOnNotCoordinatorError(t *testing.T) {
	cfg := testConfig(t)
	w := &Worker{cfg: cfg, log: workerLogger{name: "cg2"}, metrics: newWorkerMetrics(nil, "cg2")}
	w.consumerMetadata = ConsumerMetadata{CoordinatorNodeID: 3, CoordinatorHost: "h", CoordinatorPort: 1}

	w.invalidateCoordinatorOnError(ErrNotCoordinatorForConsumer)

	require.Equal(t, ConsumerMetadata{}, w.consumerMetadata)
}

// TestInvalidateCoordinatorIgnoresUnrelatedErrors checks that only the
// two documented error codes invalidate the cached coordinator.
func TestInvalidateCoordinatorIgnoresUnrelatedErrors(t *testing.T) {
	cfg := testConfig(t)
	w := &Worker{cfg: cfg, log: workerLogger{name: "cg3"}, metrics: newWorkerMetrics(nil, "cg3")}
	w.consumerMetadata = ConsumerMetadata{CoordinatorNodeID: 3, CoordinatorHost: "h", CoordinatorPort: 1}

	w.invalidateCoordinatorOnError(ErrRequestTimedOut)

	require.Equal(t, ConsumerMetadata{CoordinatorNodeID: 3, CoordinatorHost: "h", CoordinatorPort: 1}, w.consumerMetadata)
}
