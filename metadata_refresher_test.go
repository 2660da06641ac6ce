package kex

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestScenario3LeaderNotAvailableRetry verifies that a Metadata
// response reporting LeaderNotAvailable is retried up to RetryCount
// times (RetryCount+1 total attempts, per P6) with the 300ms backoff,
// per spec.md section 8 scenario 3.
func TestScenario3LeaderNotAvailableRetry(t *testing.T) {
	cfg := testConfig(t)
	b, srv := newFakeBroker(t, -1, cfg)
	defer b.close()

	var attempts int32
	go func() {
		for i := 0; i < RetryCount+1; i++ {
			srv.expectRequest()
			atomic.AddInt32(&attempts, 1)
			srv.reply(int32(i), &MetadataResponse{
				Topics: []TopicMetadata{{
					Topic:     "t",
					ErrorCode: int16(ErrLeaderNotAvailable),
				}},
			})
		}
	}()

	start := time.Now()
	finalCorrelation, snapshot, err := retrieveMetadata([]*Broker{b}, 0, cfg.SyncTimeout, nil, RetryCount)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.EqualValues(t, RetryCount+1, atomic.LoadInt32(&attempts))
	// Each retry (not the final attempt) sleeps 300ms.
	require.GreaterOrEqual(t, elapsed, RetryCount*metadataRetryBackoff)
	// Correlation id advances once per attempt, retried or final.
	require.Greater(t, finalCorrelation, int32(RetryCount))
}

// TestScenario4StaleBrokerPruned checks that a broker absent from a
// refreshed Metadata response is closed and removed, per spec.md
// section 8 scenario 4 and property P5.
func TestScenario4StaleBrokerPruned(t *testing.T) {
	cfg := testConfig(t)
	b1, srv1 := newFakeBroker(t, 1, cfg)
	b2, _ := newFakeBroker(t, 2, cfg)
	_ = srv1

	fresh := []BrokerMetadata{{NodeID: 1, Host: "h1", Port: 1}}
	result := reconcileBrokers([]*Broker{b1, b2}, fresh, cfg)

	require.Len(t, result, 1)
	require.EqualValues(t, 1, result[0].NodeID)
	require.False(t, b2.connected())
}

// TestScenario5EmptyRefreshClamp checks invariant 4 / property P4: an
// empty refreshed broker list does not empty the worker's broker list.
func TestScenario5EmptyRefreshClamp(t *testing.T) {
	cfg := testConfig(t)
	b1, _ := newFakeBroker(t, 1, cfg)
	defer b1.close()

	result := reconcileBrokers([]*Broker{b1}, nil, cfg)

	require.Len(t, result, 1)
	require.Same(t, b1, result[0])
	require.True(t, b1.connected())
}

// TestReconcileBrokersKeepsBootstrapUnconditionally documents and
// locks in spec.md section 9's first Open Question: a bootstrap broker
// (NodeID == -1) is retained even if it is not present in the fresh
// broker list and even if its socket is not live, because the source's
// keep predicate short-circuits on node_id == -1 before the liveness
// check.
func TestReconcileBrokersKeepsBootstrapUnconditionally(t *testing.T) {
	cfg := testConfig(t)
	bootstrap, _ := newFakeBroker(t, -1, cfg)
	bootstrap.close() // no longer connected, and absent from fresh list

	identified, _ := newFakeBroker(t, 7, cfg)

	fresh := []BrokerMetadata{{NodeID: 7, Host: "h", Port: 1}}
	result := reconcileBrokers([]*Broker{bootstrap, identified}, fresh, cfg)

	var keptBootstrap bool
	for _, b := range result {
		if b.NodeID == -1 {
			keptBootstrap = true
		}
	}
	require.True(t, keptBootstrap, "bootstrap brokers must survive reconciliation unconditionally")
}

// TestReconcileBrokersAddsNewBroker checks the "add new" half of
// spec.md section 4.4's reconciliation: a node id present in the fresh
// list but absent from keep gets a new connection appended.
func TestReconcileBrokersAddsNewBroker(t *testing.T) {
	cfg := testConfig(t)
	existing, _ := newFakeBroker(t, 1, cfg)
	defer existing.close()

	fresh := []BrokerMetadata{
		{NodeID: 1, Host: "h1", Port: 1},
		{NodeID: 2, Host: "h2", Port: 2},
	}
	result := reconcileBrokers([]*Broker{existing}, fresh, cfg)

	require.Len(t, result, 2)
	var sawNew bool
	for _, b := range result {
		if b.NodeID == 2 {
			sawNew = true
			require.Equal(t, "h2", b.Host)
		}
	}
	require.True(t, sawNew)
}

// TestRetrieveMetadataNoBrokersAvailable checks spec.md section 4.4
// step 2: if no broker answers, ErrNoBrokersAvailable is raised.
func TestRetrieveMetadataNoBrokersAvailable(t *testing.T) {
	_, _, err := retrieveMetadata(nil, 0, time.Second, nil, RetryCount)
	require.ErrorIs(t, err, ErrNoBrokersAvailable)
}
