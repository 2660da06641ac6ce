package kex

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
)

// TestInitAndTerminate exercises the Init/Terminate lifecycle against a
// real TCP server standing in for a single-broker cluster, and checks
// that Terminate leaves no goroutines behind.
func TestInitAndTerminate(t *testing.T) {
	defer leaktest.Check(t)()

	srv := startScriptedKafkaServer(t, func(apiKey int16, correlationID int32) response {
		return &MetadataResponse{} // no brokers, no topics
	})
	defer srv.close()

	cfg := NewConfig()
	cfg.URIs = []string{srv.addr()}
	cfg.WorkerName = "init-test"
	cfg.SyncTimeout = 2 * time.Second

	w, err := Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.Len(t, w.brokers, 1) // bootstrap brokers (node id -1) are always kept

	require.NoError(t, w.Terminate())
}

// TestInitPostsEventsAndStopsSinkOnTerminate checks spec.md section
// 4.5's Terminate behavior: the configured event_sink is stopped, and
// Init/Terminate each post a lifecycle event to it.
func TestInitPostsEventsAndStopsSinkOnTerminate(t *testing.T) {
	srv := startScriptedKafkaServer(t, func(apiKey int16, correlationID int32) response {
		return &MetadataResponse{}
	})
	defer srv.close()

	sink, events, stopped := newFakeEventSink()

	cfg := NewConfig()
	cfg.URIs = []string{srv.addr()}
	cfg.WorkerName = "event-test"
	cfg.SyncTimeout = 2 * time.Second
	cfg.EventSink = sink

	w, err := Init(cfg)
	require.NoError(t, err)

	require.False(t, *stopped)
	require.Len(t, *events, 1)
	require.Equal(t, "init", (*events)[0].Name)

	require.NoError(t, w.Terminate())

	require.True(t, *stopped)
	require.Len(t, *events, 2)
	require.Equal(t, "terminate", (*events)[1].Name)
}

// TestWorkerLoggerUsesConfiguredSink checks that Config.Logger actually
// overrides where a Worker's log lines go, instead of silently falling
// through to the package-level default.
func TestWorkerLoggerUsesConfiguredSink(t *testing.T) {
	sink, lines := newRecordingLogger()
	wl := workerLogger{name: "w1", sink: sink}

	wl.logf("hello %d", 42)

	require.Len(t, *lines, 1)
	require.Contains(t, (*lines)[0], "worker=w1")
	require.Contains(t, (*lines)[0], "hello 42")
}

// TestWorkerLoggerFallsBackToPackageDefault checks that a zero-value
// workerLogger (no sink configured) still logs, via the package-level
// Logger, rather than panicking on a nil interface.
func TestWorkerLoggerFallsBackToPackageDefault(t *testing.T) {
	wl := workerLogger{name: "w2"}
	require.NotPanics(t, func() { wl.logf("no sink configured") })
}

// TestTopicMetadataCacheHitAndRefreshMiss checks Worker.TopicMetadata's
// two paths: a cache hit returns immediately, and a cache miss refreshes
// once before giving up with ErrTopicNotFound.
func TestTopicMetadataCacheHitAndRefreshMiss(t *testing.T) {
	cfg := testConfig(t)
	bootstrap, bootstrapSrv := newFakeBroker(t, -1, cfg)
	defer bootstrap.close()

	w := &Worker{
		cfg:     cfg,
		log:     workerLogger{name: "topicmeta"},
		metrics: newWorkerMetrics(nil, "topicmeta"),
		brokers: []*Broker{bootstrap},
		metadata: &MetadataSnapshot{
			Topics: []TopicMetadata{{Topic: "known", Partitions: []PartitionMetadata{{PartitionID: 0, Leader: 1}}}},
		},
	}

	tm, err := w.topicMetadataLocked("known")
	require.NoError(t, err)
	require.Equal(t, "known", tm.Topic)

	go func() {
		bootstrapSrv.expectRequest()
		bootstrapSrv.reply(0, &MetadataResponse{}) // still no knowledge of "missing"
	}()

	_, err = w.topicMetadataLocked("missing")
	require.ErrorIs(t, err, ErrTopicNotFound)
}

// TestScenario2LeaderMissTriggersRefresh builds a worker with an empty
// metadata cache and a known partition leader, then checks that
// resolving that leader issues exactly one Metadata request before the
// Produce request itself, per spec.md section 8 scenario 2.
func TestScenario2LeaderMissTriggersRefresh(t *testing.T) {
	cfg := testConfig(t)

	bootstrap, bootstrapSrv := newFakeBroker(t, -1, cfg)
	defer bootstrap.close()
	leader, leaderSrv := newFakeBroker(t, 5, cfg)
	defer leader.close()

	w := &Worker{
		cfg:       cfg,
		log:       workerLogger{name: "scenario2"},
		metrics:   newWorkerMetrics(nil, "scenario2"),
		coalescer: newMetadataCoalescer("scenario2"),
		brokers:   []*Broker{bootstrap, leader},
		metadata:  &MetadataSnapshot{},
	}

	go func() {
		bootstrapSrv.expectRequest()
		bootstrapSrv.reply(0, &MetadataResponse{
			Brokers: []BrokerMetadata{{NodeID: 5, Host: "leader", Port: 9092}},
			Topics: []TopicMetadata{{
				Topic: "T",
				Partitions: []PartitionMetadata{
					{PartitionID: 0, Leader: 5, Replicas: []int32{5}, ISR: []int32{5}},
				},
			}},
		})
	}()

	broker, err := w.resolveLeaderLocked("T", 0)
	require.NoError(t, err)
	require.NotNil(t, broker)
	require.EqualValues(t, 5, broker.NodeID)
	require.EqualValues(t, 1, w.correlationID) // one request consumed so far
	require.Len(t, w.brokers, 2, "the leader was already present, reconciliation should not add a duplicate")

	produceCorrelationID := w.correlationID
	go func() {
		reqBody := leaderSrv.expectRequest()
		require.NotEmpty(t, reqBody)
		leaderSrv.reply(produceCorrelationID, &ProduceResponse{
			Topics: []ProduceTopicResponse{{
				Topic:      "T",
				Partitions: []ProducePartitionResponse{{Partition: 0, ErrorCode: 0, Offset: 42}},
			}},
		})
	}()

	resp := &ProduceResponse{}
	req := &ProduceRequest{
		RequiredAcks: 1,
		Timeout:      1000,
		Topics: []ProduceTopic{{
			Topic:      "T",
			Partitions: []ProducePartition{{Partition: 0, Messages: []ProduceMessage{{Value: []byte("v")}}}},
		}},
	}
	require.NoError(t, w.dispatchLocked(broker, req, resp))
	ack, ok := resp.firstPartition()
	require.True(t, ok)
	require.EqualValues(t, 42, ack.Offset)

	require.EqualValues(t, 2, w.correlationID, "exactly two requests (metadata + produce) were sent")
}

// TestScenario6ProduceAcksZero checks property P7: required_acks=0
// writes exactly once and never reads a response, still consuming a
// correlation id.
func TestScenario6ProduceAcksZero(t *testing.T) {
	cfg := testConfig(t)
	leader, leaderSrv := newFakeBroker(t, 1, cfg)
	defer leader.close()

	w := &Worker{
		cfg:     cfg,
		log:     workerLogger{name: "scenario6"},
		metrics: newWorkerMetrics(nil, "scenario6"),
		brokers: []*Broker{leader},
		metadata: &MetadataSnapshot{
			Brokers: []BrokerMetadata{{NodeID: 1, Host: "h", Port: 1}},
			Topics: []TopicMetadata{{
				Topic:      "T",
				Partitions: []PartitionMetadata{{PartitionID: 0, Leader: 1}},
			}},
		},
	}

	received := make(chan []byte, 1)
	go func() {
		received <- leaderSrv.expectRequest()
	}()

	broker, err := w.resolveLeaderLocked("T", 0)
	require.NoError(t, err)
	require.NotNil(t, broker)

	req := &ProduceRequest{
		RequiredAcks: 0,
		Topics: []ProduceTopic{{
			Topic:      "T",
			Partitions: []ProducePartition{{Partition: 0, Messages: []ProduceMessage{{Value: []byte("fire-and-forget")}}}},
		}},
	}
	frame, err := encodeRequest(req, 0, w.correlationID)
	require.NoError(t, err)
	broker.sendAsync(frame)
	w.correlationID++

	select {
	case body := <-received:
		require.NotEmpty(t, body)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the async frame to be written, nothing arrived")
	}
	require.EqualValues(t, 1, w.correlationID)
}

// TestProduceTopicNotFoundConsumesNoCorrelationID checks property P2's
// short-circuit rule: a resolveLeaderLocked miss that stays a miss
// after a refresh must not advance the correlation id beyond what the
// refresh itself consumed.
func TestProduceTopicNotFoundConsumesNoCorrelationID(t *testing.T) {
	cfg := testConfig(t)
	bootstrap, bootstrapSrv := newFakeBroker(t, -1, cfg)
	defer bootstrap.close()

	w := &Worker{
		cfg:      cfg,
		log:      workerLogger{name: "miss"},
		metrics:  newWorkerMetrics(nil, "miss"),
		brokers:  []*Broker{bootstrap},
		metadata: &MetadataSnapshot{},
	}

	go func() {
		bootstrapSrv.expectRequest()
		bootstrapSrv.reply(0, &MetadataResponse{}) // still no knowledge of topic T
	}()

	broker, err := w.resolveLeaderLocked("T", 0)
	require.NoError(t, err)
	require.Nil(t, broker, "an unknown topic must still resolve to no broker after one refresh")
	require.EqualValues(t, 1, w.correlationID, "only the refresh itself consumed a correlation id")
}
