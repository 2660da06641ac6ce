package kex

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Worker is the single-threaded broker-worker actor of spec.md section
// 4.5: it owns the correlation-id counter, the broker list, and the
// metadata cache, and serializes every public operation through a
// mailbox, exactly as the teacher serializes broker I/O through a
// dedicated per-connection goroutine.
type Worker struct {
	cfg *Config
	log workerLogger

	mailbox chan *workerOp
	done    chan struct{}
	closeWg sync.WaitGroup

	metrics   *workerMetrics
	coalescer *metadataCoalescer
	events    EventSink

	// state, touched only from the run loop goroutine.
	brokers          []*Broker
	metadata         *MetadataSnapshot
	consumerMetadata ConsumerMetadata
	correlationID    int32
}

type workerOp struct {
	run   func(w *Worker) (interface{}, error)
	reply chan workerResult
}

type workerResult struct {
	value interface{}
	err   error
}

// Init establishes one connection per configured URI (bootstrap
// brokers, node_id = -1), performs an initial metadata retrieval,
// reconciles the broker list, and starts the worker's timers, per
// spec.md section 4.5's Init lifecycle.
func Init(cfg *Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MetadataUpdateInterval == 0 {
		cfg.MetadataUpdateInterval = defaultMetadataUpdateInterval
	}
	if cfg.ConsumerGroupUpdateInterval == 0 {
		cfg.ConsumerGroupUpdateInterval = WaitTime * time.Millisecond
	}

	w := &Worker{
		cfg:       cfg,
		log:       workerLogger{name: cfg.WorkerName, sink: cfg.Logger},
		mailbox:   make(chan *workerOp, 64),
		done:      make(chan struct{}),
		metrics:   newWorkerMetrics(cfg.MetricsRegistry, cfg.WorkerName),
		coalescer: newMetadataCoalescer(cfg.WorkerName),
		events:    cfg.EventSink,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.callerTimeout())
	defer cancel()

	for _, uri := range cfg.URIs {
		host, port, err := splitHostPort(uri)
		if err != nil {
			return nil, err
		}
		b := newBroker(-1, host, port, cfg)
		if err := b.connect(ctx); err != nil {
			w.log.logf("bootstrap broker %s unreachable: %v", uri, err)
			continue
		}
		w.brokers = append(w.brokers, b)
	}
	if len(w.brokers) == 0 {
		return nil, ErrNoBrokersAvailable
	}

	nextCorrelation, snapshot, err := retrieveMetadata(w.brokers, w.correlationID, cfg.SyncTimeout, nil, RetryCount)
	if err != nil {
		return nil, err
	}
	w.correlationID = nextCorrelation
	w.metadata = snapshot
	w.brokers = reconcileBrokers(w.brokers, snapshot.Brokers, cfg)

	w.closeWg.Add(1)
	go w.run()

	if w.events != nil {
		w.events.Post(Event{Name: "init", Data: map[string]interface{}{"worker_name": cfg.WorkerName, "brokers": len(w.brokers)}})
	}

	return w, nil
}

// run is the worker's mailbox dispatch loop: it processes one workerOp
// at a time and merges the periodic metadata/consumer-group timers
// into the same select, per spec.md section 4.5's Timers and section
// 5's single-threaded scheduling model.
func (w *Worker) run() {
	defer w.closeWg.Done()

	metadataTicker := time.NewTicker(w.cfg.MetadataUpdateInterval)
	defer metadataTicker.Stop()

	var groupTicker *time.Ticker
	if w.cfg.ConsumerGroup != "" {
		groupTicker = time.NewTicker(w.cfg.ConsumerGroupUpdateInterval)
		defer groupTicker.Stop()
	}
	groupTickerC := func() <-chan time.Time {
		if groupTicker == nil {
			return nil
		}
		return groupTicker.C
	}

	for {
		select {
		case <-w.done:
			return
		case op := <-w.mailbox:
			v, err := op.run(w)
			op.reply <- workerResult{value: v, err: err}
		case <-metadataTicker.C:
			w.updateMetadataLocked(nil)
		case <-groupTickerC():
			w.updateConsumerMetadataLocked()
		}
	}
}

// submit enqueues fn to run inside the worker's mailbox loop and blocks
// for its result, the Go equivalent of an actor mailbox round trip.
func (w *Worker) submit(fn func(w *Worker) (interface{}, error)) (interface{}, error) {
	op := &workerOp{run: fn, reply: make(chan workerResult, 1)}
	select {
	case w.mailbox <- op:
	case <-w.done:
		return nil, ErrClosedWorker
	}
	select {
	case res := <-op.reply:
		return res.value, res.err
	case <-w.done:
		return nil, ErrClosedWorker
	}
}

// Terminate stops the worker's mailbox loop, stops the configured
// event_sink (if any), and closes every broker socket, aggregating
// per-broker close failures with go-multierror instead of surfacing
// only the first one, per spec.md section 4.5's Terminate behavior.
func (w *Worker) Terminate() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	w.closeWg.Wait()

	if w.events != nil {
		w.events.Post(Event{Name: "terminate", Data: map[string]interface{}{"worker_name": w.cfg.WorkerName}})
		w.events.Stop()
	}

	var result *multierror.Error
	for _, b := range w.brokers {
		if err := b.close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// brokerForNodeID resolves a Broker by node id from the worker's
// current broker list.
func (w *Worker) brokerForNodeID(nodeID int32) *Broker {
	for _, b := range w.brokers {
		if b.NodeID == nodeID {
			return b
		}
	}
	return nil
}

// updateMetadataLocked runs the on-demand/periodic metadata path
// (spec.md section 4.4) from inside the run loop, so it never races
// with another mailbox operation.
func (w *Worker) updateMetadataLocked(topics []string) (*MetadataSnapshot, error) {
	nextCorrelation, snapshot, err := retrieveMetadata(w.brokers, w.correlationID, w.cfg.SyncTimeout, topics, RetryCount)
	if err != nil {
		w.log.logf("metadata refresh failed: %v", err)
		return nil, err
	}
	w.correlationID = nextCorrelation
	w.metadata = snapshot
	w.brokers = reconcileBrokers(w.brokers, snapshot.Brokers, w.cfg)
	w.metrics.brokerCount.Update(int64(len(w.brokers)))
	return snapshot, nil
}

// updateConsumerMetadataLocked refreshes the cached group-coordinator
// location, per spec.md section 4.6.
func (w *Worker) updateConsumerMetadataLocked() {
	if w.cfg.ConsumerGroup == "" {
		return
	}
	cm, err := w.discoverCoordinatorLocked()
	if err != nil {
		w.log.logf("consumer metadata refresh failed: %v", err)
		return
	}
	w.consumerMetadata = cm
}

// resolveLeaderLocked performs the generic network_request leader
// lookup: cache hit, or one on-demand refresh and a second lookup, per
// spec.md section 4.5 steps 1-2.
func (w *Worker) resolveLeaderLocked(topic string, partition int32) (*Broker, error) {
	if bm := w.metadata.BrokerFor(topic, partition); bm != nil {
		if b := w.brokerForNodeID(bm.NodeID); b != nil {
			return b, nil
		}
	}
	if _, err := w.updateMetadataLocked([]string{topic}); err != nil {
		return nil, err
	}
	if bm := w.metadata.BrokerFor(topic, partition); bm != nil {
		if b := w.brokerForNodeID(bm.NodeID); b != nil {
			return b, nil
		}
	}
	return nil, nil
}

// dispatchLocked sends req to broker, decodes into resp, and advances
// the correlation id by exactly 1, per spec.md section 4.5 step 3 and
// section 5's ordering guarantees.
func (w *Worker) dispatchLocked(broker *Broker, req request, resp response) error {
	started := time.Now()
	frame, err := encodeRequest(req, 0, w.correlationID)
	if err != nil {
		return err
	}
	respFrame, err := broker.sendSync(frame, w.cfg.SyncTimeout)
	w.correlationID++
	w.metrics.recordRequest(req.key(), started, len(w.brokers))
	w.metrics.correlationIDGauge().Update(int64(w.correlationID))
	if err != nil {
		return err
	}
	if _, err := decodeResponse(respFrame, resp); err != nil {
		return err
	}
	return nil
}

func splitHostPort(uri string) (string, int32, error) {
	host, portStr, err := net.SplitHostPort(uri)
	if err != nil {
		return "", 0, ConfigurationError("invalid broker URI " + uri)
	}
	port, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		return "", 0, ConfigurationError("invalid broker port in URI " + uri)
	}
	return host, int32(port), nil
}
