package kex

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// metadataRetryBackoff is spec.md section 4.4's fixed 300ms sleep
// between LeaderNotAvailable retries.
const metadataRetryBackoff = 300 * time.Millisecond

// retrieveMetadata implements spec.md section 4.4's algorithm: send a
// Metadata request to the first connected broker, retrying up to
// RetryCount times (RetryCount+1 total attempts) on LeaderNotAvailable,
// backing off metadataRetryBackoff between attempts. It returns the
// advanced correlation id alongside the decoded snapshot.
func retrieveMetadata(brokers []*Broker, correlationID int32, syncTimeout time.Duration, topics []string, retriesLeft int) (int32, *MetadataSnapshot, error) {
	req := &MetadataRequest{Topics: topics}

	for {
		frame, err := encodeRequest(req, 0, correlationID)
		if err != nil {
			return correlationID, nil, err
		}

		sent := false
		var respFrame []byte
		for _, b := range brokers {
			if !b.connected() {
				continue
			}
			respFrame, err = b.sendSync(frame, syncTimeout)
			if err != nil {
				continue
			}
			sent = true
			break
		}
		if !sent {
			return correlationID, nil, ErrNoBrokersAvailable
		}

		resp := &MetadataResponse{}
		if _, err := decodeResponse(respFrame, resp); err != nil {
			return correlationID, nil, err
		}
		correlationID++

		if hasLeaderNotAvailable(resp) && retriesLeft > 0 {
			time.Sleep(metadataRetryBackoff)
			retriesLeft--
			continue
		}

		return correlationID, resp.snapshot(), nil
	}
}

func hasLeaderNotAvailable(resp *MetadataResponse) bool {
	for _, t := range resp.Topics {
		if KError(t.ErrorCode) == ErrLeaderNotAvailable {
			return true
		}
		for _, p := range t.Partitions {
			if KError(p.ErrorCode) == ErrLeaderNotAvailable {
				return true
			}
		}
	}
	return false
}

// metadataCoalescer collapses concurrent on-demand refresh triggers
// into a single in-flight retrieveMetadata call, per SPEC_FULL.md
// section 4.4: the single-threaded mailbox already prevents overlapping
// *dispatch*, but callers outside the mailbox (the on-demand trigger
// path) can race to enqueue redundant refresh requests.
type metadataCoalescer struct {
	group singleflight.Group
	key   string
}

func newMetadataCoalescer(workerName string) *metadataCoalescer {
	return &metadataCoalescer{key: workerName}
}

func (c *metadataCoalescer) do(fn func() (*MetadataSnapshot, error)) (*MetadataSnapshot, error) {
	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*MetadataSnapshot), nil
}

// reconcileBrokers implements spec.md section 4.4's broker-list
// reconciliation after a successful refresh: brokers are kept if their
// node id still appears in the new list and their socket is live, or
// unconditionally if they are a bootstrap broker (node_id == -1).
//
// The keep predicate below preserves, on purpose, the source's own
// operator-precedence quirk documented in spec.md section 9: written
// as `isBootstrap || (stillPresent && stillConnected)`, the bootstrap
// branch short-circuits the liveness check entirely rather than being
// ANDed into it. This is not a bug fix target; it is specified
// behavior.
func reconcileBrokers(current []*Broker, fresh []BrokerMetadata, cfg *Config) []*Broker {
	freshByID := make(map[int32]BrokerMetadata, len(fresh))
	for _, bm := range fresh {
		freshByID[bm.NodeID] = bm
	}

	var keep []*Broker
	var remove []*Broker
	for _, b := range current {
		_, stillPresent := freshByID[b.NodeID]
		isBootstrap := b.NodeID == -1
		if isBootstrap || (stillPresent && b.connected()) {
			keep = append(keep, b)
		} else {
			remove = append(remove, b)
		}
	}

	if len(keep) == 0 && len(current) > 0 {
		// Safety clamp, invariant 4: never leave the worker with zero
		// endpoints.
		return current
	}

	for _, b := range remove {
		b.close()
	}

	keptByID := make(map[int32]bool, len(keep))
	for _, b := range keep {
		keptByID[b.NodeID] = true
	}
	for _, bm := range fresh {
		if keptByID[bm.NodeID] {
			continue
		}
		nb := newBroker(bm.NodeID, bm.Host, bm.Port, cfg)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
		err := nb.connect(ctx)
		cancel()
		if err != nil {
			Logger.Printf("kex: failed to connect to newly discovered broker %d (%s:%d): %v", bm.NodeID, bm.Host, bm.Port, err)
		}
		keep = append(keep, nb)
	}

	return keep
}
