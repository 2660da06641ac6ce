package kex

import (
	"context"
	"time"
)

// discoverCoordinatorLocked sends a GroupCoordinator request to the
// first connected broker and returns the resolved ConsumerMetadata,
// per spec.md section 4.6.
func (w *Worker) discoverCoordinatorLocked() (ConsumerMetadata, error) {
	var lastErr error
	for _, b := range w.brokers {
		if !b.connected() {
			continue
		}
		req := &GroupCoordinatorRequest{ConsumerGroup: w.cfg.ConsumerGroup}
		resp := &GroupCoordinatorResponse{}
		if err := w.dispatchLocked(b, req, resp); err != nil {
			lastErr = err
			continue
		}
		if err := errorForCode(resp.ErrorCode); err != nil {
			lastErr = err
			continue
		}
		return resp.consumerMetadata(), nil
	}
	if lastErr == nil {
		lastErr = ErrNoBrokersAvailable
	}
	return ConsumerMetadata{}, lastErr
}

// coordinatorBrokerLocked resolves the broker currently believed to be
// the group coordinator, discovering it on first use.
func (w *Worker) coordinatorBrokerLocked() (*Broker, error) {
	if w.consumerMetadata.CoordinatorHost == "" {
		cm, err := w.discoverCoordinatorLocked()
		if err != nil {
			return nil, err
		}
		w.consumerMetadata = cm
	}
	if b := w.brokerForNodeID(w.consumerMetadata.CoordinatorNodeID); b != nil {
		return b, nil
	}
	b := newBroker(w.consumerMetadata.CoordinatorNodeID, w.consumerMetadata.CoordinatorHost, w.consumerMetadata.CoordinatorPort, w.cfg)
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SyncTimeout)
	defer cancel()
	if err := b.connect(ctx); err != nil {
		return nil, err
	}
	w.brokers = append(w.brokers, b)
	return b, nil
}

// invalidateCoordinatorOnError clears the cached coordinator location
// when a group op reports NotCoordinatorForConsumer or
// ConsumerCoordinatorNotAvailable, per spec.md section 4.6, so the next
// call rediscovers it.
func (w *Worker) invalidateCoordinatorOnError(err error) {
	ke, ok := err.(KError)
	if !ok {
		return
	}
	if ke == ErrNotCoordinatorForConsumer || ke == ErrConsumerCoordinatorNotAvailable {
		w.consumerMetadata = ConsumerMetadata{}
	}
}

// dispatchCoordinatorLocked routes req/resp through the group
// coordinator broker instead of a partition leader, per spec.md section
// 4.6. Callers invalidate the cached coordinator on a routing error via
// invalidateCoordinatorOnError.
// networkTimeout, when non-zero, overrides config_sync_timeout() for
// this call only.
func (w *Worker) dispatchCoordinatorLocked(req request, resp response, networkTimeout time.Duration) error {
	broker, err := w.coordinatorBrokerLocked()
	if err != nil {
		return err
	}
	timeout := w.cfg.SyncTimeout
	if networkTimeout > 0 {
		timeout = networkTimeout
	}
	apiVersion := int16(0)
	switch req.(type) {
	case *OffsetCommitRequest:
		apiVersion = 2
	case *OffsetFetchRequest:
		apiVersion = 1
	}
	frame, err := encodeRequest(req, apiVersion, w.correlationID)
	if err != nil {
		return err
	}
	respFrame, err := broker.sendSync(frame, timeout)
	w.correlationID++
	if err != nil {
		return err
	}
	if _, err := decodeResponse(respFrame, resp); err != nil {
		return err
	}
	return nil
}

// ConsumerGroupMetadata returns the cached (or freshly discovered)
// group-coordinator location, per spec.md section 4.5's
// consumer_group_metadata op.
func (w *Worker) ConsumerGroupMetadata() (ConsumerMetadata, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		return w.coordinatorMetadataLocked()
	})
	if err != nil {
		return ConsumerMetadata{}, err
	}
	return v.(ConsumerMetadata), nil
}

func (w *Worker) coordinatorMetadataLocked() (ConsumerMetadata, error) {
	if w.consumerMetadata.CoordinatorHost == "" {
		cm, err := w.discoverCoordinatorLocked()
		if err != nil {
			return ConsumerMetadata{}, err
		}
		w.consumerMetadata = cm
	}
	return w.consumerMetadata, nil
}

// JoinGroup routes a JoinGroup request to the group coordinator, per
// spec.md section 4.6.
func (w *Worker) JoinGroup(sessionTimeoutMs int32, memberID, protocolType string, protocols []GroupProtocol, networkTimeout time.Duration) (*JoinGroupResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &JoinGroupRequest{
			ConsumerGroup:  w.cfg.ConsumerGroup,
			SessionTimeout: sessionTimeoutMs,
			MemberID:       memberID,
			ProtocolType:   protocolType,
			GroupProtocols: protocols,
		}
		resp := &JoinGroupResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err == nil {
			err = errorForCode(resp.ErrorCode)
		}
		if err != nil {
			w.invalidateCoordinatorOnError(err)
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		if r, ok := v.(*JoinGroupResponse); ok {
			return r, err
		}
		return nil, err
	}
	return v.(*JoinGroupResponse), nil
}

// SyncGroup routes a SyncGroup request to the group coordinator.
func (w *Worker) SyncGroup(generationID int32, memberID string, assignments []SyncGroupAssignment, networkTimeout time.Duration) (*SyncGroupResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &SyncGroupRequest{
			ConsumerGroup:    w.cfg.ConsumerGroup,
			GenerationID:     generationID,
			MemberID:         memberID,
			GroupAssignments: assignments,
		}
		resp := &SyncGroupResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err == nil {
			err = errorForCode(resp.ErrorCode)
		}
		if err != nil {
			w.invalidateCoordinatorOnError(err)
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		if r, ok := v.(*SyncGroupResponse); ok {
			return r, err
		}
		return nil, err
	}
	return v.(*SyncGroupResponse), nil
}

// Heartbeat routes a Heartbeat request to the group coordinator.
func (w *Worker) Heartbeat(generationID int32, memberID string, networkTimeout time.Duration) error {
	_, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &HeartbeatRequest{ConsumerGroup: w.cfg.ConsumerGroup, GenerationID: generationID, MemberID: memberID}
		resp := &HeartbeatResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err == nil {
			err = errorForCode(resp.ErrorCode)
		}
		if err != nil {
			w.invalidateCoordinatorOnError(err)
		}
		return nil, err
	})
	return err
}

// LeaveGroup routes a LeaveGroup request to the group coordinator.
func (w *Worker) LeaveGroup(memberID string, networkTimeout time.Duration) error {
	_, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &LeaveGroupRequest{ConsumerGroup: w.cfg.ConsumerGroup, MemberID: memberID}
		resp := &LeaveGroupResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err == nil {
			err = errorForCode(resp.ErrorCode)
		}
		if err != nil {
			w.invalidateCoordinatorOnError(err)
		}
		return nil, err
	})
	return err
}

// OffsetCommit routes an OffsetCommit request to the group
// coordinator, per spec.md section 4.6.
func (w *Worker) OffsetCommit(generation int32, consumerID string, topics []OffsetCommitTopic, networkTimeout time.Duration) (*OffsetCommitResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &OffsetCommitRequest{
			ConsumerGroup:           w.cfg.ConsumerGroup,
			ConsumerGroupGeneration: generation,
			ConsumerID:              consumerID,
			Topics:                  topics,
		}
		resp := &OffsetCommitResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err != nil {
			w.invalidateCoordinatorOnError(err)
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		if r, ok := v.(*OffsetCommitResponse); ok {
			return r, err
		}
		return nil, err
	}
	return v.(*OffsetCommitResponse), nil
}

// OffsetFetch routes an OffsetFetch request to the group coordinator,
// per spec.md section 4.6.
func (w *Worker) OffsetFetch(topics []OffsetFetchTopic, networkTimeout time.Duration) (*OffsetFetchResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		req := &OffsetFetchRequest{ConsumerGroup: w.cfg.ConsumerGroup, Topics: topics}
		resp := &OffsetFetchResponse{}
		err := w.dispatchCoordinatorLocked(req, resp, networkTimeout)
		if err != nil {
			w.invalidateCoordinatorOnError(err)
			return resp, err
		}
		return resp, nil
	})
	if err != nil {
		if r, ok := v.(*OffsetFetchResponse); ok {
			return r, err
		}
		return nil, err
	}
	return v.(*OffsetFetchResponse), nil
}
