package kex

// Produce implements spec.md section 4.5's Produce-specific path. When
// requiredAcks is 0 it fires the frame via sendAsync and returns
// immediately without a decoded response. Otherwise it awaits and
// decodes the broker's reply and returns the single-partition ack the
// caller asked about.
func (w *Worker) Produce(topic string, partition int32, requiredAcks int16, timeoutMs int32, messages []ProduceMessage) (ProducePartitionResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		broker, err := w.resolveLeaderLocked(topic, partition)
		if err != nil {
			return ProducePartitionResponse{}, err
		}
		if broker == nil {
			// Per spec.md section 9's second Open Question, the Produce
			// path surfaces LeaderNotAvailable on a post-refresh miss,
			// not TopicNotFound (which the Offset path uses).
			return ProducePartitionResponse{}, ErrLeaderNotAvailable
		}

		req := &ProduceRequest{
			RequiredAcks: requiredAcks,
			Timeout:      timeoutMs,
			Topics: []ProduceTopic{{
				Topic: topic,
				Partitions: []ProducePartition{{
					Partition: partition,
					Messages:  messages,
				}},
			}},
		}

		if requiredAcks == 0 {
			frame, err := encodeRequest(req, 0, w.correlationID)
			if err != nil {
				return ProducePartitionResponse{}, err
			}
			broker.sendAsync(frame)
			w.correlationID++
			return ProducePartitionResponse{Partition: partition}, nil
		}

		resp := &ProduceResponse{}
		if err := w.dispatchLocked(broker, req, resp); err != nil {
			return ProducePartitionResponse{}, err
		}
		ack, ok := resp.firstPartition()
		if !ok {
			return ProducePartitionResponse{}, ErrMalformed
		}
		if err := errorForCode(ack.ErrorCode); err != nil {
			return ack, err
		}
		return ack, nil
	})
	if err != nil {
		if pr, ok := v.(ProducePartitionResponse); ok {
			return pr, err
		}
		return ProducePartitionResponse{}, err
	}
	return v.(ProducePartitionResponse), nil
}

// Fetch resolves the partition leader and issues a Fetch request for
// it, per spec.md section 4.5's generic network_request path.
func (w *Worker) Fetch(topic string, partition int32, fetchOffset int64, maxBytes int32) (FetchPartitionResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		broker, err := w.resolveLeaderLocked(topic, partition)
		if err != nil {
			return FetchPartitionResponse{}, err
		}
		if broker == nil {
			return FetchPartitionResponse{}, ErrTopicNotFound
		}
		req := &FetchRequest{
			ReplicaID:   -1,
			MaxWaitTime: int32(defaultSyncTimeout.Milliseconds()),
			MinBytes:    MinBytes,
			Topics: []FetchTopic{{
				Topic: topic,
				Partitions: []FetchPartition{{
					Partition:   partition,
					FetchOffset: fetchOffset,
					MaxBytes:    maxBytes,
				}},
			}},
		}
		resp := &FetchResponse{}
		if err := w.dispatchLocked(broker, req, resp); err != nil {
			return FetchPartitionResponse{}, err
		}
		if len(resp.Topics) == 0 || len(resp.Topics[0].Partitions) == 0 {
			return FetchPartitionResponse{}, ErrMalformed
		}
		part := resp.Topics[0].Partitions[0]
		if err := errorForCode(part.ErrorCode); err != nil {
			return part, err
		}
		return part, nil
	})
	if err != nil {
		if fr, ok := v.(FetchPartitionResponse); ok {
			return fr, err
		}
		return FetchPartitionResponse{}, err
	}
	return v.(FetchPartitionResponse), nil
}

// Offset implements spec.md section 4.5's Offset path: look up the
// leader, refresh once and retry on a miss, and return TopicNotFound
// if it is still unresolved.
func (w *Worker) Offset(topic string, partition int32, atTime int64, maxNumberOfOffsets int32) (OffsetPartitionResponse, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		broker, err := w.resolveLeaderLocked(topic, partition)
		if err != nil {
			return OffsetPartitionResponse{}, err
		}
		if broker == nil {
			return OffsetPartitionResponse{}, ErrTopicNotFound
		}
		req := &OffsetRequest{
			ReplicaID: -1,
			Topics: []OffsetTopicRequest{{
				Topic: topic,
				Partitions: []OffsetPartitionRequest{{
					Partition:          partition,
					Time:               atTime,
					MaxNumberOfOffsets: maxNumberOfOffsets,
				}},
			}},
		}
		resp := &OffsetResponse{}
		if err := w.dispatchLocked(broker, req, resp); err != nil {
			return OffsetPartitionResponse{}, err
		}
		if len(resp.Topics) == 0 || len(resp.Topics[0].Partitions) == 0 {
			return OffsetPartitionResponse{}, ErrMalformed
		}
		part := resp.Topics[0].Partitions[0]
		if err := errorForCode(part.ErrorCode); err != nil {
			return part, err
		}
		return part, nil
	})
	if err != nil {
		if or, ok := v.(OffsetPartitionResponse); ok {
			return or, err
		}
		return OffsetPartitionResponse{}, err
	}
	return v.(OffsetPartitionResponse), nil
}

// Metadata directly invokes the refresher with the caller-provided
// topic filter and returns the snapshot, per spec.md section 4.5's
// Metadata path. An empty filter means "all topics".
func (w *Worker) Metadata(topics []string) (*MetadataSnapshot, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		return w.updateMetadataLocked(topics)
	})
	if err != nil {
		return nil, err
	}
	return v.(*MetadataSnapshot), nil
}

// TopicMetadata returns the cached TopicMetadata for topic, refreshing
// once on a cache miss before giving up, the same retry shape
// resolveLeaderLocked uses for a single partition. It returns
// ErrTopicNotFound if the topic is still unknown after the refresh.
func (w *Worker) TopicMetadata(topic string) (*TopicMetadata, error) {
	v, err := w.submit(func(w *Worker) (interface{}, error) {
		return w.topicMetadataLocked(topic)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TopicMetadata), nil
}

// topicMetadataLocked is TopicMetadata's body, split out so it can run
// directly inside the mailbox loop (or, in tests, synchronously against
// a hand-built Worker).
func (w *Worker) topicMetadataLocked(topic string) (*TopicMetadata, error) {
	if tm := w.metadata.topicMetadata(topic); tm != nil {
		return tm, nil
	}
	if _, err := w.updateMetadataLocked([]string{topic}); err != nil {
		return nil, err
	}
	if tm := w.metadata.topicMetadata(topic); tm != nil {
		return tm, nil
	}
	return nil, ErrTopicNotFound
}

// RefreshMetadata forces an on-demand metadata refresh, coalescing
// concurrent callers into a single mailbox round trip via
// metadataCoalescer, per SPEC_FULL.md section 4.4: the mailbox already
// serializes dispatch, but independent goroutines racing to call this
// from outside the mailbox would otherwise enqueue one redundant
// refresh op each.
func (w *Worker) RefreshMetadata(topics []string) (*MetadataSnapshot, error) {
	return w.coalescer.do(func() (*MetadataSnapshot, error) {
		return w.Metadata(topics)
	})
}
