package kex

// OffsetPartitionRequest asks for available offsets of one partition,
// per the ListOffsets v0 shape.
type OffsetPartitionRequest struct {
	Partition          int32
	Time               int64
	MaxNumberOfOffsets int32
}

// OffsetTopicRequest groups partitions under a topic.
type OffsetTopicRequest struct {
	Topic      string
	Partitions []OffsetPartitionRequest
}

// OffsetRequest is the Offset/ListOffsets (api_key=2, v0) request.
type OffsetRequest struct {
	ReplicaID int32
	Topics    []OffsetTopicRequest
}

func (r *OffsetRequest) key() int16 { return apiKeyOffset }

func (r *OffsetRequest) encode(pe packetEncoder) error {
	pe.putInt32(r.ReplicaID)
	if err := pe.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for _, t := range r.Topics {
		if err := pe.putString(t.Topic); err != nil {
			return err
		}
		if err := pe.putArrayLength(len(t.Partitions)); err != nil {
			return err
		}
		for _, p := range t.Partitions {
			pe.putInt32(p.Partition)
			pe.putInt64(p.Time)
			pe.putInt32(p.MaxNumberOfOffsets)
		}
	}
	return nil
}

func (r *OffsetRequest) decode(pd packetDecoder) error {
	replicaID, err := pd.getInt32()
	if err != nil {
		return err
	}
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetTopicRequest, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]OffsetPartitionRequest, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			t, err := pd.getInt64()
			if err != nil {
				return err
			}
			maxOffsets, err := pd.getInt32()
			if err != nil {
				return err
			}
			partitions[j] = OffsetPartitionRequest{Partition: partition, Time: t, MaxNumberOfOffsets: maxOffsets}
		}
		topics[i] = OffsetTopicRequest{Topic: topic, Partitions: partitions}
	}
	r.ReplicaID = replicaID
	r.Topics = topics
	return nil
}
