package kex

// OffsetCommitPartition carries one partition's offset to commit.
type OffsetCommitPartition struct {
	Partition int32
	Offset    int64
	Metadata  string
}

// OffsetCommitTopic groups partitions under a topic.
type OffsetCommitTopic struct {
	Topic      string
	Partitions []OffsetCommitPartition
}

// OffsetCommitRequest is the OffsetCommit (api_key=8, v2) request: the
// generation/consumer-id committing shape, per SPEC_FULL.md section
// 4.1 — no per-partition retention time (that is the v0 schema).
type OffsetCommitRequest struct {
	ConsumerGroup           string
	ConsumerGroupGeneration int32
	ConsumerID              string
	RetentionTime           int64
	Topics                  []OffsetCommitTopic
}

func (r *OffsetCommitRequest) key() int16 { return apiKeyOffsetCommit }

func (r *OffsetCommitRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.ConsumerGroup); err != nil {
		return err
	}
	pe.putInt32(r.ConsumerGroupGeneration)
	if err := pe.putString(r.ConsumerID); err != nil {
		return err
	}
	pe.putInt64(r.RetentionTime)
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
			pe.putInt64(p.Offset)
			if err := pe.putString(p.Metadata); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *OffsetCommitRequest) decode(pd packetDecoder) error {
	group, err := pd.getString()
	if err != nil {
		return err
	}
	generation, err := pd.getInt32()
	if err != nil {
		return err
	}
	consumerID, err := pd.getString()
	if err != nil {
		return err
	}
	retention, err := pd.getInt64()
	if err != nil {
		return err
	}
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetCommitTopic, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]OffsetCommitPartition, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			offset, err := pd.getInt64()
			if err != nil {
				return err
			}
			metadata, err := pd.getString()
			if err != nil {
				return err
			}
			partitions[j] = OffsetCommitPartition{Partition: partition, Offset: offset, Metadata: metadata}
		}
		topics[i] = OffsetCommitTopic{Topic: topic, Partitions: partitions}
	}
	r.ConsumerGroup = group
	r.ConsumerGroupGeneration = generation
	r.ConsumerID = consumerID
	r.RetentionTime = retention
	r.Topics = topics
	return nil
}
