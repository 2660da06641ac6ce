package kex

// OffsetCommitPartitionResponse is one partition's commit ack.
type OffsetCommitPartitionResponse struct {
	Partition int32
	ErrorCode int16
}

// OffsetCommitTopicResponse groups partition acks under a topic.
type OffsetCommitTopicResponse struct {
	Topic      string
	Partitions []OffsetCommitPartitionResponse
}

// OffsetCommitResponse is the OffsetCommit (api_key=8, v2) response.
type OffsetCommitResponse struct {
	Topics []OffsetCommitTopicResponse
}

func (r *OffsetCommitResponse) decode(pd packetDecoder) error {
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetCommitTopicResponse, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]OffsetCommitPartitionResponse, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			errCode, err := pd.getInt16()
			if err != nil {
				return err
			}
			partitions[j] = OffsetCommitPartitionResponse{Partition: partition, ErrorCode: errCode}
		}
		topics[i] = OffsetCommitTopicResponse{Topic: topic, Partitions: partitions}
	}
	r.Topics = topics
	return nil
}

func (r *OffsetCommitResponse) encode(pe packetEncoder) error {
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
			pe.putInt16(p.ErrorCode)
		}
	}
	return nil
}
