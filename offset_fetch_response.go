package kex

// OffsetFetchPartitionResponse is one partition's committed offset.
type OffsetFetchPartitionResponse struct {
	Partition int32
	Offset    int64
	Metadata  string
	ErrorCode int16
}

// OffsetFetchTopicResponse groups partition results under a topic.
type OffsetFetchTopicResponse struct {
	Topic      string
	Partitions []OffsetFetchPartitionResponse
}

// OffsetFetchResponse is the OffsetFetch (api_key=9, v1) response.
type OffsetFetchResponse struct {
	Topics []OffsetFetchTopicResponse
}

func (r *OffsetFetchResponse) decode(pd packetDecoder) error {
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetFetchTopicResponse, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]OffsetFetchPartitionResponse, partitionCount)
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
			errCode, err := pd.getInt16()
			if err != nil {
				return err
			}
			partitions[j] = OffsetFetchPartitionResponse{
				Partition: partition,
				Offset:    offset,
				Metadata:  metadata,
				ErrorCode: errCode,
			}
		}
		topics[i] = OffsetFetchTopicResponse{Topic: topic, Partitions: partitions}
	}
	r.Topics = topics
	return nil
}

func (r *OffsetFetchResponse) encode(pe packetEncoder) error {
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
			pe.putInt16(p.ErrorCode)
		}
	}
	return nil
}
