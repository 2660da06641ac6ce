package kex

// OffsetPartitionResponse is one partition's offsets within an
// OffsetResponse.
type OffsetPartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offsets   []int64
}

// OffsetTopicResponse groups partition offsets under a topic.
type OffsetTopicResponse struct {
	Topic      string
	Partitions []OffsetPartitionResponse
}

// OffsetResponse is the Offset/ListOffsets (api_key=2, v0) response.
type OffsetResponse struct {
	Topics []OffsetTopicResponse
}

func (r *OffsetResponse) decode(pd packetDecoder) error {
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetTopicResponse, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]OffsetPartitionResponse, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			errCode, err := pd.getInt16()
			if err != nil {
				return err
			}
			offsets, err := decodeInt64Array(pd)
			if err != nil {
				return err
			}
			partitions[j] = OffsetPartitionResponse{Partition: partition, ErrorCode: errCode, Offsets: offsets}
		}
		topics[i] = OffsetTopicResponse{Topic: topic, Partitions: partitions}
	}
	r.Topics = topics
	return nil
}

func (r *OffsetResponse) encode(pe packetEncoder) error {
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
			if err := encodeInt64Array(pe, p.Offsets); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeInt64Array(pd packetDecoder) ([]int64, error) {
	n, err := pd.getArrayLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := pd.getInt64()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeInt64Array(pe packetEncoder, vals []int64) error {
	if err := pe.putArrayLength(len(vals)); err != nil {
		return err
	}
	for _, v := range vals {
		pe.putInt64(v)
	}
	return nil
}
