package kex

// ProducePartitionResponse is one partition's ack within a
// ProduceResponse.
type ProducePartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offset    int64
}

// ProduceTopicResponse groups partition acks under a topic.
type ProduceTopicResponse struct {
	Topic      string
	Partitions []ProducePartitionResponse
}

// ProduceResponse is the Produce (api_key=0, v0) response.
type ProduceResponse struct {
	Topics []ProduceTopicResponse
}

func (r *ProduceResponse) decode(pd packetDecoder) error {
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]ProduceTopicResponse, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]ProducePartitionResponse, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			errCode, err := pd.getInt16()
			if err != nil {
				return err
			}
			offset, err := pd.getInt64()
			if err != nil {
				return err
			}
			partitions[j] = ProducePartitionResponse{Partition: partition, ErrorCode: errCode, Offset: offset}
		}
		topics[i] = ProduceTopicResponse{Topic: topic, Partitions: partitions}
	}
	r.Topics = topics
	return nil
}

func (r *ProduceResponse) encode(pe packetEncoder) error {
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
			pe.putInt64(p.Offset)
		}
	}
	return nil
}

// firstPartition returns the single-partition ack a Produce call
// usually cares about, per spec.md section 4.5's Produce-specific path
// ("the single-partition response reports NoError and an offset").
func (r *ProduceResponse) firstPartition() (ProducePartitionResponse, bool) {
	if len(r.Topics) == 0 || len(r.Topics[0].Partitions) == 0 {
		return ProducePartitionResponse{}, false
	}
	return r.Topics[0].Partitions[0], true
}
