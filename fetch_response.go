package kex

// FetchPartitionResponse is one partition's fetched messages.
type FetchPartitionResponse struct {
	Partition     int32
	ErrorCode     int16
	HighWatermark int64
	Messages      []ProduceMessage
}

// FetchTopicResponse groups partition results under a topic.
type FetchTopicResponse struct {
	Topic      string
	Partitions []FetchPartitionResponse
}

// FetchResponse is the Fetch (api_key=1, v0) response. It reuses the
// same uncompressed message-set layout as Produce, per spec.md
// section 1's Non-goals.
type FetchResponse struct {
	Topics []FetchTopicResponse
}

func (r *FetchResponse) decode(pd packetDecoder) error {
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]FetchTopicResponse, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]FetchPartitionResponse, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			errCode, err := pd.getInt16()
			if err != nil {
				return err
			}
			hw, err := pd.getInt64()
			if err != nil {
				return err
			}
			setBytes, err := pd.getBytes()
			if err != nil {
				return err
			}
			messages, err := decodeMessageSet(setBytes)
			if err != nil {
				return err
			}
			partitions[j] = FetchPartitionResponse{
				Partition:     partition,
				ErrorCode:     errCode,
				HighWatermark: hw,
				Messages:      messages,
			}
		}
		topics[i] = FetchTopicResponse{Topic: topic, Partitions: partitions}
	}
	r.Topics = topics
	return nil
}

func (r *FetchResponse) encode(pe packetEncoder) error {
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
			pe.putInt64(p.HighWatermark)
			setBytes, err := encodeMessageSet(p.Messages)
			if err != nil {
				return err
			}
			if err := pe.putBytes(setBytes); err != nil {
				return err
			}
		}
	}
	return nil
}
