package kex

// OffsetFetchTopic names the partitions of a topic to fetch committed
// offsets for.
type OffsetFetchTopic struct {
	Topic      string
	Partitions []int32
}

// OffsetFetchRequest is the OffsetFetch (api_key=9, v1) request.
type OffsetFetchRequest struct {
	ConsumerGroup string
	Topics        []OffsetFetchTopic
}

func (r *OffsetFetchRequest) key() int16 { return apiKeyOffsetFetch }

func (r *OffsetFetchRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.ConsumerGroup); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for _, t := range r.Topics {
		if err := pe.putString(t.Topic); err != nil {
			return err
		}
		if err := encodeInt32Array(pe, t.Partitions); err != nil {
			return err
		}
	}
	return nil
}

func (r *OffsetFetchRequest) decode(pd packetDecoder) error {
	group, err := pd.getString()
	if err != nil {
		return err
	}
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]OffsetFetchTopic, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitions, err := decodeInt32Array(pd)
		if err != nil {
			return err
		}
		topics[i] = OffsetFetchTopic{Topic: topic, Partitions: partitions}
	}
	r.ConsumerGroup = group
	r.Topics = topics
	return nil
}
