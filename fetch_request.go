package kex

// FetchPartition requests messages for one partition starting at
// FetchOffset.
type FetchPartition struct {
	Partition   int32
	FetchOffset int64
	MaxBytes    int32
}

// FetchTopic groups partitions under a topic within a FetchRequest.
type FetchTopic struct {
	Topic      string
	Partitions []FetchPartition
}

// FetchRequest is the Fetch (api_key=1, v0) request.
type FetchRequest struct {
	ReplicaID   int32
	MaxWaitTime int32
	MinBytes    int32
	Topics      []FetchTopic
}

func (r *FetchRequest) key() int16 { return apiKeyFetch }

func (r *FetchRequest) encode(pe packetEncoder) error {
	pe.putInt32(r.ReplicaID)
	pe.putInt32(r.MaxWaitTime)
	pe.putInt32(r.MinBytes)
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
			pe.putInt64(p.FetchOffset)
			pe.putInt32(p.MaxBytes)
		}
	}
	return nil
}

func (r *FetchRequest) decode(pd packetDecoder) error {
	replicaID, err := pd.getInt32()
	if err != nil {
		return err
	}
	maxWait, err := pd.getInt32()
	if err != nil {
		return err
	}
	minBytes, err := pd.getInt32()
	if err != nil {
		return err
	}
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]FetchTopic, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]FetchPartition, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			offset, err := pd.getInt64()
			if err != nil {
				return err
			}
			maxBytes, err := pd.getInt32()
			if err != nil {
				return err
			}
			partitions[j] = FetchPartition{Partition: partition, FetchOffset: offset, MaxBytes: maxBytes}
		}
		topics[i] = FetchTopic{Topic: topic, Partitions: partitions}
	}
	r.ReplicaID = replicaID
	r.MaxWaitTime = maxWait
	r.MinBytes = minBytes
	r.Topics = topics
	return nil
}
