package kex

// MetadataResponse is the bit-exact Metadata response body from
// spec.md section 4.1: broker list followed by topic metadata list.
type MetadataResponse struct {
	Brokers []BrokerMetadata
	Topics  []TopicMetadata
}

func (r *MetadataResponse) decode(pd packetDecoder) error {
	brokerCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Brokers = make([]BrokerMetadata, brokerCount)
	for i := 0; i < brokerCount; i++ {
		nodeID, err := pd.getInt32()
		if err != nil {
			return err
		}
		host, err := pd.getString()
		if err != nil {
			return err
		}
		port, err := pd.getInt32()
		if err != nil {
			return err
		}
		r.Brokers[i] = BrokerMetadata{NodeID: nodeID, Host: host, Port: port}
	}

	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make([]TopicMetadata, topicCount)
	for i := 0; i < topicCount; i++ {
		topicErr, err := pd.getInt16()
		if err != nil {
			return err
		}
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitions, err := decodePartitionMetadata(pd)
		if err != nil {
			return err
		}
		r.Topics[i] = TopicMetadata{Topic: topic, ErrorCode: topicErr, Partitions: partitions}
	}
	return nil
}

// decodePartitionMetadata decodes one topic's partition_count-prefixed
// partition array. Per spec.md section 9's third Open Question, this
// always returns whatever partitions were decoded (nil slice, no
// error) for a zero-length array — the asymmetric "drop the residual
// buffer" behavior in the source is not reproduced since the spec
// itself says that path is unreachable.
func decodePartitionMetadata(pd packetDecoder) ([]PartitionMetadata, error) {
	n, err := pd.getArrayLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	partitions := make([]PartitionMetadata, n)
	for i := 0; i < n; i++ {
		errCode, err := pd.getInt16()
		if err != nil {
			return nil, err
		}
		partitionID, err := pd.getInt32()
		if err != nil {
			return nil, err
		}
		leader, err := pd.getInt32()
		if err != nil {
			return nil, err
		}
		replicas, err := decodeInt32Array(pd)
		if err != nil {
			return nil, err
		}
		isr, err := decodeInt32Array(pd)
		if err != nil {
			return nil, err
		}
		partitions[i] = PartitionMetadata{
			PartitionID: partitionID,
			ErrorCode:   errCode,
			Leader:      leader,
			Replicas:    replicas,
			ISR:         isr,
		}
	}
	return partitions, nil
}

func decodeInt32Array(pd packetDecoder) ([]int32, error) {
	n, err := pd.getArrayLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		v, err := pd.getInt32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *MetadataResponse) encode(pe packetEncoder) error {
	if err := pe.putArrayLength(len(r.Brokers)); err != nil {
		return err
	}
	for _, b := range r.Brokers {
		pe.putInt32(b.NodeID)
		if err := pe.putString(b.Host); err != nil {
			return err
		}
		pe.putInt32(b.Port)
	}

	if err := pe.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for _, t := range r.Topics {
		pe.putInt16(t.ErrorCode)
		if err := pe.putString(t.Topic); err != nil {
			return err
		}
		if err := encodePartitionMetadata(pe, t.Partitions); err != nil {
			return err
		}
	}
	return nil
}

func encodePartitionMetadata(pe packetEncoder, partitions []PartitionMetadata) error {
	if err := pe.putArrayLength(len(partitions)); err != nil {
		return err
	}
	for _, p := range partitions {
		pe.putInt16(p.ErrorCode)
		pe.putInt32(p.PartitionID)
		pe.putInt32(p.Leader)
		if err := encodeInt32Array(pe, p.Replicas); err != nil {
			return err
		}
		if err := encodeInt32Array(pe, p.ISR); err != nil {
			return err
		}
	}
	return nil
}

func encodeInt32Array(pe packetEncoder, vals []int32) error {
	if err := pe.putArrayLength(len(vals)); err != nil {
		return err
	}
	for _, v := range vals {
		pe.putInt32(v)
	}
	return nil
}

// snapshot converts the decoded response into a MetadataSnapshot, per
// spec.md section 3.
func (r *MetadataResponse) snapshot() *MetadataSnapshot {
	return &MetadataSnapshot{Brokers: r.Brokers, Topics: r.Topics}
}
