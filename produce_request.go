package kex

import "hash/crc32"

// ProduceMessage is a single uncompressed Kafka message: an optional
// key and a value. Per spec.md section 1's Non-goals, no compression
// codec is supported — only the uncompressed message-set layout.
type ProduceMessage struct {
	Key   []byte
	Value []byte
}

// ProducePartition is one partition's worth of messages within a
// ProduceRequest.
type ProducePartition struct {
	Partition int32
	Messages  []ProduceMessage
}

// ProduceTopic groups partitions under a topic within a ProduceRequest.
type ProduceTopic struct {
	Topic      string
	Partitions []ProducePartition
}

// ProduceRequest is the Produce (api_key=0, v0) request, per
// SPEC_FULL.md section 4.1.
type ProduceRequest struct {
	RequiredAcks int16
	Timeout      int32
	Topics       []ProduceTopic
}

func (r *ProduceRequest) key() int16 { return apiKeyProduce }

func (r *ProduceRequest) encode(pe packetEncoder) error {
	pe.putInt16(r.RequiredAcks)
	pe.putInt32(r.Timeout)
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

func (r *ProduceRequest) decode(pd packetDecoder) error {
	acks, err := pd.getInt16()
	if err != nil {
		return err
	}
	timeout, err := pd.getInt32()
	if err != nil {
		return err
	}
	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	topics := make([]ProduceTopic, topicCount)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		partitions := make([]ProducePartition, partitionCount)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
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
			partitions[j] = ProducePartition{Partition: partition, Messages: messages}
		}
		topics[i] = ProduceTopic{Topic: topic, Partitions: partitions}
	}
	r.RequiredAcks = acks
	r.Timeout = timeout
	r.Topics = topics
	return nil
}

// encodeMessageSet lays out each message as offset(int64, 0) |
// message_size(int32) | crc(int32) | magic(int8, 0) | attributes(int8,
// 0 — uncompressed) | key | value, concatenated with no outer count
// prefix (the message set's own byte length is carried by the
// enclosing putBytes call).
func encodeMessageSet(messages []ProduceMessage) ([]byte, error) {
	pe := newRealEncoder()
	for _, m := range messages {
		pe.putInt64(0) // offset, assigned by the broker
		body := newRealEncoder()
		body.putInt8(0) // magic byte
		body.putInt8(0) // attributes: uncompressed
		if err := body.putBytes(m.Key); err != nil {
			return nil, err
		}
		if err := body.putBytes(m.Value); err != nil {
			return nil, err
		}
		crc := crc32.ChecksumIEEE(body.bytes())
		pe.putInt32(int32(len(body.bytes()) + 4))
		pe.putInt32(int32(crc))
		if err := pe.putRawBytes(body.bytes()); err != nil {
			return nil, err
		}
	}
	return pe.bytes(), nil
}

func decodeMessageSet(buf []byte) ([]ProduceMessage, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	pd := newRealDecoder(buf)
	var messages []ProduceMessage
	for pd.remaining() > 0 {
		if pd.remaining() < 12 {
			break
		}
		if _, err := pd.getInt64(); err != nil { // offset
			return nil, err
		}
		size, err := pd.getInt32()
		if err != nil {
			return nil, err
		}
		if pd.remaining() < int(size) {
			return nil, ErrMalformed
		}
		if _, err := pd.getInt32(); err != nil { // crc, not validated
			return nil, err
		}
		if _, err := pd.getInt8(); err != nil { // magic
			return nil, err
		}
		if _, err := pd.getInt8(); err != nil { // attributes
			return nil, err
		}
		key, err := pd.getBytes()
		if err != nil {
			return nil, err
		}
		value, err := pd.getBytes()
		if err != nil {
			return nil, err
		}
		messages = append(messages, ProduceMessage{Key: key, Value: value})
	}
	return messages, nil
}
