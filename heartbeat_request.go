package kex

// HeartbeatRequest is the Heartbeat (api_key=12, v0) request.
type HeartbeatRequest struct {
	ConsumerGroup string
	GenerationID  int32
	MemberID      string
}

func (r *HeartbeatRequest) key() int16 { return apiKeyHeartbeat }

func (r *HeartbeatRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.ConsumerGroup); err != nil {
		return err
	}
	pe.putInt32(r.GenerationID)
	return pe.putString(r.MemberID)
}

func (r *HeartbeatRequest) decode(pd packetDecoder) error {
	group, err := pd.getString()
	if err != nil {
		return err
	}
	generation, err := pd.getInt32()
	if err != nil {
		return err
	}
	memberID, err := pd.getString()
	if err != nil {
		return err
	}
	r.ConsumerGroup = group
	r.GenerationID = generation
	r.MemberID = memberID
	return nil
}
