package kex

// HeartbeatResponse is the Heartbeat (api_key=12, v0) response.
type HeartbeatResponse struct {
	ErrorCode int16
}

func (r *HeartbeatResponse) decode(pd packetDecoder) error {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.ErrorCode = errCode
	return nil
}

func (r *HeartbeatResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)
	return nil
}
