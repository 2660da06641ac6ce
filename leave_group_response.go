package kex

// LeaveGroupResponse is the LeaveGroup (api_key=13, v0) response.
type LeaveGroupResponse struct {
	ErrorCode int16
}

func (r *LeaveGroupResponse) decode(pd packetDecoder) error {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.ErrorCode = errCode
	return nil
}

func (r *LeaveGroupResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)
	return nil
}
