package kex

// SyncGroupResponse is the SyncGroup (api_key=14, v0) response.
type SyncGroupResponse struct {
	ErrorCode      int16
	MemberAssignment []byte
}

func (r *SyncGroupResponse) decode(pd packetDecoder) error {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	assignment, err := pd.getBytes()
	if err != nil {
		return err
	}
	r.ErrorCode = errCode
	r.MemberAssignment = assignment
	return nil
}

func (r *SyncGroupResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)
	return pe.putBytes(r.MemberAssignment)
}
