package kex

// JoinGroupMember is one group member as seen by the elected leader.
type JoinGroupMember struct {
	MemberID string
	Metadata []byte
}

// JoinGroupResponse is the JoinGroup (api_key=11, v0) response.
type JoinGroupResponse struct {
	ErrorCode    int16
	GenerationID int32
	GroupProtocol string
	LeaderID     string
	MemberID     string
	Members      []JoinGroupMember
}

func (r *JoinGroupResponse) decode(pd packetDecoder) error {
	errCode, err := pd.getInt16()
	if err != nil {
		return err
	}
	generation, err := pd.getInt32()
	if err != nil {
		return err
	}
	protocol, err := pd.getString()
	if err != nil {
		return err
	}
	leaderID, err := pd.getString()
	if err != nil {
		return err
	}
	memberID, err := pd.getString()
	if err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	members := make([]JoinGroupMember, n)
	for i := 0; i < n; i++ {
		id, err := pd.getString()
		if err != nil {
			return err
		}
		metadata, err := pd.getBytes()
		if err != nil {
			return err
		}
		members[i] = JoinGroupMember{MemberID: id, Metadata: metadata}
	}
	r.ErrorCode = errCode
	r.GenerationID = generation
	r.GroupProtocol = protocol
	r.LeaderID = leaderID
	r.MemberID = memberID
	r.Members = members
	return nil
}

func (r *JoinGroupResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)
	pe.putInt32(r.GenerationID)
	if err := pe.putString(r.GroupProtocol); err != nil {
		return err
	}
	if err := pe.putString(r.LeaderID); err != nil {
		return err
	}
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(r.Members)); err != nil {
		return err
	}
	for _, m := range r.Members {
		if err := pe.putString(m.MemberID); err != nil {
			return err
		}
		if err := pe.putBytes(m.Metadata); err != nil {
			return err
		}
	}
	return nil
}

// isLeader reports whether this member was elected group leader, per
// the JoinGroup response's leader_id/member_id comparison convention.
func (r *JoinGroupResponse) isLeader() bool {
	return r.LeaderID == r.MemberID
}
