package kex

// GroupProtocol is one protocol name/metadata pair a member offers
// during JoinGroup.
type GroupProtocol struct {
	Name     string
	Metadata []byte
}

// JoinGroupRequest is the JoinGroup (api_key=11, v0) request.
type JoinGroupRequest struct {
	ConsumerGroup  string
	SessionTimeout int32
	MemberID       string
	ProtocolType   string
	GroupProtocols []GroupProtocol
}

func (r *JoinGroupRequest) key() int16 { return apiKeyJoinGroup }

func (r *JoinGroupRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.ConsumerGroup); err != nil {
		return err
	}
	pe.putInt32(r.SessionTimeout)
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}
	if err := pe.putString(r.ProtocolType); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(r.GroupProtocols)); err != nil {
		return err
	}
	for _, p := range r.GroupProtocols {
		if err := pe.putString(p.Name); err != nil {
			return err
		}
		if err := pe.putBytes(p.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func (r *JoinGroupRequest) decode(pd packetDecoder) error {
	group, err := pd.getString()
	if err != nil {
		return err
	}
	timeout, err := pd.getInt32()
	if err != nil {
		return err
	}
	memberID, err := pd.getString()
	if err != nil {
		return err
	}
	protocolType, err := pd.getString()
	if err != nil {
		return err
	}
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	protocols := make([]GroupProtocol, n)
	for i := 0; i < n; i++ {
		name, err := pd.getString()
		if err != nil {
			return err
		}
		metadata, err := pd.getBytes()
		if err != nil {
			return err
		}
		protocols[i] = GroupProtocol{Name: name, Metadata: metadata}
	}
	r.ConsumerGroup = group
	r.SessionTimeout = timeout
	r.MemberID = memberID
	r.ProtocolType = protocolType
	r.GroupProtocols = protocols
	return nil
}
