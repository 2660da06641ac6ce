package kex

// SyncGroupAssignment is the leader's per-member assignment payload.
type SyncGroupAssignment struct {
	MemberID   string
	Assignment []byte
}

// SyncGroupRequest is the SyncGroup (api_key=14, v0) request. Only the
// elected leader populates GroupAssignments; other members send an
// empty slice.
type SyncGroupRequest struct {
	ConsumerGroup    string
	GenerationID     int32
	MemberID         string
	GroupAssignments []SyncGroupAssignment
}

func (r *SyncGroupRequest) key() int16 { return apiKeySyncGroup }

func (r *SyncGroupRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.ConsumerGroup); err != nil {
		return err
	}
	pe.putInt32(r.GenerationID)
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}
	if err := pe.putArrayLength(len(r.GroupAssignments)); err != nil {
		return err
	}
	for _, a := range r.GroupAssignments {
		if err := pe.putString(a.MemberID); err != nil {
			return err
		}
		if err := pe.putBytes(a.Assignment); err != nil {
			return err
		}
	}
	return nil
}

func (r *SyncGroupRequest) decode(pd packetDecoder) error {
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
	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	assignments := make([]SyncGroupAssignment, n)
	for i := 0; i < n; i++ {
		id, err := pd.getString()
		if err != nil {
			return err
		}
		assignment, err := pd.getBytes()
		if err != nil {
			return err
		}
		assignments[i] = SyncGroupAssignment{MemberID: id, Assignment: assignment}
	}
	r.ConsumerGroup = group
	r.GenerationID = generation
	r.MemberID = memberID
	r.GroupAssignments = assignments
	return nil
}
