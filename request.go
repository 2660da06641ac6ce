package kex

import "encoding/binary"

// API keys for every request kind this client issues, per spec.md
// section 4.1.
const (
	apiKeyProduce           int16 = 0
	apiKeyFetch             int16 = 1
	apiKeyOffset            int16 = 2
	apiKeyMetadata          int16 = 3
	apiKeyOffsetCommit      int16 = 8
	apiKeyOffsetFetch       int16 = 9
	apiKeyGroupCoordinator  int16 = 10
	apiKeyJoinGroup         int16 = 11
	apiKeyHeartbeat         int16 = 12
	apiKeyLeaveGroup        int16 = 13
	apiKeySyncGroup         int16 = 14
)

// clientID is the unchangeable client identifier stamped onto every
// request header, per spec.md section 6.
const clientID = "kafka_ex"

// request is implemented by every typed request body: its api key and
// its body encoder. The api_version is not part of the request; callers
// pass it to encodeRequest.
type request interface {
	key() int16
	encode(pe packetEncoder) error
}

// response is implemented by every typed response body.
type response interface {
	decode(pd packetDecoder) error
}

// encodeRequest stamps the common header (api_key, api_version,
// correlation_id, client_id) ahead of the request body and returns the
// full, length-prefixed frame ready to write to a socket.
func encodeRequest(req request, apiVersion int16, correlationID int32) ([]byte, error) {
	pe := newRealEncoder()
	pe.putInt16(req.key())
	pe.putInt16(apiVersion)
	pe.putInt32(correlationID)
	if err := pe.putString(clientID); err != nil {
		return nil, err
	}
	if err := req.encode(pe); err != nil {
		return nil, err
	}
	body := pe.bytes()

	framed := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(framed, uint32(len(body)))
	copy(framed[4:], body)
	return framed, nil
}

// decodeResponseHeader reads the leading int32 correlation_id that
// precedes every response body, per spec.md section 4.1.
func decodeResponseHeader(pd packetDecoder) (correlationID int32, err error) {
	return pd.getInt32()
}

// decodeResponse decodes a full response frame (header + body) into
// resp.
func decodeResponse(frame []byte, resp response) (correlationID int32, err error) {
	pd := newRealDecoder(frame)
	correlationID, err = decodeResponseHeader(pd)
	if err != nil {
		return 0, err
	}
	if err := resp.decode(pd); err != nil {
		return 0, err
	}
	return correlationID, nil
}
