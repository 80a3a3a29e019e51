package trace

import "encoding/binary"

// EncodeHeader writes h in the 56-byte on-disk layout: version, session id,
// process id, thread id, system clock timestamp, steady clock timestamp,
// event count, and 4 bytes of zero padding.
func EncodeHeader(h Header) [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint64(buf[0:8], h.Version)
	binary.BigEndian.PutUint64(buf[8:16], h.SessionID)
	binary.BigEndian.PutUint64(buf[16:24], uint64(h.ProcessID))
	binary.BigEndian.PutUint64(buf[24:32], h.ThreadID)
	binary.BigEndian.PutUint64(buf[32:40], uint64(h.SystemClockTimestampNanos))
	binary.BigEndian.PutUint64(buf[40:48], uint64(h.SteadyClockTimestampNanos))
	binary.BigEndian.PutUint32(buf[48:52], uint32(h.EventCount))
	// buf[52:56] stays zero padding.
	return buf
}

// DecodeHeader is the inverse of EncodeHeader.
func DecodeHeader(buf [HeaderSize]byte) Header {
	return Header{
		Version:                   binary.BigEndian.Uint64(buf[0:8]),
		SessionID:                 binary.BigEndian.Uint64(buf[8:16]),
		ProcessID:                 int64(binary.BigEndian.Uint64(buf[16:24])),
		ThreadID:                  binary.BigEndian.Uint64(buf[24:32]),
		SystemClockTimestampNanos: int64(binary.BigEndian.Uint64(buf[32:40])),
		SteadyClockTimestampNanos: int64(binary.BigEndian.Uint64(buf[40:48])),
		EventCount:                int32(binary.BigEndian.Uint32(buf[48:52])),
	}
}

// EncodeEvent writes e in the 24-byte on-disk layout: steady clock
// timestamp, payload 1, type, payload 2.
func EncodeEvent(e Event) [EventSize]byte {
	var buf [EventSize]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.SteadyClockTimestampNanos))
	binary.BigEndian.PutUint64(buf[8:16], e.Payload1)
	binary.BigEndian.PutUint32(buf[16:20], uint32(e.Type))
	binary.BigEndian.PutUint32(buf[20:24], e.Payload2)
	return buf
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(buf [EventSize]byte) Event {
	return Event{
		SteadyClockTimestampNanos: int64(binary.BigEndian.Uint64(buf[0:8])),
		Payload1:                  binary.BigEndian.Uint64(buf[8:16]),
		Type:                      EventType(binary.BigEndian.Uint32(buf[16:20])),
		Payload2:                  binary.BigEndian.Uint32(buf[20:24]),
	}
}
