package journal

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
)

type frameHeader struct {
	typ    RecordType
	seq    uint64
	time   int64
	length uint32
}

func (h frameHeader) put(b []byte) {
	b[0] = byte(h.typ)
	binary.BigEndian.PutUint64(b[1:9], h.seq)
	binary.BigEndian.PutUint64(b[9:17], uint64(h.time))
	binary.BigEndian.PutUint32(b[17:21], h.length)
}

func parseHeader(b []byte) frameHeader {
	return frameHeader{
		typ:    RecordType(b[0]),
		seq:    binary.BigEndian.Uint64(b[1:9]),
		time:   int64(binary.BigEndian.Uint64(b[9:17])),
		length: binary.BigEndian.Uint32(b[17:21]),
	}
}

func encodeFrame(r *Record) []byte {
	end := headerSize + len(r.Data)
	buf := make([]byte, end+crcSize)

	frameHeader{typ: r.Type, seq: r.Seq, time: r.Time, length: uint32(len(r.Data))}.put(buf)
	copy(buf[headerSize:], r.Data)
	binary.BigEndian.PutUint32(buf[end:], checksum(buf[:end]))
	return buf
}

// readFrame decodes the next frame. A frame cut short returns
// io.ErrUnexpectedEOF; a clean end of input returns io.EOF.
func readFrame(r *bufio.Reader) (*Record, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	h := parseHeader(buf)

	buf = append(buf, make([]byte, int(h.length)+crcSize)...)
	if _, err := io.ReadFull(r, buf[headerSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	end := headerSize + int(h.length)
	if checksum(buf[:end]) != binary.BigEndian.Uint32(buf[end:]) {
		return nil, errors.Wrapf(ErrCorrupt, "crc mismatch at seq %d", h.seq)
	}

	return &Record{
		Type: h.typ,
		Seq:  h.seq,
		Time: h.time,
		Data: buf[headerSize:end],
	}, nil
}
