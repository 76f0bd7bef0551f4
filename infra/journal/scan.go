package journal

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// maxSeqInSegment reads headers only and skips payloads. A torn tail ends
// the scan.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	hdr := make([]byte, headerSize)
	var highest uint64
	for {
		_, err := io.ReadFull(r, hdr)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return highest, nil
		}
		if err != nil {
			return highest, err
		}

		h := parseHeader(hdr)
		highest = max(highest, h.seq)
		if _, err := r.Discard(int(h.length) + crcSize); err != nil {
			if errors.Is(err, io.EOF) {
				return highest, nil
			}
			return highest, err
		}
	}
}
