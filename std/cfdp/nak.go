package cfdp

import (
	"errors"
	"fmt"

	"github.com/kaidokert/fsfw-sub000/std/types/bounded"
)

// SegmentRequest asks the sender to retransmit the bytes in [Start, End).
type SegmentRequest struct {
	Start FileSize
	End   FileSize
}

// NakInfo holds the fields of a NAK PDU.
type NakInfo struct {
	StartOfScope    FileSize
	EndOfScope      FileSize
	SegmentRequests []SegmentRequest
}

func (n *NakInfo) payloadSize(conf *PduConfig) int {
	return (2 + 2*len(n.SegmentRequests)) * fileSizeLen(conf)
}

type NakPduCreator struct {
	conf *PduConfig
	Info *NakInfo
}

func NewNakPduCreator(conf *PduConfig, info *NakInfo) *NakPduCreator {
	return &NakPduCreator{conf: conf, Info: info}
}

func (c *NakPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, c.Info.payloadSize(c.conf))
}

func (c *NakPduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, c.Info.payloadSize(c.conf))
	if err != nil {
		return 0, err
	}
	sizes := make([]FileSize, 0, 2+2*len(c.Info.SegmentRequests))
	sizes = append(sizes, c.Info.StartOfScope, c.Info.EndOfScope)
	for _, s := range c.Info.SegmentRequests {
		sizes = append(sizes, s.Start, s.End)
	}
	for i, fs := range sizes {
		if sizes[i], err = wireFileSize(c.conf, fs); err != nil {
			return 0, err
		}
	}

	pos, err := serializeDirective(buf, h, DirectiveNak)
	if err != nil {
		return 0, err
	}
	for _, fs := range sizes {
		n, _ := fs.Serialize(buf[pos:])
		pos += n
	}
	return pos, nil
}

type NakPduReader struct {
	FileDirectiveReader
	Info NakInfo
}

// ParseNakPdu parses a NAK PDU holding at most maxSegmentRequests segment
// requests. A maxSegmentRequests of zero or less accepts any number.
func ParseNakPdu(buf []byte, maxSegmentRequests int) (*NakPduReader, error) {
	r, err := parseDirective(buf, DirectiveNak)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	info := NakInfo{}
	pos := 0

	fs, n, err := r.readFileSize(payload[pos:])
	if err != nil {
		return nil, err
	}
	info.StartOfScope = fs
	pos += n
	if fs, n, err = r.readFileSize(payload[pos:]); err != nil {
		return nil, err
	}
	info.EndOfScope = fs
	pos += n

	pairLen := 2 * fileSizeLen(&PduConfig{LargeFile: r.LargeFile()})
	if (len(payload)-pos)%pairLen != 0 {
		return nil, fmt.Errorf("%w: incomplete segment request", ErrNakCantParseOptions)
	}
	reqs := bounded.New[SegmentRequest](maxSegmentRequests)
	for pos < len(payload) {
		s := SegmentRequest{}
		n, _ = s.Start.Deserialize(payload[pos:], r.LargeFile())
		pos += n
		n, _ = s.End.Deserialize(payload[pos:], r.LargeFile())
		pos += n
		if err := reqs.Push(s); err != nil {
			if errors.Is(err, bounded.ErrCapacityExceeded) {
				return nil, fmt.Errorf("%w: more than %d segment requests", ErrNakCantParseOptions, maxSegmentRequests)
			}
			return nil, err
		}
	}
	info.SegmentRequests = reqs.Items()

	return &NakPduReader{FileDirectiveReader: r, Info: info}, nil
}
