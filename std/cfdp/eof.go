package cfdp

import (
	"encoding/binary"
	"fmt"

	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

// EofInfo holds the fields of an EOF PDU.
type EofInfo struct {
	ConditionCode ConditionCode
	Checksum      uint32
	FileSize      FileSize
	// FaultLocation is only encoded when ConditionCode is not NoError.
	FaultLocation optional.Optional[EntityIdTlv]
}

func (e *EofInfo) payloadSize(conf *PduConfig) int {
	n := 1 + 4 + fileSizeLen(conf)
	if loc, ok := e.faultLocation(); ok {
		n += OptionSize(loc)
	}
	return n
}

func (e *EofInfo) faultLocation() (EntityIdTlv, bool) {
	if e.ConditionCode == NoError {
		return EntityIdTlv{}, false
	}
	return e.FaultLocation.Get()
}

type EofPduCreator struct {
	conf *PduConfig
	Info *EofInfo
}

func NewEofPduCreator(conf *PduConfig, info *EofInfo) *EofPduCreator {
	return &EofPduCreator{conf: conf, Info: info}
}

func (c *EofPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, c.Info.payloadSize(c.conf))
}

func (c *EofPduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, c.Info.payloadSize(c.conf))
	if err != nil {
		return 0, err
	}
	fs, err := wireFileSize(c.conf, c.Info.FileSize)
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectiveEof)
	if err != nil {
		return 0, err
	}

	buf[pos] = uint8(c.Info.ConditionCode) << 4
	pos++
	binary.BigEndian.PutUint32(buf[pos:], c.Info.Checksum)
	pos += 4
	n, _ := fs.Serialize(buf[pos:])
	pos += n
	if loc, ok := c.Info.faultLocation(); ok {
		n, err = EncodeOption(buf[pos:], loc)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}

type EofPduReader struct {
	FileDirectiveReader
	Info EofInfo
}

func ParseEofPdu(buf []byte) (*EofPduReader, error) {
	r, err := parseDirective(buf, DirectiveEof)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	if len(payload) < 5 {
		return nil, fmt.Errorf("%w: EOF condition code or checksum missing", ErrInvalidPduDataFieldLen)
	}
	info := EofInfo{
		ConditionCode: ConditionCode(payload[0] >> 4),
		Checksum:      binary.BigEndian.Uint32(payload[1:5]),
	}
	pos := 5
	fs, n, err := r.readFileSize(payload[pos:])
	if err != nil {
		return nil, err
	}
	info.FileSize = fs
	pos += n

	if pos < len(payload) {
		if info.ConditionCode == NoError {
			return nil, fmt.Errorf("%w: fault location with condition %s", ErrInvalidTlvType, info.ConditionCode)
		}
		raw, _, err := ParseTlv(payload[pos:])
		if err != nil {
			return nil, subfieldErr(ErrInvalidPduDataFieldLen, "fault location", err)
		}
		if raw.Type != TlvEntityId {
			return nil, fmt.Errorf("%w: expected entity ID TLV, got %s", ErrInvalidTlvType, raw.Type)
		}
		loc, err := decodeEntityIdTlv(raw.Value)
		if err != nil {
			return nil, err
		}
		info.FaultLocation = optional.Some(loc)
	}
	return &EofPduReader{FileDirectiveReader: r, Info: info}, nil
}
