package cfdp

import (
	"errors"
	"fmt"

	"github.com/kaidokert/fsfw-sub000/std/types/bounded"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

// FinishedInfo holds the fields of a Finished PDU.
type FinishedInfo struct {
	ConditionCode ConditionCode
	DeliveryCode  DeliveryCode
	FileStatus    FileStatus
	FsResponses   []FilestoreResponseTlv
	// FaultLocation is not encoded for NoError and UnsupportedChecksumType.
	FaultLocation optional.Optional[EntityIdTlv]
}

// carriesFaultLocation reports whether a fault location may follow for cc.
func carriesFaultLocation(cc ConditionCode) bool {
	return cc != NoError && cc != UnsupportedChecksumType
}

func (f *FinishedInfo) faultLocation() (EntityIdTlv, bool) {
	if !carriesFaultLocation(f.ConditionCode) {
		return EntityIdTlv{}, false
	}
	return f.FaultLocation.Get()
}

func (f *FinishedInfo) payloadSize() int {
	n := 1
	for _, r := range f.FsResponses {
		n += OptionSize(r)
	}
	if loc, ok := f.faultLocation(); ok {
		n += OptionSize(loc)
	}
	return n
}

type FinishedPduCreator struct {
	conf *PduConfig
	Info *FinishedInfo
}

func NewFinishedPduCreator(conf *PduConfig, info *FinishedInfo) *FinishedPduCreator {
	return &FinishedPduCreator{conf: conf, Info: info}
}

func (c *FinishedPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, c.Info.payloadSize())
}

func (c *FinishedPduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, c.Info.payloadSize())
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectiveFinished)
	if err != nil {
		return 0, err
	}
	buf[pos] = uint8(c.Info.ConditionCode)<<4 |
		uint8(c.Info.DeliveryCode&1)<<2 |
		uint8(c.Info.FileStatus&0b11)
	pos++
	for _, r := range c.Info.FsResponses {
		n, err := EncodeOption(buf[pos:], r)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	if loc, ok := c.Info.faultLocation(); ok {
		n, err := EncodeOption(buf[pos:], loc)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}

type FinishedPduReader struct {
	FileDirectiveReader
	Info FinishedInfo
}

// ParseFinishedPdu parses a Finished PDU holding at most maxFsResponses
// filestore responses. A maxFsResponses of zero or less accepts any number.
func ParseFinishedPdu(buf []byte, maxFsResponses int) (*FinishedPduReader, error) {
	r, err := parseDirective(buf, DirectiveFinished)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: finished status missing", ErrInvalidPduDataFieldLen)
	}
	info := FinishedInfo{
		ConditionCode: ConditionCode(payload[0] >> 4),
		DeliveryCode:  DeliveryCode((payload[0] >> 2) & 1),
		FileStatus:    FileStatus(payload[0] & 0b11),
	}

	responses := bounded.New[FilestoreResponseTlv](maxFsResponses)
	pos := 1
	for pos < len(payload) {
		raw, n, err := ParseTlv(payload[pos:])
		if err != nil {
			return nil, subfieldErr(ErrFinishedCantParseFsResponses, "TLV", err)
		}
		pos += n

		switch raw.Type {
		case TlvFilestoreResponse:
			if info.FaultLocation.IsSet() {
				return nil, fmt.Errorf("%w: filestore response after fault location", ErrInvalidTlvType)
			}
			resp, err := decodeFilestoreResponse(raw.Value)
			if err != nil {
				return nil, subfieldErr(ErrFinishedCantParseFsResponses, "filestore response", err)
			}
			if err := responses.Push(resp); err != nil {
				if errors.Is(err, bounded.ErrCapacityExceeded) {
					return nil, fmt.Errorf("%w: more than %d responses", ErrFinishedCantParseFsResponses, maxFsResponses)
				}
				return nil, err
			}
		case TlvEntityId:
			if info.FaultLocation.IsSet() {
				return nil, fmt.Errorf("%w: second fault location", ErrInvalidTlvType)
			}
			if !carriesFaultLocation(info.ConditionCode) {
				return nil, fmt.Errorf("%w: fault location with condition %s", ErrInvalidTlvType, info.ConditionCode)
			}
			loc, err := decodeEntityIdTlv(raw.Value)
			if err != nil {
				return nil, err
			}
			info.FaultLocation = optional.Some(loc)
		default:
			return nil, fmt.Errorf("%w: %s in finished PDU", ErrInvalidTlvType, raw.Type)
		}
	}
	info.FsResponses = responses.Items()

	return &FinishedPduReader{FileDirectiveReader: r, Info: info}, nil
}
