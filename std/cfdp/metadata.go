package cfdp

import (
	"errors"
	"fmt"

	"github.com/kaidokert/fsfw-sub000/std/types/bounded"
)

// MetadataInfo holds the fields of a Metadata PDU.
type MetadataInfo struct {
	ClosureRequested bool
	ChecksumType     ChecksumType
	FileSize         FileSize
	SourceFileName   Lv
	DestFileName     Lv
	Options          []Option
}

func (m *MetadataInfo) payloadSize(conf *PduConfig) int {
	n := 1 + fileSizeLen(conf) + m.SourceFileName.SerializedSize() + m.DestFileName.SerializedSize()
	for _, o := range m.Options {
		n += OptionSize(o)
	}
	return n
}

// MetadataPduCreator encodes a Metadata PDU.
type MetadataPduCreator struct {
	conf *PduConfig
	Info *MetadataInfo
}

func NewMetadataPduCreator(conf *PduConfig, info *MetadataInfo) *MetadataPduCreator {
	return &MetadataPduCreator{conf: conf, Info: info}
}

func (c *MetadataPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, c.Info.payloadSize(c.conf))
}

func (c *MetadataPduCreator) Serialize(buf []byte) (int, error) {
	h, err := directiveHeader(c.conf, c.Info.payloadSize(c.conf))
	if err != nil {
		return 0, err
	}
	fs, err := wireFileSize(c.conf, c.Info.FileSize)
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectiveMetadata)
	if err != nil {
		return 0, err
	}

	buf[pos] = boolBit(c.Info.ClosureRequested)<<6 | uint8(c.Info.ChecksumType)&0x0f
	pos++
	n, _ := fs.Serialize(buf[pos:])
	pos += n
	n, _ = c.Info.SourceFileName.Serialize(buf[pos:])
	pos += n
	n, _ = c.Info.DestFileName.Serialize(buf[pos:])
	pos += n
	for _, o := range c.Info.Options {
		n, err = EncodeOption(buf[pos:], o)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}

// MetadataPduReader is a parsed Metadata PDU. File names and option values
// alias the parsed buffer.
type MetadataPduReader struct {
	FileDirectiveReader
	Info MetadataInfo
}

// ParseMetadataPdu parses a Metadata PDU accepting at most maxOptions option
// TLVs. A maxOptions of zero or less accepts any number.
func ParseMetadataPdu(buf []byte, maxOptions int) (*MetadataPduReader, error) {
	r, err := parseDirective(buf, DirectiveMetadata)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: metadata flags missing", ErrInvalidPduDataFieldLen)
	}
	info := MetadataInfo{
		ClosureRequested: payload[0]&0b0100_0000 != 0,
		ChecksumType:     ChecksumType(payload[0] & 0x0f),
	}
	pos := 1

	fs, n, err := r.readFileSize(payload[pos:])
	if err != nil {
		return nil, err
	}
	info.FileSize = fs
	pos += n

	if info.SourceFileName, n, err = ParseLv(payload[pos:]); err != nil {
		return nil, fmt.Errorf("%w: source file name", ErrInvalidPduDataFieldLen)
	}
	pos += n
	if info.DestFileName, n, err = ParseLv(payload[pos:]); err != nil {
		return nil, fmt.Errorf("%w: destination file name", ErrInvalidPduDataFieldLen)
	}
	pos += n

	opts := bounded.New[Option](maxOptions)
	for pos < len(payload) {
		o, n, err := ParseOption(payload[pos:])
		if err != nil {
			return nil, subfieldErr(ErrMetadataCantParseOptions, "option", err)
		}
		if err := opts.Push(o); err != nil {
			if errors.Is(err, bounded.ErrCapacityExceeded) {
				return nil, fmt.Errorf("%w: more than %d options", ErrMetadataCantParseOptions, maxOptions)
			}
			return nil, err
		}
		pos += n
	}
	info.Options = opts.Items()

	return &MetadataPduReader{FileDirectiveReader: r, Info: info}, nil
}
