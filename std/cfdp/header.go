package cfdp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderCreator encodes the fixed PDU header.
// The caller sets the data field length before serializing.
type HeaderCreator struct {
	conf         *PduConfig
	pduType      PduType
	segCtrl      SegmentationControl
	segMetadata  SegmentMetadataFlag
	dataFieldLen uint16
}

func NewHeaderCreator(conf *PduConfig, pduType PduType) HeaderCreator {
	return HeaderCreator{conf: conf, pduType: pduType}
}

func (h *HeaderCreator) Config() *PduConfig {
	return h.conf
}

func (h *HeaderCreator) PduType() PduType {
	return h.pduType
}

func (h *HeaderCreator) SetSegmentationControl(s SegmentationControl) {
	h.segCtrl = s
}

func (h *HeaderCreator) SetSegmentMetadataFlag(f SegmentMetadataFlag) {
	h.segMetadata = f
}

func (h *HeaderCreator) SegmentMetadataFlag() SegmentMetadataFlag {
	return h.segMetadata
}

func (h *HeaderCreator) SetPduDataFieldLen(l int) error {
	if l < 0 || l > math.MaxUint16 {
		return fmt.Errorf("%w: %d", ErrInvalidPduDataFieldLen, l)
	}
	h.dataFieldLen = uint16(l)
	return nil
}

func (h *HeaderCreator) PduDataFieldLen() int {
	return int(h.dataFieldLen)
}

func (h *HeaderCreator) HeaderSize() int {
	return 4 + 2*int(h.conf.EntityIdWidth()) + int(h.conf.SeqNum.Width())
}

func (h *HeaderCreator) WholePduSize() int {
	return h.HeaderSize() + int(h.dataFieldLen)
}

// Serialize writes the header into the start of buf.
func (h *HeaderCreator) Serialize(buf []byte) (int, error) {
	size := h.HeaderSize()
	if len(buf) < size {
		return 0, ErrBufferTooShort
	}
	c := h.conf
	idWidth := c.EntityIdWidth()

	buf[0] = ProtocolVersion<<5 |
		uint8(h.pduType)<<4 |
		uint8(c.Direction&1)<<3 |
		uint8(c.Mode&1)<<2 |
		boolBit(c.CrcFlag)<<1 |
		boolBit(c.LargeFile)
	binary.BigEndian.PutUint16(buf[1:3], h.dataFieldLen)
	buf[3] = uint8(h.segCtrl&1)<<7 |
		idWidth.Code()<<4 |
		uint8(h.segMetadata&1)<<3 |
		c.SeqNum.Width().Code()

	// Both IDs share the width code, so the narrower one is widened.
	pos := 4
	src := VarLenField{width: idWidth, value: c.SourceId.Value()}
	n, _ := src.Serialize(buf[pos:], binary.BigEndian)
	pos += n
	n, _ = c.SeqNum.Serialize(buf[pos:], binary.BigEndian)
	pos += n
	dst := VarLenField{width: idWidth, value: c.DestId.Value()}
	n, _ = dst.Serialize(buf[pos:], binary.BigEndian)
	pos += n
	return pos, nil
}

// HeaderReader is a zero copy view of a PDU header.
// Field accessors read lazily from the underlying buffer.
type HeaderReader struct {
	buf      []byte
	idWidth  Width
	seqWidth Width
}

// ParseHeader validates the fixed header and computes field offsets.
// The buffer must stay alive and unmodified while the reader is used.
func ParseHeader(buf []byte) (HeaderReader, error) {
	if len(buf) < MinHeaderSize {
		return HeaderReader{}, ErrStreamTooShort
	}
	if v := buf[0] >> 5; v != ProtocolVersion {
		return HeaderReader{}, fmt.Errorf("%w: %d", ErrInvalidHeaderVersion, v)
	}
	idWidth, err := WidthFromCode((buf[3] >> 4) & 0b111)
	if err != nil {
		return HeaderReader{}, err
	}
	seqWidth, err := WidthFromCode(buf[3] & 0b111)
	if err != nil {
		return HeaderReader{}, err
	}
	h := HeaderReader{buf: buf, idWidth: idWidth, seqWidth: seqWidth}
	if len(buf) < h.HeaderSize() {
		return HeaderReader{}, ErrStreamTooShort
	}
	return h, nil
}

func (h HeaderReader) Version() uint8 {
	return h.buf[0] >> 5
}

func (h HeaderReader) PduType() PduType {
	return PduType((h.buf[0] >> 4) & 1)
}

func (h HeaderReader) Direction() Direction {
	return Direction((h.buf[0] >> 3) & 1)
}

func (h HeaderReader) Mode() TransmissionMode {
	return TransmissionMode((h.buf[0] >> 2) & 1)
}

func (h HeaderReader) CrcFlag() bool {
	return h.buf[0]&0b10 != 0
}

func (h HeaderReader) LargeFile() bool {
	return h.buf[0]&0b1 != 0
}

func (h HeaderReader) PduDataFieldLen() int {
	return int(binary.BigEndian.Uint16(h.buf[1:3]))
}

func (h HeaderReader) SegmentationControl() SegmentationControl {
	return SegmentationControl(h.buf[3] >> 7)
}

func (h HeaderReader) SegmentMetadataFlag() SegmentMetadataFlag {
	return SegmentMetadataFlag((h.buf[3] >> 3) & 1)
}

func (h HeaderReader) EntityIdWidth() Width {
	return h.idWidth
}

func (h HeaderReader) SeqNumWidth() Width {
	return h.seqWidth
}

func (h HeaderReader) HeaderSize() int {
	return 4 + 2*int(h.idWidth) + int(h.seqWidth)
}

func (h HeaderReader) WholePduSize() int {
	return h.HeaderSize() + h.PduDataFieldLen()
}

// Complete reports whether the buffer holds the whole PDU.
func (h HeaderReader) Complete() bool {
	return len(h.buf) >= h.WholePduSize()
}

func (h HeaderReader) SourceId() EntityId {
	return EntityId{h.readField(4, h.idWidth)}
}

func (h HeaderReader) SeqNum() TransactionSeqNum {
	return TransactionSeqNum{h.readField(4+int(h.idWidth), h.seqWidth)}
}

func (h HeaderReader) DestId() EntityId {
	return EntityId{h.readField(4+int(h.idWidth)+int(h.seqWidth), h.idWidth)}
}

func (h HeaderReader) TransactionId() TransactionId {
	return TransactionId{EntityId: h.SourceId(), SeqNum: h.SeqNum()}
}

// Config copies the header fields into a PduConfig.
func (h HeaderReader) Config() PduConfig {
	return PduConfig{
		SourceId:  h.SourceId(),
		DestId:    h.DestId(),
		SeqNum:    h.SeqNum(),
		Mode:      h.Mode(),
		CrcFlag:   h.CrcFlag(),
		LargeFile: h.LargeFile(),
		Direction: h.Direction(),
	}
}

// DataField returns the PDU data field, truncated if the buffer is short.
func (h HeaderReader) DataField() []byte {
	end := min(h.WholePduSize(), len(h.buf))
	return h.buf[h.HeaderSize():end:end]
}

// Raw returns the bytes of the whole PDU, truncated if the buffer is short.
func (h HeaderReader) Raw() []byte {
	end := min(h.WholePduSize(), len(h.buf))
	return h.buf[:end:end]
}

func (h HeaderReader) readField(pos int, w Width) VarLenField {
	f := VarLenField{width: w}
	f.Deserialize(h.buf[pos:], binary.BigEndian)
	return f
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
