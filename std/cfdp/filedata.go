package cfdp

import "fmt"

// maxSegmentMetadataLen is the largest segment metadata length (6 bits).
const maxSegmentMetadataLen = 63

// FileDataInfo holds the fields of a File Data PDU.
type FileDataInfo struct {
	Offset FileSize
	Data   []byte

	HasSegmentMetadata      bool
	RecordContinuationState RecordContinuationState
	SegmentMetadata         []byte
}

func (f *FileDataInfo) payloadSize(conf *PduConfig) int {
	n := fileSizeLen(conf) + len(f.Data)
	if f.HasSegmentMetadata {
		n += 1 + len(f.SegmentMetadata)
	}
	return n
}

// FileDataOverhead is the number of bytes a File Data PDU adds around its
// file data, without segment metadata.
func FileDataOverhead(conf *PduConfig) int {
	h := NewHeaderCreator(conf, PduTypeFileData)
	return h.HeaderSize() + fileSizeLen(conf)
}

// FileDataPduCreator encodes a File Data PDU.
type FileDataPduCreator struct {
	conf *PduConfig
	Info *FileDataInfo
}

func NewFileDataPduCreator(conf *PduConfig, info *FileDataInfo) *FileDataPduCreator {
	return &FileDataPduCreator{conf: conf, Info: info}
}

func (c *FileDataPduCreator) header() (HeaderCreator, error) {
	h := NewHeaderCreator(c.conf, PduTypeFileData)
	if c.Info.HasSegmentMetadata {
		h.SetSegmentMetadataFlag(SegmentMetadataPresent)
	}
	err := h.SetPduDataFieldLen(c.Info.payloadSize(c.conf))
	return h, err
}

func (c *FileDataPduCreator) WholePduSize() int {
	h, err := c.header()
	if err != nil {
		return -1
	}
	return h.WholePduSize()
}

func (c *FileDataPduCreator) Serialize(buf []byte) (int, error) {
	if c.Info.HasSegmentMetadata && len(c.Info.SegmentMetadata) > maxSegmentMetadataLen {
		return 0, fmt.Errorf("%w: segment metadata of %d bytes", ErrValueTooLarge, len(c.Info.SegmentMetadata))
	}
	h, err := c.header()
	if err != nil {
		return 0, err
	}
	offset, err := wireFileSize(c.conf, c.Info.Offset)
	if err != nil {
		return 0, err
	}
	if len(buf) < h.WholePduSize() {
		return 0, ErrBufferTooShort
	}
	pos, err := h.Serialize(buf)
	if err != nil {
		return 0, err
	}

	if c.Info.HasSegmentMetadata {
		buf[pos] = uint8(c.Info.RecordContinuationState)<<6 | uint8(len(c.Info.SegmentMetadata))
		pos++
		pos += copy(buf[pos:], c.Info.SegmentMetadata)
	}
	n, _ := offset.Serialize(buf[pos:])
	pos += n
	pos += copy(buf[pos:], c.Info.Data)
	return pos, nil
}

// FileDataPduReader is a parsed File Data PDU. Data and segment metadata
// alias the parsed buffer.
type FileDataPduReader struct {
	HeaderReader
	Info FileDataInfo
}

func ParseFileDataPdu(buf []byte) (*FileDataPduReader, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.PduType() != PduTypeFileData {
		return nil, fmt.Errorf("%w: not a file data PDU", ErrInvalidDirectiveField)
	}
	if !h.Complete() {
		return nil, ErrStreamTooShort
	}
	payload := h.DataField()
	info := FileDataInfo{}
	pos := 0

	if h.SegmentMetadataFlag() == SegmentMetadataPresent {
		if len(payload) < 1 {
			return nil, fmt.Errorf("%w: segment metadata missing", ErrInvalidPduDataFieldLen)
		}
		info.HasSegmentMetadata = true
		info.RecordContinuationState = RecordContinuationState(payload[0] >> 6)
		l := int(payload[0] & maxSegmentMetadataLen)
		if len(payload) < 1+l {
			return nil, fmt.Errorf("%w: segment metadata truncated", ErrInvalidPduDataFieldLen)
		}
		info.SegmentMetadata = payload[1 : 1+l : 1+l]
		pos = 1 + l
	}

	n, err := info.Offset.Deserialize(payload[pos:], h.LargeFile())
	if err != nil {
		return nil, fmt.Errorf("%w: offset field truncated", ErrInvalidPduDataFieldLen)
	}
	pos += n
	info.Data = payload[pos:]

	return &FileDataPduReader{HeaderReader: h, Info: info}, nil
}
