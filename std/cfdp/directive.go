package cfdp

import (
	"fmt"
	"math"
)

// PduCreator is implemented by every PDU encoder.
type PduCreator interface {
	// WholePduSize is the number of bytes Serialize needs, or -1 if the
	// data field does not fit the 16-bit length field.
	WholePduSize() int
	// Serialize writes the PDU into buf.
	Serialize(buf []byte) (int, error)
}

// Encode serializes c into a freshly allocated buffer.
func Encode(c PduCreator) ([]byte, error) {
	size := c.WholePduSize()
	if size < 0 {
		return nil, fmt.Errorf("%w: data field exceeds %d bytes", ErrInvalidPduDataFieldLen, math.MaxUint16)
	}
	buf := make([]byte, size)
	n, err := c.Serialize(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// directiveHeader builds the header of a directive PDU whose directive
// specific fields take payload bytes.
func directiveHeader(conf *PduConfig, payload int) (HeaderCreator, error) {
	h := NewHeaderCreator(conf, PduTypeFileDirective)
	err := h.SetPduDataFieldLen(1 + payload)
	return h, err
}

// serializeDirective writes header and directive code after checking that
// buf holds the whole PDU. It returns the position of the first payload byte.
func serializeDirective(buf []byte, h HeaderCreator, d DirectiveCode) (int, error) {
	if len(buf) < h.WholePduSize() {
		return 0, ErrBufferTooShort
	}
	n, err := h.Serialize(buf)
	if err != nil {
		return 0, err
	}
	buf[n] = uint8(d)
	return n + 1, nil
}

// wholeDirectiveSize is the size of a directive PDU, or -1 if its
// data field does not fit the 16-bit length field.
func wholeDirectiveSize(conf *PduConfig, payload int) int {
	h, err := directiveHeader(conf, payload)
	if err != nil {
		return -1
	}
	return h.WholePduSize()
}

// wireFileSize re-tags fs with the large file flag of conf.
func wireFileSize(conf *PduConfig, fs FileSize) (FileSize, error) {
	return NewFileSize(fs.Value(), conf.LargeFile)
}

func fileSizeLen(conf *PduConfig) int {
	if conf.LargeFile {
		return 8
	}
	return 4
}

// FileDirectiveReader is a zero copy view of a file directive PDU.
type FileDirectiveReader struct {
	HeaderReader
}

// ParseFileDirective validates the header and directive code of buf.
// The whole PDU, as declared by the data field length, must be present.
func ParseFileDirective(buf []byte) (FileDirectiveReader, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return FileDirectiveReader{}, err
	}
	if h.PduType() != PduTypeFileDirective {
		return FileDirectiveReader{}, fmt.Errorf("%w: not a file directive PDU", ErrInvalidDirectiveField)
	}
	if h.PduDataFieldLen() < 1 {
		return FileDirectiveReader{}, fmt.Errorf("%w: directive PDU without directive code", ErrInvalidPduDataFieldLen)
	}
	if !h.Complete() {
		return FileDirectiveReader{}, ErrStreamTooShort
	}
	if d := DirectiveCode(buf[h.HeaderSize()]); !d.Valid() {
		return FileDirectiveReader{}, fmt.Errorf("%w: directive code 0x%02x", ErrInvalidDirectiveField, uint8(d))
	}
	return FileDirectiveReader{h}, nil
}

func (r FileDirectiveReader) Directive() DirectiveCode {
	return DirectiveCode(r.buf[r.HeaderSize()])
}

// Payload returns the directive specific fields after the directive code.
func (r FileDirectiveReader) Payload() []byte {
	return r.DataField()[1:]
}

// parseDirective parses buf and checks that it carries the expected directive.
func parseDirective(buf []byte, want DirectiveCode) (FileDirectiveReader, error) {
	r, err := ParseFileDirective(buf)
	if err != nil {
		return r, err
	}
	if got := r.Directive(); got != want {
		return r, fmt.Errorf("%w: expected %s, got %s", ErrInvalidDirectiveField, want, got)
	}
	return r, nil
}

// readFileSize parses a file size field sized by the large file flag.
// A field running past the declared data field is a length error.
func (r FileDirectiveReader) readFileSize(payload []byte) (FileSize, int, error) {
	fs := FileSize{}
	n, err := fs.Deserialize(payload, r.LargeFile())
	if err != nil {
		return fs, 0, fmt.Errorf("%w: file size field truncated", ErrInvalidPduDataFieldLen)
	}
	return fs, n, nil
}
