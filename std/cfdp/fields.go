package cfdp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Width is the byte width of a variable length field.
type Width uint8

const (
	WidthOneByte   Width = 1
	WidthTwoBytes  Width = 2
	WidthFourBytes Width = 4
)

// Valid reports whether w is one of the supported widths.
func (w Width) Valid() bool {
	switch w {
	case WidthOneByte, WidthTwoBytes, WidthFourBytes:
		return true
	}
	return false
}

// MaxValue is the largest value representable with w bytes.
func (w Width) MaxValue() uint32 {
	switch w {
	case WidthOneByte:
		return math.MaxUint8
	case WidthTwoBytes:
		return math.MaxUint16
	case WidthFourBytes:
		return math.MaxUint32
	}
	return 0
}

// Code is the 3-bit header encoding of w (length minus one).
func (w Width) Code() uint8 {
	return uint8(w) - 1
}

// WidthFromCode decodes a 3-bit header width code.
func WidthFromCode(code uint8) (Width, error) {
	w := Width(code&0b111) + 1
	if !w.Valid() {
		return 0, fmt.Errorf("%w: %d bytes", ErrUnsupportedFieldWidth, w)
	}
	return w, nil
}

// MinWidth returns the smallest width that holds value.
func MinWidth(value uint32) Width {
	switch {
	case value <= math.MaxUint8:
		return WidthOneByte
	case value <= math.MaxUint16:
		return WidthTwoBytes
	default:
		return WidthFourBytes
	}
}

// VarLenField is an unsigned integer encoded with 1, 2 or 4 bytes.
// The zero value is a one byte field holding 0.
type VarLenField struct {
	width Width
	value uint32
}

func NewVarLenField(width Width, value uint32) (VarLenField, error) {
	f := VarLenField{}
	err := f.SetValue(width, value)
	return f, err
}

// SetValue sets width and value. The field is left unchanged on error.
func (f *VarLenField) SetValue(width Width, value uint32) error {
	if !width.Valid() {
		return fmt.Errorf("%w: %d bytes", ErrUnsupportedFieldWidth, width)
	}
	if value > width.MaxValue() {
		return fmt.Errorf("%w: %d in %d bytes", ErrValueTooLarge, value, width)
	}
	f.width = width
	f.value = value
	return nil
}

func (f VarLenField) Width() Width {
	if f.width == 0 {
		return WidthOneByte
	}
	return f.width
}

func (f VarLenField) Value() uint32 {
	return f.value
}

func (f VarLenField) SerializedSize() int {
	return int(f.Width())
}

// Serialize writes the field into buf using order.
func (f VarLenField) Serialize(buf []byte, order binary.ByteOrder) (int, error) {
	n := f.SerializedSize()
	if len(buf) < n {
		return 0, ErrBufferTooShort
	}
	switch f.Width() {
	case WidthOneByte:
		buf[0] = uint8(f.value)
	case WidthTwoBytes:
		order.PutUint16(buf, uint16(f.value))
	case WidthFourBytes:
		order.PutUint32(buf, f.value)
	}
	return n, nil
}

// Deserialize reads a field of the current width from buf using order.
func (f *VarLenField) Deserialize(buf []byte, order binary.ByteOrder) (int, error) {
	w := f.Width()
	if len(buf) < int(w) {
		return 0, ErrStreamTooShort
	}
	switch w {
	case WidthOneByte:
		f.value = uint32(buf[0])
	case WidthTwoBytes:
		f.value = uint32(order.Uint16(buf))
	case WidthFourBytes:
		f.value = order.Uint32(buf)
	}
	f.width = w
	return int(w), nil
}

// Compare orders by width first, then by value.
// A two byte 0 is greater than a one byte 255.
func (f VarLenField) Compare(o VarLenField) int {
	switch {
	case f.Width() < o.Width():
		return -1
	case f.Width() > o.Width():
		return 1
	case f.value < o.value:
		return -1
	case f.value > o.value:
		return 1
	}
	return 0
}

func (f VarLenField) Equal(o VarLenField) bool {
	return f.Compare(o) == 0
}

func (f VarLenField) Less(o VarLenField) bool {
	return f.Compare(o) < 0
}

func (f VarLenField) String() string {
	return fmt.Sprintf("%d", f.value)
}

// EntityId identifies a CFDP entity.
type EntityId struct {
	VarLenField
}

func NewEntityId(width Width, value uint32) (EntityId, error) {
	f, err := NewVarLenField(width, value)
	return EntityId{f}, err
}

// MustEntityId is NewEntityId for constant arguments; it panics on error.
func MustEntityId(width Width, value uint32) EntityId {
	id, err := NewEntityId(width, value)
	if err != nil {
		panic(err)
	}
	return id
}

func (e EntityId) Compare(o EntityId) int {
	return e.VarLenField.Compare(o.VarLenField)
}

func (e EntityId) Equal(o EntityId) bool {
	return e.VarLenField.Equal(o.VarLenField)
}

// TransactionSeqNum is the transaction sequence number assigned by the source entity.
type TransactionSeqNum struct {
	VarLenField
}

func NewTransactionSeqNum(width Width, value uint32) (TransactionSeqNum, error) {
	f, err := NewVarLenField(width, value)
	return TransactionSeqNum{f}, err
}

// MustSeqNum is NewTransactionSeqNum for constant arguments; it panics on error.
func MustSeqNum(width Width, value uint32) TransactionSeqNum {
	n, err := NewTransactionSeqNum(width, value)
	if err != nil {
		panic(err)
	}
	return n
}

func (n TransactionSeqNum) Equal(o TransactionSeqNum) bool {
	return n.VarLenField.Equal(o.VarLenField)
}

// TransactionId names one transfer: the source entity and its sequence number.
type TransactionId struct {
	EntityId EntityId
	SeqNum   TransactionSeqNum
}

func (t TransactionId) Equal(o TransactionId) bool {
	return t.EntityId.Equal(o.EntityId) && t.SeqNum.Equal(o.SeqNum)
}

func (t TransactionId) String() string {
	return fmt.Sprintf("%d-%d", t.EntityId.Value(), t.SeqNum.Value())
}

// FileSize is a file size or offset, 4 bytes on the wire or 8 with the large file flag.
type FileSize struct {
	large bool
	value uint64
}

func NewFileSize(value uint64, large bool) (FileSize, error) {
	fs := FileSize{}
	err := fs.SetFileSize(value, large)
	return fs, err
}

// MustFileSize is NewFileSize for constant arguments; it panics on error.
func MustFileSize(value uint64, large bool) FileSize {
	fs, err := NewFileSize(value, large)
	if err != nil {
		panic(err)
	}
	return fs
}

// SetFileSize sets the size. Values above 4 GiB-1 need large.
// The size is left unchanged on error.
func (fs *FileSize) SetFileSize(value uint64, large bool) error {
	if !large && value > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrFileSizeTooLarge, value)
	}
	fs.large = large
	fs.value = value
	return nil
}

func (fs FileSize) IsLarge() bool {
	return fs.large
}

func (fs FileSize) Value() uint64 {
	return fs.value
}

func (fs FileSize) SerializedSize() int {
	if fs.large {
		return 8
	}
	return 4
}

func (fs FileSize) Serialize(buf []byte) (int, error) {
	n := fs.SerializedSize()
	if len(buf) < n {
		return 0, ErrBufferTooShort
	}
	if fs.large {
		binary.BigEndian.PutUint64(buf, fs.value)
	} else {
		binary.BigEndian.PutUint32(buf, uint32(fs.value))
	}
	return n, nil
}

// Deserialize reads a 4 or 8 byte size from buf.
func (fs *FileSize) Deserialize(buf []byte, large bool) (int, error) {
	n := 4
	if large {
		n = 8
	}
	if len(buf) < n {
		return 0, ErrStreamTooShort
	}
	fs.large = large
	if large {
		fs.value = binary.BigEndian.Uint64(buf)
	} else {
		fs.value = uint64(binary.BigEndian.Uint32(buf))
	}
	return n, nil
}

func (fs FileSize) String() string {
	return fmt.Sprintf("%d", fs.value)
}
