package cfdp

import (
	"fmt"
	"math"
)

// Lv is a length-value field: one length byte followed by up to 255 bytes.
// A zero length Lv is valid and distinct from an absent field.
// After parsing, the value aliases the parsed buffer.
type Lv struct {
	value []byte
}

func NewLv(value []byte) (Lv, error) {
	if len(value) > math.MaxUint8 {
		return Lv{}, fmt.Errorf("%w: LV of %d bytes", ErrValueTooLarge, len(value))
	}
	return Lv{value: value}, nil
}

// NewStringLv creates an Lv holding the bytes of s.
func NewStringLv(s string) (Lv, error) {
	return NewLv([]byte(s))
}

// MustStringLv is NewStringLv for constant arguments; it panics on error.
func MustStringLv(s string) Lv {
	lv, err := NewStringLv(s)
	if err != nil {
		panic(err)
	}
	return lv
}

func (lv Lv) Len() int {
	return len(lv.value)
}

func (lv Lv) Value() []byte {
	return lv.value
}

// String interprets the value as a file name or message string.
func (lv Lv) String() string {
	return string(lv.value)
}

// Clone returns an Lv that owns a copy of its value.
func (lv Lv) Clone() Lv {
	if lv.value == nil {
		return Lv{}
	}
	return Lv{value: append([]byte{}, lv.value...)}
}

func (lv Lv) SerializedSize() int {
	return 1 + len(lv.value)
}

func (lv Lv) Serialize(buf []byte) (int, error) {
	n := lv.SerializedSize()
	if len(buf) < n {
		return 0, ErrBufferTooShort
	}
	buf[0] = uint8(len(lv.value))
	copy(buf[1:], lv.value)
	return n, nil
}

// ParseLv reads an Lv from the start of buf without copying.
func ParseLv(buf []byte) (Lv, int, error) {
	if len(buf) < 1 {
		return Lv{}, 0, ErrStreamTooShort
	}
	l := int(buf[0])
	if len(buf) < 1+l {
		return Lv{}, 0, ErrStreamTooShort
	}
	return Lv{value: buf[1 : 1+l : 1+l]}, 1 + l, nil
}
