package cfdp

import (
	"fmt"
	"hash"
	"hash/crc32"
)

// Checksum accumulates the file checksum over received file data.
type Checksum interface {
	// Update adds data located at offset in the file.
	Update(offset uint64, data []byte)
	// Sum returns the checksum of the data added so far.
	Sum() uint32
	// InOrder reports whether every update continued the previous one.
	// Sum is only meaningful for order dependent checksums if it does.
	InOrder() bool
	// Reset discards the data added so far.
	Reset()
}

// NewChecksum creates the checksum selected by t.
func NewChecksum(t ChecksumType) (Checksum, error) {
	switch t {
	case ChecksumModular:
		return &modularChecksum{}, nil
	case ChecksumCrc32:
		return &crcChecksum{h: crc32.NewIEEE()}, nil
	case ChecksumCrc32C:
		return &crcChecksum{h: crc32.New(crc32.MakeTable(crc32.Castagnoli))}, nil
	case ChecksumNull:
		return nullChecksum{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedChecksumType, t)
}

// modularChecksum adds the file as big endian 32-bit words aligned to the
// start of the file, so updates may arrive in any order.
type modularChecksum struct {
	sum uint32
}

func (m *modularChecksum) Update(offset uint64, data []byte) {
	for i, b := range data {
		shift := 24 - 8*((offset+uint64(i))%4)
		m.sum += uint32(b) << shift
	}
}

func (m *modularChecksum) Sum() uint32   { return m.sum }
func (m *modularChecksum) InOrder() bool { return true }
func (m *modularChecksum) Reset()        { m.sum = 0 }

type crcChecksum struct {
	h        hash.Hash32
	next     uint64
	outOfSeq bool
}

func (c *crcChecksum) Update(offset uint64, data []byte) {
	if offset != c.next {
		c.outOfSeq = true
	}
	if c.outOfSeq {
		return
	}
	c.h.Write(data)
	c.next += uint64(len(data))
}

func (c *crcChecksum) Sum() uint32   { return c.h.Sum32() }
func (c *crcChecksum) InOrder() bool { return !c.outOfSeq }

func (c *crcChecksum) Reset() {
	c.h.Reset()
	c.next = 0
	c.outOfSeq = false
}

type nullChecksum struct{}

func (nullChecksum) Update(uint64, []byte) {}
func (nullChecksum) Sum() uint32           { return 0 }
func (nullChecksum) InOrder() bool         { return true }
func (nullChecksum) Reset()                {}
