// Package storage holds raw packet bytes behind opaque handles.
//
// The router adds every received PDU and hands the handle to the
// destination handler, which gets the bytes once and releases them.
package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("storage: no packet for handle")
	ErrStoreFull = errors.New("storage: store is full")
)

// Handle names one stored packet. Zero is never a valid handle.
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("pkt#%d", uint64(h))
}

// Store is a packet pool. Implementations are safe for concurrent use.
type Store interface {
	// Add stores a copy of wire and returns its handle.
	Add(wire []byte) (Handle, error)
	// Get returns the bytes stored under h.
	Get(h Handle) ([]byte, error)
	// Release frees the packet stored under h.
	Release(h Handle) error
	// Len is the number of packets held.
	Len() int
	Close() error
}
