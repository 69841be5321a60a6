package handler

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/object/storage"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

// Filesystem materializes received files.
type Filesystem interface {
	// Create creates path, truncating an existing file.
	Create(path string) error
	// Write writes data at offset, growing the file as needed.
	Write(path string, offset uint64, data []byte) error
	// Read reads into buf from offset. It returns 0 at end of file.
	Read(path string, offset uint64, buf []byte) (int, error)
	IsDirectory(path string) bool
}

// Filestore is implemented by filesystems that execute filestore requests.
type Filestore interface {
	Filesystem
	// PerformFilestoreAction runs one request and returns its status and
	// an optional message for the response.
	PerformFilestoreAction(action cfdp.FilestoreActionCode, first, second string) (cfdp.FilestoreStatus, string)
}

// PacketStore holds the bytes of queued PDUs.
type PacketStore interface {
	Get(h storage.Handle) ([]byte, error)
	Release(h storage.Handle) error
}

// TelemetrySink sends PDUs generated by the handler.
type TelemetrySink interface {
	SendPdu(pdu []byte) error
}

// PacketInfo announces one stored PDU to the handler.
// The handler releases the handle once it has consumed the packet.
type PacketInfo struct {
	PduType   cfdp.PduType
	Directive optional.Optional[cfdp.DirectiveCode]
	Handle    storage.Handle
}
