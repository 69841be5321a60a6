package cfdp

import (
	"errors"
	"fmt"
)

// Encode/decode boundary errors. The caller can retry with a larger buffer
// or once more bytes are available.
var (
	ErrBufferTooShort = errors.New("cfdp: buffer too short")
	ErrStreamTooShort = errors.New("cfdp: stream too short")
)

// Structural and semantic decode errors.
var (
	ErrInvalidDirectiveField               = errors.New("cfdp: invalid directive field")
	ErrInvalidTlvType                      = errors.New("cfdp: invalid TLV type")
	ErrInvalidAckDirectiveFields           = errors.New("cfdp: invalid ACK directive fields")
	ErrInvalidPduDataFieldLen              = errors.New("cfdp: invalid PDU data field length")
	ErrMetadataCantParseOptions            = errors.New("cfdp: metadata PDU options can not be parsed")
	ErrNakCantParseOptions                 = errors.New("cfdp: NAK PDU segment requests can not be parsed")
	ErrFinishedCantParseFsResponses        = errors.New("cfdp: finished PDU filestore responses can not be parsed")
	ErrFilestoreRequiresSecondFile         = errors.New("cfdp: filestore action requires a second file name")
	ErrFilestoreResponseCantParseFsMessage = errors.New("cfdp: filestore response message can not be parsed")
	ErrInvalidHeaderVersion                = errors.New("cfdp: unsupported protocol version")
	ErrUnsupportedFieldWidth               = errors.New("cfdp: unsupported variable field width")
)

// Value range errors raised when building fields.
var (
	ErrValueTooLarge           = errors.New("cfdp: value does not fit in field")
	ErrFileSizeTooLarge        = errors.New("cfdp: file size needs the large file flag")
	ErrUnsupportedChecksumType = errors.New("cfdp: unsupported checksum type")
)

// subfieldErr files err, raised while decoding a sub-field of a PDU whose
// data field is complete, under kind. A truncated sub-field is malformed
// and no longer reported as ErrStreamTooShort.
func subfieldErr(kind error, what string, err error) error {
	if errors.Is(err, ErrStreamTooShort) {
		return fmt.Errorf("%w: %s truncated", kind, what)
	}
	return fmt.Errorf("%w: %s: %w", kind, what, err)
}
