package cfdp

import "fmt"

// ProtocolVersion is the 3-bit version field of CFDP version 2 PDUs.
const ProtocolVersion = 0b001

// MinHeaderSize is the header size with one byte entity IDs and sequence number.
const MinHeaderSize = 7

type PduType uint8

const (
	PduTypeFileDirective PduType = 0
	PduTypeFileData      PduType = 1
)

func (t PduType) String() string {
	if t == PduTypeFileData {
		return "file-data"
	}
	return "file-directive"
}

type Direction uint8

const (
	TowardsReceiver Direction = 0
	TowardsSender   Direction = 1
)

func (d Direction) String() string {
	if d == TowardsSender {
		return "towards-sender"
	}
	return "towards-receiver"
}

type TransmissionMode uint8

const (
	Acknowledged   TransmissionMode = 0
	Unacknowledged TransmissionMode = 1
)

func (m TransmissionMode) String() string {
	if m == Unacknowledged {
		return "unacknowledged"
	}
	return "acknowledged"
}

type SegmentationControl uint8

const (
	NoRecordBoundariesPreservation SegmentationControl = 0
	RecordBoundariesPreservation   SegmentationControl = 1
)

type SegmentMetadataFlag uint8

const (
	SegmentMetadataNotPresent SegmentMetadataFlag = 0
	SegmentMetadataPresent    SegmentMetadataFlag = 1
)

// DirectiveCode is the first byte of the data field of a file directive PDU.
type DirectiveCode uint8

const (
	DirectiveEof       DirectiveCode = 0x04
	DirectiveFinished  DirectiveCode = 0x05
	DirectiveAck       DirectiveCode = 0x06
	DirectiveMetadata  DirectiveCode = 0x07
	DirectiveNak       DirectiveCode = 0x08
	DirectivePrompt    DirectiveCode = 0x09
	DirectiveKeepAlive DirectiveCode = 0x0c
)

// Valid reports whether d is a known directive code.
func (d DirectiveCode) Valid() bool {
	switch d {
	case DirectiveEof, DirectiveFinished, DirectiveAck, DirectiveMetadata,
		DirectiveNak, DirectivePrompt, DirectiveKeepAlive:
		return true
	}
	return false
}

func (d DirectiveCode) String() string {
	switch d {
	case DirectiveEof:
		return "eof"
	case DirectiveFinished:
		return "finished"
	case DirectiveAck:
		return "ack"
	case DirectiveMetadata:
		return "metadata"
	case DirectiveNak:
		return "nak"
	case DirectivePrompt:
		return "prompt"
	case DirectiveKeepAlive:
		return "keep-alive"
	}
	return fmt.Sprintf("directive(0x%02x)", uint8(d))
}

// ConditionCode is the 4-bit condition code carried by EOF, ACK and Finished PDUs.
type ConditionCode uint8

const (
	NoError                 ConditionCode = 0b0000
	PositiveAckLimitReached ConditionCode = 0b0001
	KeepAliveLimitReached   ConditionCode = 0b0010
	InvalidTransmissionMode ConditionCode = 0b0011
	FilestoreRejection      ConditionCode = 0b0100
	FileChecksumFailure     ConditionCode = 0b0101
	FileSizeError           ConditionCode = 0b0110
	NakLimitReached         ConditionCode = 0b0111
	InactivityDetected      ConditionCode = 0b1000
	CheckLimitReached       ConditionCode = 0b1010
	UnsupportedChecksumType ConditionCode = 0b1011
	SuspendRequestReceived  ConditionCode = 0b1110
	CancelRequestReceived   ConditionCode = 0b1111
	NoConditionField        ConditionCode = 0xff
)

// FaultConditionCodes are the condition codes that have a fault handler.
var FaultConditionCodes = [...]ConditionCode{
	PositiveAckLimitReached,
	KeepAliveLimitReached,
	InvalidTransmissionMode,
	FilestoreRejection,
	FileChecksumFailure,
	FileSizeError,
	NakLimitReached,
	InactivityDetected,
	CheckLimitReached,
	UnsupportedChecksumType,
}

// IsFault reports whether cc has a fault handler.
func (cc ConditionCode) IsFault() bool {
	for _, f := range FaultConditionCodes {
		if f == cc {
			return true
		}
	}
	return false
}

var conditionCodeNames = map[ConditionCode]string{
	NoError:                 "no-error",
	PositiveAckLimitReached: "positive-ack-limit-reached",
	KeepAliveLimitReached:   "keep-alive-limit-reached",
	InvalidTransmissionMode: "invalid-transmission-mode",
	FilestoreRejection:      "filestore-rejection",
	FileChecksumFailure:     "file-checksum-failure",
	FileSizeError:           "file-size-error",
	NakLimitReached:         "nak-limit-reached",
	InactivityDetected:      "inactivity-detected",
	CheckLimitReached:       "check-limit-reached",
	UnsupportedChecksumType: "unsupported-checksum-type",
	SuspendRequestReceived:  "suspend-request-received",
	CancelRequestReceived:   "cancel-request-received",
	NoConditionField:        "no-condition-field",
}

func (cc ConditionCode) String() string {
	if name, ok := conditionCodeNames[cc]; ok {
		return name
	}
	return fmt.Sprintf("condition(%d)", uint8(cc))
}

// ParseConditionCode maps a name produced by String back to the code.
func ParseConditionCode(s string) (ConditionCode, bool) {
	for cc, name := range conditionCodeNames {
		if name == s {
			return cc, true
		}
	}
	return NoConditionField, false
}

type AckTransactionStatus uint8

const (
	TransactionStatusUndefined    AckTransactionStatus = 0b00
	TransactionStatusActive       AckTransactionStatus = 0b01
	TransactionStatusTerminated   AckTransactionStatus = 0b10
	TransactionStatusUnrecognized AckTransactionStatus = 0b11
)

type DeliveryCode uint8

const (
	DataComplete   DeliveryCode = 0
	DataIncomplete DeliveryCode = 1
)

func (c DeliveryCode) String() string {
	if c == DataIncomplete {
		return "incomplete"
	}
	return "complete"
}

// FileStatus is the delivery status of the file at the receiving entity.
type FileStatus uint8

const (
	DiscardedDeliberately       FileStatus = 0b00
	DiscardedFilestoreRejection FileStatus = 0b01
	RetainedInFilestore         FileStatus = 0b10
	FileStatusUnreported        FileStatus = 0b11
)

func (s FileStatus) String() string {
	switch s {
	case DiscardedDeliberately:
		return "discarded"
	case DiscardedFilestoreRejection:
		return "filestore-rejection"
	case RetainedInFilestore:
		return "retained"
	}
	return "unreported"
}

type RecordContinuationState uint8

const (
	NoStartNoEnd    RecordContinuationState = 0b00
	StartWithoutEnd RecordContinuationState = 0b01
	EndWithoutStart RecordContinuationState = 0b10
	StartAndEnd     RecordContinuationState = 0b11
)

type PromptResponse uint8

const (
	PromptNak       PromptResponse = 0
	PromptKeepAlive PromptResponse = 1
)

type ChecksumType uint8

const (
	ChecksumModular         ChecksumType = 0
	ChecksumCrc32Proximity1 ChecksumType = 1
	ChecksumCrc32C          ChecksumType = 2
	ChecksumCrc32           ChecksumType = 3
	ChecksumNull            ChecksumType = 15
)

func (c ChecksumType) String() string {
	switch c {
	case ChecksumModular:
		return "modular"
	case ChecksumCrc32Proximity1:
		return "crc32-proximity1"
	case ChecksumCrc32C:
		return "crc32c"
	case ChecksumCrc32:
		return "crc32"
	case ChecksumNull:
		return "null"
	}
	return fmt.Sprintf("checksum(%d)", uint8(c))
}

// ParseChecksumType maps a name produced by String back to the type.
func ParseChecksumType(s string) (ChecksumType, bool) {
	for _, c := range []ChecksumType{ChecksumModular, ChecksumCrc32Proximity1, ChecksumCrc32C, ChecksumCrc32, ChecksumNull} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// FaultHandlerCode selects the reaction to a fault condition.
type FaultHandlerCode uint8

const (
	FaultHandlerReserved FaultHandlerCode = 0b0000
	NoticeOfCancellation FaultHandlerCode = 0b0001
	NoticeOfSuspension   FaultHandlerCode = 0b0010
	IgnoreError          FaultHandlerCode = 0b0011
	AbandonTransaction   FaultHandlerCode = 0b0100
)

// Valid reports whether h names one of the four strategies.
func (h FaultHandlerCode) Valid() bool {
	return h >= NoticeOfCancellation && h <= AbandonTransaction
}

func (h FaultHandlerCode) String() string {
	switch h {
	case NoticeOfCancellation:
		return "cancel"
	case NoticeOfSuspension:
		return "suspend"
	case IgnoreError:
		return "ignore"
	case AbandonTransaction:
		return "abandon"
	}
	return "reserved"
}

// ParseFaultHandlerCode maps a name produced by String back to the code.
func ParseFaultHandlerCode(s string) (FaultHandlerCode, bool) {
	for h := NoticeOfCancellation; h <= AbandonTransaction; h++ {
		if h.String() == s {
			return h, true
		}
	}
	return FaultHandlerReserved, false
}
