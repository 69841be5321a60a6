package handler

import "github.com/kaidokert/fsfw-sub000/std/cfdp"

// MetadataRecvdParams describe a transaction started by a Metadata PDU.
type MetadataRecvdParams struct {
	Id             cfdp.TransactionId
	SourceId       cfdp.EntityId
	FileSize       uint64
	SourceFileName string
	DestFileName   string
	MsgsToUser     [][]byte
}

// TransactionFinishedParams describe how a transaction ended.
type TransactionFinishedParams struct {
	Id            cfdp.TransactionId
	ConditionCode cfdp.ConditionCode
	DeliveryCode  cfdp.DeliveryCode
	FileStatus    cfdp.FileStatus
	FsResponses   []cfdp.FilestoreResponseTlv
}

// FileSegmentRecvdParams describe one received File Data PDU.
type FileSegmentRecvdParams struct {
	Id                      cfdp.TransactionId
	Offset                  uint64
	Length                  int
	RecordContinuationState cfdp.RecordContinuationState
	SegmentMetadata         []byte
}

// StatusReport is the payload of a report indication.
type StatusReport struct {
	State    CfdpState
	Step     TransactionStep
	Progress uint64
	FileSize uint64
}

// UserBase receives the CFDP user indications. All callbacks run
// synchronously inside the state machine and must not block.
type UserBase interface {
	TransactionIndication(id cfdp.TransactionId)
	EofSentIndication(id cfdp.TransactionId)
	TransactionFinishedIndication(p TransactionFinishedParams)
	MetadataRecvdIndication(p MetadataRecvdParams)
	FileSegmentRecvdIndication(p FileSegmentRecvdParams)
	ReportIndication(id cfdp.TransactionId, report StatusReport)
	SuspendedIndication(id cfdp.TransactionId, cc cfdp.ConditionCode)
	ResumedIndication(id cfdp.TransactionId, progress uint64)
	FaultIndication(id cfdp.TransactionId, cc cfdp.ConditionCode, progress uint64)
	AbandonedIndication(id cfdp.TransactionId, cc cfdp.ConditionCode, progress uint64)
	EofRecvIndication(id cfdp.TransactionId)
}
