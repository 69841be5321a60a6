package handler

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

// CfdpState is the entity wide state of the destination handler.
type CfdpState uint8

const (
	CfdpIdle CfdpState = iota
	BusyClassAcked
	BusyClassNacked
)

func (s CfdpState) String() string {
	switch s {
	case BusyClassAcked:
		return "busy-class2-acked"
	case BusyClassNacked:
		return "busy-class1-nacked"
	}
	return "idle"
}

// TransactionStep is the progress of the active transaction.
type TransactionStep uint8

const (
	StepIdle TransactionStep = iota
	StepTransactionStart
	StepReceivingFileDataPdus
	StepSendingAckPdu
	StepTransferCompletion
	StepSendingFinishedPdu
)

func (s TransactionStep) String() string {
	switch s {
	case StepTransactionStart:
		return "transaction-start"
	case StepReceivingFileDataPdus:
		return "receiving-file-data"
	case StepSendingAckPdu:
		return "sending-ack"
	case StepTransferCompletion:
		return "transfer-completion"
	case StepSendingFinishedPdu:
		return "sending-finished"
	}
	return "idle"
}

// CallStatus tells the scheduler when to run the state machine next.
type CallStatus uint8

const (
	// CallAfterDelay means no work is pending.
	CallAfterDelay CallStatus = iota
	// CallAgain means the state machine should run again right away.
	CallAgain
)

func (c CallStatus) String() string {
	if c == CallAgain {
		return "call-again"
	}
	return "call-after-delay"
}

// FsmResult is the outcome of one PerformStateMachine call.
type FsmResult struct {
	// Result is the first error of the call.
	Result      error
	CallStatus  CallStatus
	Errors      int
	State       CfdpState
	Step        TransactionStep
	PacketsSent int
}

// TransactionParams is the state of the active transaction.
// Everything here is owned by the handler; nothing aliases packet buffers.
type TransactionParams struct {
	Id      cfdp.TransactionId
	PduConf cfdp.PduConfig
	Remote  *RemoteEntityCfg

	SourceName       string
	DestName         string
	FileSize         cfdp.FileSize
	ChecksumType     cfdp.ChecksumType
	ClosureRequested bool
	MsgsToUser       [][]byte
	FsRequests       []cfdp.FilestoreRequestTlv
	FsResponses      []cfdp.FilestoreResponseTlv
	Overrides        map[cfdp.ConditionCode]cfdp.FaultHandlerCode

	ConditionCode cfdp.ConditionCode
	DeliveryCode  cfdp.DeliveryCode
	FileStatus    cfdp.FileStatus
	FaultLocation optional.Optional[cfdp.EntityId]

	// Progress is the number of distinct file bytes received.
	Progress  uint64
	Checksum  cfdp.Checksum
	Suspended bool

	eof          optional.Optional[cfdp.EofInfo]
	segments     segmentTracker
	createFailed bool
	skipChecksum bool
	// overlap is set once retransmitted data arrived, so a running
	// checksum may have seen some bytes twice
	overlap bool
}

func (tp *TransactionParams) reset() {
	segments := tp.segments
	segments.reset()
	*tp = TransactionParams{
		ConditionCode: cfdp.NoError,
		DeliveryCode:  cfdp.DataIncomplete,
		FileStatus:    cfdp.FileStatusUnreported,
		segments:      segments,
	}
}

// mode is the transmission mode of the transaction.
func (tp *TransactionParams) mode() cfdp.TransmissionMode {
	return tp.PduConf.Mode
}
