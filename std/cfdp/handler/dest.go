package handler

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/log"
)

// DestHandlerParams wires the destination handler to its collaborators.
type DestHandlerParams struct {
	Cfg     LocalEntityCfg
	User    UserBase
	Remotes RemoteConfigTable
	Fs      Filesystem
	Store   PacketStore
	Sink    TelemetrySink

	// MaxQueuedPackets bounds the packets accepted by PassPacket.
	MaxQueuedPackets int
	// MaxOptions bounds the option TLVs accepted in a Metadata PDU.
	MaxOptions int
	// MaxSegmentRequests bounds the segment requests in one NAK PDU.
	MaxSegmentRequests int

	Logger *log.Logger
}

const (
	defaultMaxQueuedPackets   = 32
	defaultMaxOptions         = 16
	defaultMaxSegmentRequests = 64
)

// DestHandler receives files. It runs one transaction at a time and is
// driven by a cooperative scheduler through PerformStateMachine.
//
// DestHandler is not safe for concurrent use: PassPacket and
// PerformStateMachine must be called from the same goroutine.
type DestHandler struct {
	p     DestHandlerParams
	log   *log.Logger
	queue []PacketInfo

	state CfdpState
	step  TransactionStep
	tp    TransactionParams

	// result of the running PerformStateMachine call
	res FsmResult
}

func NewDestHandler(p DestHandlerParams) *DestHandler {
	if p.MaxQueuedPackets <= 0 {
		p.MaxQueuedPackets = defaultMaxQueuedPackets
	}
	if p.MaxOptions <= 0 {
		p.MaxOptions = defaultMaxOptions
	}
	if p.MaxSegmentRequests <= 0 {
		p.MaxSegmentRequests = defaultMaxSegmentRequests
	}
	indications := AllIndications()
	if p.Cfg.Indications != nil {
		indications = *p.Cfg.Indications
	}
	p.Cfg.Indications = &indications
	if p.Cfg.FaultHandler == nil {
		p.Cfg.FaultHandler = NewFaultHandlerBase(nopFaultCallbacks{})
	}
	if p.Logger == nil {
		p.Logger = log.Default()
	}

	d := &DestHandler{p: p, log: p.Logger}
	d.tp.reset()
	return d
}

func (d *DestHandler) String() string {
	return "dest-handler"
}

func (d *DestHandler) State() CfdpState {
	return d.state
}

func (d *DestHandler) Step() TransactionStep {
	return d.step
}

// Transaction returns a copy of the active transaction parameters.
func (d *DestHandler) Transaction() TransactionParams {
	return d.tp
}

// QueueLen is the number of packets waiting to be consumed.
func (d *DestHandler) QueueLen() int {
	return len(d.queue)
}

// PassPacket queues a stored PDU. Nothing is parsed until the next
// PerformStateMachine call. The caller keeps ownership of the stored
// packet if the queue is full.
func (d *DestHandler) PassPacket(info PacketInfo) error {
	if len(d.queue) >= d.p.MaxQueuedPackets {
		return ErrPacketQueueFull
	}
	d.queue = append(d.queue, info)
	return nil
}

// PerformStateMachine advances the state machine by one step, consuming
// at most one queued packet.
func (d *DestHandler) PerformStateMachine() FsmResult {
	d.res = FsmResult{}

	switch d.step {
	case StepIdle:
		d.handleIdle()
	case StepTransactionStart:
		d.startTransaction()
	case StepReceivingFileDataPdus:
		d.handleReceiving()
	case StepSendingAckPdu:
		d.sendEofAck()
	case StepTransferCompletion:
		d.transferCompletion()
	case StepSendingFinishedPdu:
		d.sendFinished()
	}

	if d.pending() {
		d.res.CallStatus = CallAgain
	}
	d.res.State = d.state
	d.res.Step = d.step
	return d.res
}

// Report issues a report indication for the active transaction.
func (d *DestHandler) Report() bool {
	if d.state == CfdpIdle {
		return false
	}
	d.p.User.ReportIndication(d.tp.Id, StatusReport{
		State:    d.state,
		Step:     d.step,
		Progress: d.tp.Progress,
		FileSize: d.tp.FileSize.Value(),
	})
	return true
}

// Resume lifts a suspension of the active transaction.
func (d *DestHandler) Resume() bool {
	if d.state == CfdpIdle || !d.tp.Suspended {
		return false
	}
	d.tp.Suspended = false
	d.log.Info(d, "Transaction resumed", "id", d.tp.Id)
	if d.p.Cfg.Indications.Resumed {
		d.p.User.ResumedIndication(d.tp.Id, d.tp.Progress)
	}
	return true
}

// pending reports whether another call has work to do right away.
func (d *DestHandler) pending() bool {
	switch d.step {
	case StepIdle, StepReceivingFileDataPdus:
		return len(d.queue) > 0
	}
	return true
}

func (d *DestHandler) setStep(step TransactionStep) {
	if step != d.step {
		d.log.Debug(d, "Step change", "id", d.tp.Id, "from", d.step, "to", step)
	}
	d.step = step
}

func (d *DestHandler) addError(err error) {
	if d.res.Result == nil {
		d.res.Result = err
	}
	d.res.Errors++
}

// drop records a rejected packet.
func (d *DestHandler) drop(err error, msg string, v ...any) {
	d.addError(err)
	d.log.Warn(d, msg, append(v, "err", err)...)
}

// nextPacket pops the oldest queued packet and loads its bytes.
// The caller releases the packet when ok is true.
func (d *DestHandler) nextPacket() (info PacketInfo, raw []byte, ok bool) {
	if len(d.queue) == 0 {
		return info, nil, false
	}
	info = d.queue[0]
	d.queue[0] = PacketInfo{}
	d.queue = d.queue[1:]

	raw, err := d.p.Store.Get(info.Handle)
	if err != nil {
		d.drop(err, "Queued packet is not in the store", "handle", info.Handle)
		return info, nil, false
	}
	return info, raw, true
}

func (d *DestHandler) release(info PacketInfo) {
	if err := d.p.Store.Release(info.Handle); err != nil {
		d.drop(err, "Failed to release packet", "handle", info.Handle)
	}
}

// send encodes and emits a reply PDU.
func (d *DestHandler) send(c cfdp.PduCreator) {
	pdu, err := cfdp.Encode(c)
	if err != nil {
		d.drop(err, "Failed to encode PDU")
		return
	}
	if err := d.p.Sink.SendPdu(pdu); err != nil {
		d.drop(err, "Failed to send PDU")
		return
	}
	d.res.PacketsSent++
}

// declareFault applies the fault handler of cc to the active transaction.
// It returns false if the transaction left its current step.
func (d *DestHandler) declareFault(cc cfdp.ConditionCode) bool {
	tp := &d.tp
	fh := d.p.Cfg.FaultHandler

	h, overridden := tp.Overrides[cc]
	if overridden {
		fh.Dispatch(tp.Id, cc, h)
	} else {
		h = fh.GetHandler(cc).GetOr(cfdp.IgnoreError)
		fh.ReportFault(tp.Id, cc)
	}
	d.log.Warn(d, "Fault declared", "id", tp.Id, "condition", cc, "handler", h)

	switch h {
	case cfdp.NoticeOfCancellation:
		tp.ConditionCode = cc
		tp.DeliveryCode = cfdp.DataIncomplete
		tp.FaultLocation.Set(d.p.Cfg.Id)
		d.setStep(StepTransferCompletion)
		return false
	case cfdp.NoticeOfSuspension:
		tp.Suspended = true
		if d.p.Cfg.Indications.Suspended {
			d.p.User.SuspendedIndication(tp.Id, cc)
		}
	case cfdp.AbandonTransaction:
		d.p.User.AbandonedIndication(tp.Id, cc, tp.Progress)
		d.resetTransaction()
		return false
	default:
		d.p.User.FaultIndication(tp.Id, cc, tp.Progress)
	}
	return true
}

func (d *DestHandler) resetTransaction() {
	d.setStep(StepIdle)
	d.state = CfdpIdle
	d.tp.reset()
}

type nopFaultCallbacks struct{}

func (nopFaultCallbacks) NoticeOfSuspensionCb(cfdp.TransactionId, cfdp.ConditionCode)   {}
func (nopFaultCallbacks) NoticeOfCancellationCb(cfdp.TransactionId, cfdp.ConditionCode) {}
func (nopFaultCallbacks) AbandonCb(cfdp.TransactionId, cfdp.ConditionCode)              {}
func (nopFaultCallbacks) IgnoreCb(cfdp.TransactionId, cfdp.ConditionCode)               {}
