package handler

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

// FaultCallbacks is implemented by mission code to react to faults.
// Exactly one callback runs per reported fault.
type FaultCallbacks interface {
	NoticeOfSuspensionCb(id cfdp.TransactionId, cc cfdp.ConditionCode)
	NoticeOfCancellationCb(id cfdp.TransactionId, cc cfdp.ConditionCode)
	AbandonCb(id cfdp.TransactionId, cc cfdp.ConditionCode)
	IgnoreCb(id cfdp.TransactionId, cc cfdp.ConditionCode)
}

// FaultHandlerBase maps fault condition codes to a handling strategy.
// Every fault condition starts out ignored.
type FaultHandlerBase struct {
	table map[cfdp.ConditionCode]cfdp.FaultHandlerCode
	cb    FaultCallbacks
}

func NewFaultHandlerBase(cb FaultCallbacks) *FaultHandlerBase {
	f := &FaultHandlerBase{
		table: make(map[cfdp.ConditionCode]cfdp.FaultHandlerCode, len(cfdp.FaultConditionCodes)),
		cb:    cb,
	}
	for _, cc := range cfdp.FaultConditionCodes {
		f.table[cc] = cfdp.IgnoreError
	}
	return f
}

// GetHandler returns the strategy for cc, or none if cc is not a fault condition.
func (f *FaultHandlerBase) GetHandler(cc cfdp.ConditionCode) optional.Optional[cfdp.FaultHandlerCode] {
	if h, ok := f.table[cc]; ok {
		return optional.Some(h)
	}
	return optional.None[cfdp.FaultHandlerCode]()
}

// SetHandler changes the strategy for cc. It fails for non fault
// conditions and for the reserved strategy.
func (f *FaultHandlerBase) SetHandler(cc cfdp.ConditionCode, h cfdp.FaultHandlerCode) bool {
	if !cc.IsFault() || !h.Valid() {
		return false
	}
	f.table[cc] = h
	return true
}

// ReportFault runs the callback registered for cc.
// It fails if cc is not a fault condition.
func (f *FaultHandlerBase) ReportFault(id cfdp.TransactionId, cc cfdp.ConditionCode) bool {
	h, ok := f.GetHandler(cc).Get()
	if !ok {
		return false
	}
	return f.Dispatch(id, cc, h)
}

// Dispatch runs the callback of strategy h without consulting the table.
// Transactions with a fault handler override use it directly.
func (f *FaultHandlerBase) Dispatch(id cfdp.TransactionId, cc cfdp.ConditionCode, h cfdp.FaultHandlerCode) bool {
	if !cc.IsFault() {
		return false
	}
	switch h {
	case cfdp.NoticeOfSuspension:
		f.cb.NoticeOfSuspensionCb(id, cc)
	case cfdp.NoticeOfCancellation:
		f.cb.NoticeOfCancellationCb(id, cc)
	case cfdp.AbandonTransaction:
		f.cb.AbandonCb(id, cc)
	case cfdp.IgnoreError:
		f.cb.IgnoreCb(id, cc)
	default:
		return false
	}
	return true
}
