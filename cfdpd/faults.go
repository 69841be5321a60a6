package cfdpd

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/log"
)

// FaultLogger receives the fault handler callbacks of the entity.
type FaultLogger struct {
	log     *log.Logger
	metrics *Metrics
}

func NewFaultLogger(logger *log.Logger, metrics *Metrics) *FaultLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &FaultLogger{log: logger, metrics: metrics}
}

func (f *FaultLogger) String() string {
	return "cfdp-faults"
}

func (f *FaultLogger) NoticeOfSuspensionCb(id cfdp.TransactionId, cc cfdp.ConditionCode) {
	f.log.Warn(f, "Fault suspends transaction", "id", id, "condition", cc)
	f.metrics.fault(cc, cfdp.NoticeOfSuspension)
}

func (f *FaultLogger) NoticeOfCancellationCb(id cfdp.TransactionId, cc cfdp.ConditionCode) {
	f.log.Warn(f, "Fault cancels transaction", "id", id, "condition", cc)
	f.metrics.fault(cc, cfdp.NoticeOfCancellation)
}

func (f *FaultLogger) AbandonCb(id cfdp.TransactionId, cc cfdp.ConditionCode) {
	f.log.Error(f, "Fault abandons transaction", "id", id, "condition", cc)
	f.metrics.fault(cc, cfdp.AbandonTransaction)
}

func (f *FaultLogger) IgnoreCb(id cfdp.TransactionId, cc cfdp.ConditionCode) {
	f.log.Info(f, "Fault ignored", "id", id, "condition", cc)
	f.metrics.fault(cc, cfdp.IgnoreError)
}
