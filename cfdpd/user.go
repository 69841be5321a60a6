package cfdpd

import (
	"sync"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/cfdp/handler"
	"github.com/kaidokert/fsfw-sub000/std/log"
)

// User is the CFDP user of the daemon. It logs every indication, keeps
// the metrics current and archives finished transactions.
type User struct {
	log     *log.Logger
	metrics *Metrics
	history *History

	mutex  sync.Mutex
	active map[string]*userTransaction
}

type userTransaction struct {
	md       handler.MetadataRecvdParams
	received uint64
}

func NewUser(logger *log.Logger, metrics *Metrics, history *History) *User {
	if logger == nil {
		logger = log.Default()
	}
	return &User{
		log:     logger,
		metrics: metrics,
		history: history,
		active:  make(map[string]*userTransaction),
	}
}

func (u *User) String() string {
	return "cfdp-user"
}

func (u *User) transaction(id cfdp.TransactionId) *userTransaction {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	key := id.String()
	t, ok := u.active[key]
	if !ok {
		t = &userTransaction{}
		u.active[key] = t
	}
	return t
}

func (u *User) TransactionIndication(id cfdp.TransactionId) {
	u.log.Info(u, "Transaction started", "id", id)
}

func (u *User) EofSentIndication(id cfdp.TransactionId) {
	u.log.Debug(u, "EOF sent", "id", id)
}

func (u *User) MetadataRecvdIndication(p handler.MetadataRecvdParams) {
	u.transaction(p.Id).md = p
	u.log.Info(u, "Metadata received", "id", p.Id, "source", p.SourceFileName,
		"dest", p.DestFileName, "size", p.FileSize, "messages", len(p.MsgsToUser))
	for _, msg := range p.MsgsToUser {
		u.log.Debug(u, "Message to user", "id", p.Id, "len", len(msg))
	}
}

func (u *User) FileSegmentRecvdIndication(p handler.FileSegmentRecvdParams) {
	t := u.transaction(p.Id)
	t.received += uint64(p.Length)
	u.metrics.progress(t.received)
	u.log.Trace(u, "File segment received", "id", p.Id, "offset", p.Offset, "len", p.Length)
}

func (u *User) ReportIndication(id cfdp.TransactionId, r handler.StatusReport) {
	u.log.Info(u, "Transaction report", "id", id, "state", r.State, "step", r.Step,
		"progress", r.Progress, "size", r.FileSize)
}

func (u *User) SuspendedIndication(id cfdp.TransactionId, cc cfdp.ConditionCode) {
	u.log.Warn(u, "Transaction suspended", "id", id, "condition", cc)
}

func (u *User) ResumedIndication(id cfdp.TransactionId, progress uint64) {
	u.log.Info(u, "Transaction resumed", "id", id, "progress", progress)
}

func (u *User) FaultIndication(id cfdp.TransactionId, cc cfdp.ConditionCode, progress uint64) {
	u.log.Warn(u, "Fault ignored", "id", id, "condition", cc, "progress", progress)
}

func (u *User) AbandonedIndication(id cfdp.TransactionId, cc cfdp.ConditionCode, progress uint64) {
	u.log.Error(u, "Transaction abandoned", "id", id, "condition", cc, "progress", progress)

	u.mutex.Lock()
	delete(u.active, id.String())
	u.mutex.Unlock()
	u.metrics.finished(cc, cfdp.DataIncomplete)
}

func (u *User) EofRecvIndication(id cfdp.TransactionId) {
	u.log.Debug(u, "EOF received", "id", id)
}

func (u *User) TransactionFinishedIndication(p handler.TransactionFinishedParams) {
	u.mutex.Lock()
	t, ok := u.active[p.Id.String()]
	delete(u.active, p.Id.String())
	u.mutex.Unlock()
	if !ok {
		t = &userTransaction{}
	}

	u.log.Info(u, "Transaction finished", "id", p.Id, "condition", p.ConditionCode,
		"delivery", p.DeliveryCode, "status", p.FileStatus, "dest", t.md.DestFileName)
	for _, r := range p.FsResponses {
		u.log.Info(u, "Filestore response", "id", p.Id, "action", r.Action,
			"status", r.Status, "first", r.FirstFile.String())
	}
	u.metrics.finished(p.ConditionCode, p.DeliveryCode)

	err := u.history.Record(Record{
		TransactionId: p.Id.String(),
		SourceId:      p.Id.EntityId.Value(),
		SeqNum:        p.Id.SeqNum.Value(),
		SourceFile:    t.md.SourceFileName,
		DestFile:      t.md.DestFileName,
		Condition:     p.ConditionCode.String(),
		Delivery:      p.DeliveryCode.String(),
		FileStatus:    p.FileStatus.String(),
		FileSize:      t.md.FileSize,
		Received:      t.received,
		FinishedAt:    time.Now(),
	})
	if err != nil {
		u.log.Error(u, "Failed to archive transaction", "id", p.Id, "err", err)
	}
}
