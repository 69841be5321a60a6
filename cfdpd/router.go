package cfdpd

import (
	"errors"
	"fmt"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/cfdp/handler"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/object/storage"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

var (
	ErrNotLocal       = errors.New("router: PDU is not addressed to this entity")
	ErrWrongDirection = errors.New("router: PDU is not directed towards the receiver")
	ErrQueueFull      = errors.New("router: handler queue is full")
)

// Router moves frames received on the faces into the packet store and
// announces them to the handler goroutine. Receive is safe to call from
// any goroutine.
type Router struct {
	local   cfdp.EntityId
	store   storage.Store
	queue   chan handler.PacketInfo
	metrics *Metrics
	log     *log.Logger
}

func NewRouter(local cfdp.EntityId, store storage.Store, size int, metrics *Metrics, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{
		local:   local,
		store:   store,
		queue:   make(chan handler.PacketInfo, size),
		metrics: metrics,
		log:     logger,
	}
}

func (r *Router) String() string {
	return "cfdp-router"
}

// Queue is the hand-off channel read by the handler goroutine.
func (r *Router) Queue() <-chan handler.PacketInfo {
	return r.queue
}

// Receive routes one frame. The frame is copied into the store, so the
// caller may reuse it once Receive returns.
func (r *Router) Receive(frame []byte) error {
	info, raw, err := r.classify(frame)
	if err != nil {
		return err
	}

	info.Handle, err = r.store.Add(raw)
	if err != nil {
		r.metrics.dropped("store-full")
		r.log.Warn(r, "Failed to store PDU", "err", err)
		return err
	}

	select {
	case r.queue <- info:
		return nil
	default:
		if err := r.store.Release(info.Handle); err != nil {
			r.log.Error(r, "Failed to release dropped PDU", "handle", info.Handle, "err", err)
		}
		r.metrics.dropped("queue-full")
		r.log.Warn(r, "Handler queue is full, dropping PDU", "handle", info.Handle)
		return ErrQueueFull
	}
}

// Restore rebuilds the packet info of a packet already in the store,
// e.g. one left over from before a restart. Invalid packets are released.
func (r *Router) Restore(h storage.Handle) (handler.PacketInfo, error) {
	raw, err := r.store.Get(h)
	if err != nil {
		return handler.PacketInfo{}, err
	}
	info, _, err := r.classify(raw)
	if err != nil {
		r.store.Release(h)
		return info, err
	}
	info.Handle = h
	return info, nil
}

// classify validates the header and fills the packet info, except the handle.
func (r *Router) classify(frame []byte) (info handler.PacketInfo, raw []byte, err error) {
	h, err := cfdp.ParseHeader(frame)
	if err == nil && !h.Complete() {
		err = cfdp.ErrStreamTooShort
	}
	if err != nil {
		r.metrics.dropped("malformed")
		r.log.Debug(r, "Dropping malformed PDU", "len", len(frame), "err", err)
		return info, nil, err
	}

	if h.DestId().Value() != r.local.Value() {
		r.metrics.dropped("not-local")
		r.log.Debug(r, "Dropping PDU for another entity", "dest", h.DestId())
		return info, nil, fmt.Errorf("%w: dest %s", ErrNotLocal, h.DestId())
	}
	if h.Direction() != cfdp.TowardsReceiver {
		r.metrics.dropped("direction")
		r.log.Debug(r, "Dropping PDU towards the sender", "id", h.TransactionId())
		return info, nil, ErrWrongDirection
	}

	info.PduType = h.PduType()
	var dir cfdp.DirectiveCode
	if info.PduType == cfdp.PduTypeFileDirective {
		d, err := cfdp.ParseFileDirective(frame)
		if err != nil {
			r.metrics.dropped("malformed")
			r.log.Debug(r, "Dropping malformed directive", "id", h.TransactionId(), "err", err)
			return info, nil, err
		}
		dir = d.Directive()
		info.Directive = optional.Some(dir)
	}
	r.metrics.received(info.PduType, dir)

	return info, h.Raw(), nil
}
