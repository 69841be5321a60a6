package cfdpd

import (
	"errors"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/engine/face"
)

// FaceSink sends the reply PDUs of the handler on every running face.
type FaceSink struct {
	faces   []face.Face
	metrics *Metrics
}

func NewFaceSink(metrics *Metrics, faces ...face.Face) *FaceSink {
	return &FaceSink{faces: faces, metrics: metrics}
}

// SendPdu succeeds if at least one face took the PDU.
func (s *FaceSink) SendPdu(pdu []byte) error {
	var errs []error
	sent := false
	for _, f := range s.faces {
		if !f.IsRunning() {
			continue
		}
		if err := f.Send(pdu); err != nil {
			errs = append(errs, err)
			continue
		}
		sent = true
	}
	if !sent {
		if len(errs) == 0 {
			return face.ErrFaceNotRunning
		}
		return errors.Join(errs...)
	}

	if d, err := cfdp.ParseFileDirective(pdu); err == nil {
		s.metrics.sent(d.Directive())
	}
	return nil
}
