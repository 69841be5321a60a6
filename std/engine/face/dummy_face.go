package face

import (
	"errors"
	"slices"
)

// DummyFace is an in-process face for tests. Sent PDUs are queued
// until consumed; fed frames are delivered synchronously.
type DummyFace struct {
	baseFace
	sendPkts [][]byte
}

func NewDummyFace() *DummyFace {
	return &DummyFace{baseFace: newBaseFace()}
}

func (f *DummyFace) String() string {
	return "dummy-face"
}

func (f *DummyFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	f.setStateUp()
	return nil
}

func (f *DummyFace) Close() error {
	if !f.setStateClosed() {
		return ErrFaceNotRunning
	}
	return nil
}

func (f *DummyFace) Send(pdu []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	f.sendPkts = append(f.sendPkts, slices.Clone(pdu))
	return nil
}

// FeedPacket hands a frame to the packet callback as if it was received.
func (f *DummyFace) FeedPacket(frame []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	f.onPkt(frame)
	return nil
}

// Consume pops the oldest sent PDU.
func (f *DummyFace) Consume() ([]byte, error) {
	if !f.IsRunning() {
		return nil, ErrFaceNotRunning
	}
	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	if len(f.sendPkts) == 0 {
		return nil, errors.New("no packet to consume")
	}
	pkt := f.sendPkts[0]
	f.sendPkts = f.sendPkts[1:]
	return pkt, nil
}

// Sent is the number of PDUs waiting to be consumed.
func (f *DummyFace) Sent() int {
	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	return len(f.sendPkts)
}
