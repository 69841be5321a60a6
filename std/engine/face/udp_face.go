package face

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/kaidokert/fsfw-sub000/std/engine/face/impl"
)

// MaxDatagramSize bounds a received UDP frame.
const MaxDatagramSize = 65535

// UDPFace sends and receives one PDU per datagram.
//
// Without a fixed remote address, PDUs are sent to the peer the last
// datagram came from.
type UDPFace struct {
	baseFace
	listen string
	remote string

	conn     net.PacketConn
	peer     atomic.Pointer[net.UDPAddr]
	stopped  chan struct{}
	maxFrame int
}

func NewUDPFace(listen string, remote string) *UDPFace {
	return &UDPFace{
		baseFace: newBaseFace(),
		listen:   listen,
		remote:   remote,
		maxFrame: MaxDatagramSize,
	}
}

func (f *UDPFace) String() string {
	return fmt.Sprintf("udp-face (%s -> %s)", f.listen, f.remote)
}

// LocalAddr is the bound address, valid while the face runs.
func (f *UDPFace) LocalAddr() net.Addr {
	if f.conn == nil {
		return nil
	}
	return f.conn.LocalAddr()
}

func (f *UDPFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	if f.remote != "" {
		addr, err := net.ResolveUDPAddr("udp", f.remote)
		if err != nil {
			return err
		}
		f.peer.Store(addr)
	}

	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}
	conn, err := listenConfig.ListenPacket(context.Background(), "udp", f.listen)
	if err != nil {
		return err
	}

	f.conn = conn
	f.stopped = make(chan struct{})
	f.setStateUp()
	go f.receive()

	return nil
}

func (f *UDPFace) Close() error {
	if !f.setStateClosed() {
		return nil
	}
	err := f.conn.Close()
	<-f.stopped
	return err
}

func (f *UDPFace) Send(pdu []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	peer := f.peer.Load()
	if peer == nil {
		return errors.New("udp face has no peer address")
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	_, err := f.conn.WriteTo(pdu, peer)
	return err
}

func (f *UDPFace) receive() {
	defer close(f.stopped)
	defer f.setStateDown()

	buf := make([]byte, f.maxFrame)
	for f.IsRunning() {
		n, addr, err := f.conn.ReadFrom(buf)
		if err != nil {
			if f.IsRunning() && !errors.Is(err, net.ErrClosed) {
				f.onError(err)
			}
			return
		}
		if f.remote == "" {
			if udp, ok := addr.(*net.UDPAddr); ok {
				f.peer.Store(udp)
			}
		}
		f.onPkt(buf[:n])
	}
}
