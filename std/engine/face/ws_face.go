package face

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// WebSocketFace carries one PDU per binary message to a websocket
// endpoint, such as a ground station gateway.
type WebSocketFace struct {
	baseFace
	url     string
	conn    *websocket.Conn
	stopped chan struct{}
}

func NewWebSocketFace(url string) *WebSocketFace {
	return &WebSocketFace{
		baseFace: newBaseFace(),
		url:      url,
	}
}

func (f *WebSocketFace) String() string {
	return fmt.Sprintf("websocket-face (%s)", f.url)
}

func (f *WebSocketFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	c, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.conn = c
	f.stopped = make(chan struct{})
	f.setStateUp()
	go f.receive()

	return nil
}

func (f *WebSocketFace) Close() error {
	if !f.setStateClosed() {
		return nil
	}
	err := f.conn.Close()
	<-f.stopped
	return err
}

func (f *WebSocketFace) Send(pdu []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	return f.conn.WriteMessage(websocket.BinaryMessage, pdu)
}

func (f *WebSocketFace) receive() {
	defer close(f.stopped)
	defer f.setStateDown()

	for f.IsRunning() {
		messageType, pkt, err := f.conn.ReadMessage()
		if err != nil {
			if f.IsRunning() {
				f.onError(err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		f.onPkt(pkt)
	}
}
