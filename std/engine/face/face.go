// Package face implements the links CFDP PDUs travel over.
package face

// Face is a bidirectional PDU link. Each received frame carries
// exactly one PDU.
type Face interface {
	String() string
	// IsRunning returns true if the face is running.
	IsRunning() bool
	// OnPacket sets the callback for received frames. The frame is only
	// valid during the callback.
	OnPacket(onPkt func(frame []byte))
	// OnError sets the callback for receive errors.
	OnError(onError func(err error))
	// OnUp adds a callback for when the face comes up.
	OnUp(onUp func()) (cancel func())
	// OnDown adds a callback for when the face goes down unexpectedly.
	OnDown(onDown func()) (cancel func())
	// Open starts the face.
	Open() error
	// Close stops the face.
	Close() error
	// Send sends one PDU.
	Send(pdu []byte) error
}
