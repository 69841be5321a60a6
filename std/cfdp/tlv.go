package cfdp

import (
	"encoding/binary"
	"fmt"
	"math"
)

type TlvType uint8

const (
	TlvFilestoreRequest     TlvType = 0x00
	TlvFilestoreResponse    TlvType = 0x01
	TlvMessageToUser        TlvType = 0x02
	TlvFaultHandlerOverride TlvType = 0x04
	TlvFlowLabel            TlvType = 0x05
	TlvEntityId             TlvType = 0x06
)

func (t TlvType) Valid() bool {
	switch t {
	case TlvFilestoreRequest, TlvFilestoreResponse, TlvMessageToUser,
		TlvFaultHandlerOverride, TlvFlowLabel, TlvEntityId:
		return true
	}
	return false
}

func (t TlvType) String() string {
	switch t {
	case TlvFilestoreRequest:
		return "filestore-request"
	case TlvFilestoreResponse:
		return "filestore-response"
	case TlvMessageToUser:
		return "message-to-user"
	case TlvFaultHandlerOverride:
		return "fault-handler-override"
	case TlvFlowLabel:
		return "flow-label"
	case TlvEntityId:
		return "entity-id"
	}
	return fmt.Sprintf("tlv(0x%02x)", uint8(t))
}

// Tlv is a raw type-length-value field. Value aliases the parsed buffer.
type Tlv struct {
	Type  TlvType
	Value []byte
}

func (t Tlv) SerializedSize() int {
	return 2 + len(t.Value)
}

func (t Tlv) Serialize(buf []byte) (int, error) {
	if len(t.Value) > math.MaxUint8 {
		return 0, fmt.Errorf("%w: TLV of %d bytes", ErrValueTooLarge, len(t.Value))
	}
	n := t.SerializedSize()
	if len(buf) < n {
		return 0, ErrBufferTooShort
	}
	buf[0] = uint8(t.Type)
	buf[1] = uint8(len(t.Value))
	copy(buf[2:], t.Value)
	return n, nil
}

// ParseTlv reads a TLV from the start of buf without copying.
func ParseTlv(buf []byte) (Tlv, int, error) {
	if len(buf) < 2 {
		return Tlv{}, 0, ErrStreamTooShort
	}
	typ := TlvType(buf[0])
	if !typ.Valid() {
		return Tlv{}, 0, fmt.Errorf("%w: 0x%02x", ErrInvalidTlvType, buf[0])
	}
	l := int(buf[1])
	if len(buf) < 2+l {
		return Tlv{}, 0, ErrStreamTooShort
	}
	return Tlv{Type: typ, Value: buf[2 : 2+l : 2+l]}, 2 + l, nil
}

// Option is a typed TLV payload. The set of implementations is closed:
// EntityIdTlv, FilestoreRequestTlv, FilestoreResponseTlv, MessageToUserTlv,
// FaultHandlerOverrideTlv and FlowLabelTlv.
type Option interface {
	TlvType() TlvType
	valueSize() int
	encodeValue(buf []byte)
}

// OptionSize is the serialized size of o including type and length bytes.
func OptionSize(o Option) int {
	return 2 + o.valueSize()
}

// EncodeOption serializes o as a TLV.
func EncodeOption(buf []byte, o Option) (int, error) {
	l := o.valueSize()
	if l > math.MaxUint8 {
		return 0, fmt.Errorf("%w: %s TLV of %d bytes", ErrValueTooLarge, o.TlvType(), l)
	}
	if len(buf) < 2+l {
		return 0, ErrBufferTooShort
	}
	buf[0] = uint8(o.TlvType())
	buf[1] = uint8(l)
	o.encodeValue(buf[2 : 2+l])
	return 2 + l, nil
}

// DecodeOption converts a raw TLV into its typed payload.
func DecodeOption(t Tlv) (Option, error) {
	switch t.Type {
	case TlvEntityId:
		return decodeEntityIdTlv(t.Value)
	case TlvFilestoreRequest:
		return decodeFilestoreRequest(t.Value)
	case TlvFilestoreResponse:
		return decodeFilestoreResponse(t.Value)
	case TlvMessageToUser:
		return MessageToUserTlv{Message: t.Value}, nil
	case TlvFaultHandlerOverride:
		return decodeFaultHandlerOverride(t.Value)
	case TlvFlowLabel:
		return FlowLabelTlv{Label: t.Value}, nil
	}
	return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidTlvType, uint8(t.Type))
}

// ParseOption reads and decodes one TLV from the start of buf.
func ParseOption(buf []byte) (Option, int, error) {
	raw, n, err := ParseTlv(buf)
	if err != nil {
		return nil, 0, err
	}
	o, err := DecodeOption(raw)
	if err != nil {
		return nil, 0, err
	}
	return o, n, nil
}

// EntityIdTlv carries an entity ID, e.g. a fault location.
type EntityIdTlv struct {
	Id EntityId
}

func (EntityIdTlv) TlvType() TlvType { return TlvEntityId }

func (e EntityIdTlv) valueSize() int { return e.Id.SerializedSize() }

func (e EntityIdTlv) encodeValue(buf []byte) {
	e.Id.Serialize(buf, binary.BigEndian)
}

func decodeEntityIdTlv(value []byte) (EntityIdTlv, error) {
	w := Width(len(value))
	if !w.Valid() {
		return EntityIdTlv{}, fmt.Errorf("%w: entity ID TLV of %d bytes", ErrUnsupportedFieldWidth, len(value))
	}
	id := EntityId{VarLenField{width: w}}
	if _, err := id.Deserialize(value, binary.BigEndian); err != nil {
		return EntityIdTlv{}, err
	}
	return EntityIdTlv{Id: id}, nil
}

// MessageToUserTlv carries an opaque message for the receiving user.
type MessageToUserTlv struct {
	Message []byte
}

func (MessageToUserTlv) TlvType() TlvType { return TlvMessageToUser }

func (m MessageToUserTlv) valueSize() int { return len(m.Message) }

func (m MessageToUserTlv) encodeValue(buf []byte) { copy(buf, m.Message) }

// FlowLabelTlv carries an opaque flow label.
type FlowLabelTlv struct {
	Label []byte
}

func (FlowLabelTlv) TlvType() TlvType { return TlvFlowLabel }

func (f FlowLabelTlv) valueSize() int { return len(f.Label) }

func (f FlowLabelTlv) encodeValue(buf []byte) { copy(buf, f.Label) }

// FaultHandlerOverrideTlv overrides the fault handler of one condition code
// for a single transaction.
type FaultHandlerOverrideTlv struct {
	Condition ConditionCode
	Handler   FaultHandlerCode
}

func (FaultHandlerOverrideTlv) TlvType() TlvType { return TlvFaultHandlerOverride }

func (FaultHandlerOverrideTlv) valueSize() int { return 1 }

func (f FaultHandlerOverrideTlv) encodeValue(buf []byte) {
	buf[0] = uint8(f.Condition)<<4 | uint8(f.Handler)&0x0f
}

func decodeFaultHandlerOverride(value []byte) (FaultHandlerOverrideTlv, error) {
	if len(value) != 1 {
		return FaultHandlerOverrideTlv{}, fmt.Errorf("%w: fault handler override of %d bytes", ErrInvalidTlvType, len(value))
	}
	return FaultHandlerOverrideTlv{
		Condition: ConditionCode(value[0] >> 4),
		Handler:   FaultHandlerCode(value[0] & 0x0f),
	}, nil
}
