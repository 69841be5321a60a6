package cfdp

import "fmt"

// AckInfo holds the fields of an ACK PDU.
// Only EOF and Finished PDUs are acknowledged.
type AckInfo struct {
	AckedDirective    DirectiveCode
	DirectiveSubtype  uint8
	ConditionCode     ConditionCode
	TransactionStatus AckTransactionStatus
}

// NewAckInfo builds an AckInfo with the subtype implied by the acknowledged
// directive: 1 for Finished, 0 for EOF.
func NewAckInfo(acked DirectiveCode, cc ConditionCode, status AckTransactionStatus) (AckInfo, error) {
	info := AckInfo{AckedDirective: acked, ConditionCode: cc, TransactionStatus: status}
	switch acked {
	case DirectiveFinished:
		info.DirectiveSubtype = 0b0001
	case DirectiveEof:
		info.DirectiveSubtype = 0b0000
	default:
		return AckInfo{}, fmt.Errorf("%w: cannot acknowledge %s", ErrInvalidAckDirectiveFields, acked)
	}
	return info, nil
}

func (a *AckInfo) validate() error {
	if a.AckedDirective != DirectiveEof && a.AckedDirective != DirectiveFinished {
		return fmt.Errorf("%w: cannot acknowledge %s", ErrInvalidAckDirectiveFields, a.AckedDirective)
	}
	if a.DirectiveSubtype > 0x0f || a.TransactionStatus > TransactionStatusUnrecognized {
		return ErrInvalidAckDirectiveFields
	}
	return nil
}

type AckPduCreator struct {
	conf *PduConfig
	Info *AckInfo
}

func NewAckPduCreator(conf *PduConfig, info *AckInfo) *AckPduCreator {
	return &AckPduCreator{conf: conf, Info: info}
}

func (c *AckPduCreator) WholePduSize() int {
	return wholeDirectiveSize(c.conf, 2)
}

func (c *AckPduCreator) Serialize(buf []byte) (int, error) {
	if err := c.Info.validate(); err != nil {
		return 0, err
	}
	h, err := directiveHeader(c.conf, 2)
	if err != nil {
		return 0, err
	}
	pos, err := serializeDirective(buf, h, DirectiveAck)
	if err != nil {
		return 0, err
	}
	buf[pos] = uint8(c.Info.AckedDirective)<<4 | c.Info.DirectiveSubtype
	buf[pos+1] = uint8(c.Info.ConditionCode)<<4 | uint8(c.Info.TransactionStatus)
	return pos + 2, nil
}

type AckPduReader struct {
	FileDirectiveReader
	Info AckInfo
}

func ParseAckPdu(buf []byte) (*AckPduReader, error) {
	r, err := parseDirective(buf, DirectiveAck)
	if err != nil {
		return nil, err
	}
	payload := r.Payload()
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: ACK fields missing", ErrInvalidPduDataFieldLen)
	}
	info := AckInfo{
		AckedDirective:    DirectiveCode(payload[0] >> 4),
		DirectiveSubtype:  payload[0] & 0x0f,
		ConditionCode:     ConditionCode(payload[1] >> 4),
		TransactionStatus: AckTransactionStatus(payload[1] & 0b11),
	}
	if err := info.validate(); err != nil {
		return nil, err
	}
	return &AckPduReader{FileDirectiveReader: r, Info: info}, nil
}
