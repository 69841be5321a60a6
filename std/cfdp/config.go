package cfdp

// PduConfig holds the wire parameters shared by every PDU of one transaction.
// Codecs keep a pointer to it, so changes are seen by all of them.
type PduConfig struct {
	SourceId  EntityId
	DestId    EntityId
	SeqNum    TransactionSeqNum
	Mode      TransmissionMode
	CrcFlag   bool
	LargeFile bool
	Direction Direction
}

// EntityIdWidth is the common width used for both entity IDs on the wire.
func (c *PduConfig) EntityIdWidth() Width {
	return max(c.SourceId.Width(), c.DestId.Width())
}

// TransactionId returns the transaction this configuration belongs to.
func (c *PduConfig) TransactionId() TransactionId {
	return TransactionId{EntityId: c.SourceId, SeqNum: c.SeqNum}
}

// Reply returns a copy addressed back towards the sender of the transaction.
func (c PduConfig) Reply() PduConfig {
	c.Direction = TowardsSender
	return c
}
