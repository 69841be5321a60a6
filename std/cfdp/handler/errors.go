package handler

import "errors"

var (
	ErrTransactionNotStarted = errors.New("cfdp handler: PDU for a transaction that was not started")
	ErrNoRemoteEntityCfg     = errors.New("cfdp handler: no configuration for remote entity")
	ErrWrongTransaction      = errors.New("cfdp handler: PDU belongs to another transaction")
	ErrPacketQueueFull       = errors.New("cfdp handler: packet queue is full")
	ErrUnexpectedPdu         = errors.New("cfdp handler: unexpected PDU")
)
