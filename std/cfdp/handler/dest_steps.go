package handler

import (
	"bytes"
	"fmt"
	"path"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
)

const checksumReadChunk = 4096

func (d *DestHandler) handleIdle() {
	info, raw, ok := d.nextPacket()
	if !ok {
		return
	}
	defer d.release(info)

	if dir, ok := info.Directive.Get(); !ok || dir != cfdp.DirectiveMetadata {
		d.drop(ErrTransactionNotStarted, "Dropping PDU received before metadata",
			"type", info.PduType, "directive", info.Directive)
		return
	}
	d.handleMetadata(raw)
}

func (d *DestHandler) handleMetadata(raw []byte) {
	md, err := cfdp.ParseMetadataPdu(raw, d.p.MaxOptions)
	if err != nil {
		d.drop(err, "Invalid metadata PDU")
		return
	}
	conf := md.Config()
	remote, ok := d.p.Remotes.Lookup(conf.SourceId)
	if !ok {
		d.drop(fmt.Errorf("%w: %s", ErrNoRemoteEntityCfg, conf.SourceId), "Metadata from unknown entity",
			"id", conf.TransactionId())
		return
	}

	d.tp.reset()
	tp := &d.tp
	tp.Id = conf.TransactionId()
	tp.PduConf = conf
	tp.Remote = remote
	tp.SourceName = md.Info.SourceFileName.String()
	tp.DestName = md.Info.DestFileName.String()
	tp.FileSize = md.Info.FileSize
	tp.ChecksumType = md.Info.ChecksumType
	tp.ClosureRequested = md.Info.ClosureRequested

	// the packet is released after this call, so option values are copied
	for _, o := range md.Info.Options {
		switch o := o.(type) {
		case cfdp.MessageToUserTlv:
			tp.MsgsToUser = append(tp.MsgsToUser, bytes.Clone(o.Message))
		case cfdp.FilestoreRequestTlv:
			o.FirstFile = o.FirstFile.Clone()
			o.SecondFile = o.SecondFile.Clone()
			tp.FsRequests = append(tp.FsRequests, o)
		case cfdp.FaultHandlerOverrideTlv:
			if !o.Condition.IsFault() || !o.Handler.Valid() {
				d.log.Warn(d, "Ignoring invalid fault handler override", "condition", o.Condition, "handler", o.Handler)
				continue
			}
			if tp.Overrides == nil {
				tp.Overrides = make(map[cfdp.ConditionCode]cfdp.FaultHandlerCode)
			}
			tp.Overrides[o.Condition] = o.Handler
		default:
			d.log.Debug(d, "Ignoring metadata option", "type", o.TlvType())
		}
	}

	if conf.Mode == cfdp.Acknowledged {
		d.state = BusyClassAcked
	} else {
		d.state = BusyClassNacked
	}
	d.log.Info(d, "Transaction started", "id", tp.Id, "mode", conf.Mode,
		"source", tp.SourceName, "dest", tp.DestName, "size", tp.FileSize)
	d.setStep(StepTransactionStart)
}

func (d *DestHandler) startTransaction() {
	tp := &d.tp
	var faults []cfdp.ConditionCode

	if d.p.Fs.IsDirectory(tp.DestName) {
		tp.DestName = path.Join(tp.DestName, path.Base(tp.SourceName))
	}
	if err := d.p.Fs.Create(tp.DestName); err != nil {
		d.log.Warn(d, "Failed to create destination file", "path", tp.DestName, "err", err)
		tp.createFailed = true
		tp.FileStatus = cfdp.DiscardedFilestoreRejection
		faults = append(faults, cfdp.FilestoreRejection)
	}

	cs, err := cfdp.NewChecksum(tp.ChecksumType)
	if err != nil {
		cs, _ = cfdp.NewChecksum(cfdp.ChecksumNull)
		tp.skipChecksum = true
		faults = append(faults, cfdp.UnsupportedChecksumType)
	}
	tp.Checksum = cs

	d.setStep(StepReceivingFileDataPdus)
	d.p.User.TransactionIndication(tp.Id)
	d.p.User.MetadataRecvdIndication(MetadataRecvdParams{
		Id:             tp.Id,
		SourceId:       tp.PduConf.SourceId,
		FileSize:       tp.FileSize.Value(),
		SourceFileName: tp.SourceName,
		DestFileName:   tp.DestName,
		MsgsToUser:     tp.MsgsToUser,
	})

	for _, cc := range faults {
		if !d.declareFault(cc) {
			return
		}
	}
}

func (d *DestHandler) handleReceiving() {
	info, raw, ok := d.nextPacket()
	if !ok {
		return
	}
	defer d.release(info)

	h, err := cfdp.ParseHeader(raw)
	if err != nil {
		d.drop(err, "Invalid PDU header")
		return
	}
	if id := h.TransactionId(); !id.Equal(d.tp.Id) {
		d.drop(fmt.Errorf("%w: %s", ErrWrongTransaction, id), "Dropping PDU of another transaction",
			"active", d.tp.Id)
		return
	}

	if info.PduType == cfdp.PduTypeFileData {
		d.handleFileData(raw)
		return
	}
	dir, _ := info.Directive.Get()
	switch dir {
	case cfdp.DirectiveEof:
		d.handleEof(raw)
	case cfdp.DirectivePrompt:
		d.handlePrompt(raw)
	case cfdp.DirectiveMetadata:
		d.log.Debug(d, "Ignoring repeated metadata", "id", d.tp.Id)
	default:
		d.drop(fmt.Errorf("%w: %s", ErrUnexpectedPdu, dir), "Unexpected directive while receiving")
	}
}

func (d *DestHandler) handleFileData(raw []byte) {
	fd, err := cfdp.ParseFileDataPdu(raw)
	if err != nil {
		d.drop(err, "Invalid file data PDU")
		return
	}
	tp := &d.tp
	offset := fd.Info.Offset.Value()
	data := fd.Info.Data

	if !tp.createFailed {
		if err := d.p.Fs.Write(tp.DestName, offset, data); err != nil {
			d.drop(err, "Failed to write file data", "path", tp.DestName, "offset", offset)
			return
		}
	}

	before := tp.segments.received()
	tp.segments.add(offset, offset+uint64(len(data)))
	tp.Progress = tp.segments.received()
	if tp.Progress-before != uint64(len(data)) {
		// retransmitted data would be counted twice
		tp.overlap = true
	}
	tp.Checksum.Update(offset, data)

	if d.p.Cfg.Indications.FileSegmentRecv {
		d.p.User.FileSegmentRecvdIndication(FileSegmentRecvdParams{
			Id:                      tp.Id,
			Offset:                  offset,
			Length:                  len(data),
			RecordContinuationState: fd.Info.RecordContinuationState,
			SegmentMetadata:         bytes.Clone(fd.Info.SegmentMetadata),
		})
	}

	// retransmission after a NAK filled the last gap
	if eof, ok := tp.eof.Get(); ok && tp.segments.complete(eof.FileSize.Value()) {
		d.afterEof(false)
	}
}

func (d *DestHandler) handleEof(raw []byte) {
	eof, err := cfdp.ParseEofPdu(raw)
	if err != nil {
		d.drop(err, "Invalid EOF PDU")
		return
	}
	tp := &d.tp
	if tp.eof.IsSet() {
		// the sender did not see our ACK
		if tp.mode() == cfdp.Acknowledged {
			d.setStep(StepSendingAckPdu)
		}
		return
	}
	tp.eof = optional.Some(eof.Info)
	d.log.Debug(d, "EOF received", "id", tp.Id, "condition", eof.Info.ConditionCode,
		"size", eof.Info.FileSize, "checksum", fmt.Sprintf("%08x", eof.Info.Checksum))
	if d.p.Cfg.Indications.EofRecv {
		d.p.User.EofRecvIndication(tp.Id)
	}

	if cc := eof.Info.ConditionCode; cc != cfdp.NoError {
		d.log.Info(d, "Transaction cancelled by sender", "id", tp.Id, "condition", cc)
		tp.ConditionCode = cc
		tp.DeliveryCode = cfdp.DataIncomplete
		tp.FaultLocation.Set(tp.Id.EntityId)
	} else {
		tp.FileSize = eof.Info.FileSize
	}

	if tp.mode() == cfdp.Acknowledged {
		d.setStep(StepSendingAckPdu)
		return
	}
	if tp.ConditionCode != cfdp.NoError {
		d.setStep(StepTransferCompletion)
		return
	}
	d.afterEof(false)
}

// afterEof checks the received file against the EOF PDU. In acknowledged
// mode missing data keeps the transaction receiving, announced by a NAK if
// nak is set.
func (d *DestHandler) afterEof(nak bool) {
	tp := &d.tp
	eof := tp.eof.Unwrap()
	size := eof.FileSize.Value()

	if tp.segments.end() > size {
		d.setStep(StepTransferCompletion)
		d.checkFailed(cfdp.FileSizeError)
		return
	}
	if tp.mode() == cfdp.Acknowledged && !tp.segments.complete(size) {
		if nak {
			d.sendNak()
		}
		d.setStep(StepReceivingFileDataPdus)
		return
	}
	d.verifyChecksum(eof.Checksum, size)
}

func (d *DestHandler) verifyChecksum(expected uint32, size uint64) {
	tp := &d.tp
	d.setStep(StepTransferCompletion)
	if tp.createFailed {
		return
	}

	if !tp.skipChecksum {
		sum := tp.Checksum.Sum()
		if !tp.Checksum.InOrder() || tp.overlap {
			var err error
			if sum, err = d.recomputeChecksum(size); err != nil {
				d.drop(err, "Failed to read back received file", "path", tp.DestName)
				return
			}
		}
		if sum != expected {
			d.log.Warn(d, "File checksum mismatch", "id", tp.Id,
				"expected", fmt.Sprintf("%08x", expected), "actual", fmt.Sprintf("%08x", sum))
			d.checkFailed(cfdp.FileChecksumFailure)
			return
		}
	}

	if !tp.segments.complete(size) {
		d.log.Warn(d, "File data incomplete", "id", tp.Id, "received", tp.Progress, "size", size)
		return
	}
	tp.DeliveryCode = cfdp.DataComplete
}

// checkFailed ends the transaction with cc after the received file failed
// a check against the EOF PDU. The fault handler of cc still runs.
func (d *DestHandler) checkFailed(cc cfdp.ConditionCode) {
	tp := &d.tp
	tp.ConditionCode = cc
	tp.DeliveryCode = cfdp.DataIncomplete
	tp.FaultLocation.Set(d.p.Cfg.Id)
	d.declareFault(cc)
}

// recomputeChecksum resets the running checksum and feeds it the received
// file, for checksums that depend on the order data arrived in.
func (d *DestHandler) recomputeChecksum(size uint64) (uint32, error) {
	cs := d.tp.Checksum
	cs.Reset()
	buf := make([]byte, checksumReadChunk)
	for off := uint64(0); off < size; {
		chunk := uint64(len(buf))
		if size-off < chunk {
			chunk = size - off
		}
		n, err := d.p.Fs.Read(d.tp.DestName, off, buf[:chunk])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			break
		}
		cs.Update(off, buf[:n])
		off += uint64(n)
	}
	return cs.Sum(), nil
}

func (d *DestHandler) handlePrompt(raw []byte) {
	p, err := cfdp.ParsePromptPdu(raw)
	if err != nil {
		d.drop(err, "Invalid prompt PDU")
		return
	}
	tp := &d.tp
	if tp.mode() != cfdp.Acknowledged {
		d.log.Debug(d, "Ignoring prompt in unacknowledged mode", "id", tp.Id)
		return
	}
	if tp.Suspended {
		d.log.Debug(d, "Ignoring prompt while suspended", "id", tp.Id)
		return
	}

	switch p.Info.Response {
	case cfdp.PromptNak:
		d.sendNak()
	case cfdp.PromptKeepAlive:
		conf := tp.PduConf.Reply()
		d.send(cfdp.NewKeepAlivePduCreator(&conf, &cfdp.KeepAliveInfo{
			Progress: d.fileSize(tp.Progress),
		}))
	}
}

// sendNak requests every missing range up to the end of scope: the EOF
// file size, or the received data if no EOF arrived yet.
func (d *DestHandler) sendNak() {
	tp := &d.tp
	if tp.Suspended {
		return
	}
	scope := tp.segments.end()
	if eof, ok := tp.eof.Get(); ok {
		scope = eof.FileSize.Value()
	}

	info := cfdp.NakInfo{
		StartOfScope: d.fileSize(0),
		EndOfScope:   d.fileSize(scope),
	}
	for _, gap := range tp.segments.missing(scope, d.p.MaxSegmentRequests) {
		info.SegmentRequests = append(info.SegmentRequests, cfdp.SegmentRequest{
			Start: d.fileSize(gap.start),
			End:   d.fileSize(gap.end),
		})
	}
	d.log.Debug(d, "Sending NAK", "id", tp.Id, "requests", len(info.SegmentRequests))

	conf := tp.PduConf.Reply()
	d.send(cfdp.NewNakPduCreator(&conf, &info))
}

func (d *DestHandler) sendEofAck() {
	tp := &d.tp
	eof := tp.eof.Unwrap()
	ack, err := cfdp.NewAckInfo(cfdp.DirectiveEof, eof.ConditionCode, cfdp.TransactionStatusActive)
	if err != nil {
		d.addError(err)
	} else {
		conf := tp.PduConf.Reply()
		d.send(cfdp.NewAckPduCreator(&conf, &ack))
	}

	if tp.ConditionCode != cfdp.NoError {
		d.setStep(StepTransferCompletion)
		return
	}
	d.afterEof(true)
}

func (d *DestHandler) transferCompletion() {
	tp := &d.tp
	if tp.DeliveryCode == cfdp.DataComplete && tp.ConditionCode == cfdp.NoError {
		d.runFilestoreRequests()
	}
	if tp.FileStatus == cfdp.FileStatusUnreported {
		tp.FileStatus = cfdp.RetainedInFilestore
	}

	if d.p.Cfg.Indications.TransactionFinished {
		d.p.User.TransactionFinishedIndication(TransactionFinishedParams{
			Id:            tp.Id,
			ConditionCode: tp.ConditionCode,
			DeliveryCode:  tp.DeliveryCode,
			FileStatus:    tp.FileStatus,
			FsResponses:   tp.FsResponses,
		})
	}

	if tp.mode() == cfdp.Acknowledged || tp.ClosureRequested {
		d.setStep(StepSendingFinishedPdu)
		return
	}
	d.finish()
}

// runFilestoreRequests executes the requests of the transaction in order.
// After the first failure the remaining requests are not performed.
func (d *DestHandler) runFilestoreRequests() {
	tp := &d.tp
	if len(tp.FsRequests) == 0 {
		return
	}
	store, supported := d.p.Fs.(Filestore)
	failed := !supported
	if !supported {
		d.log.Warn(d, "Filesystem does not execute filestore requests", "id", tp.Id)
	}

	for _, req := range tp.FsRequests {
		resp := cfdp.FilestoreResponseTlv{
			Action:     req.Action,
			Status:     cfdp.FilestoreNotPerformed,
			FirstFile:  req.FirstFile,
			SecondFile: req.SecondFile,
		}
		if !failed {
			status, msg := store.PerformFilestoreAction(req.Action, req.FirstFile.String(), req.SecondFile.String())
			resp.Status = status
			if lv, err := cfdp.NewStringLv(msg); err == nil {
				resp.Message = lv
			}
			failed = status != cfdp.FilestoreSuccessful
			d.log.Info(d, "Filestore request", "id", tp.Id, "action", req.Action,
				"file", req.FirstFile, "status", status)
		}
		tp.FsResponses = append(tp.FsResponses, resp)
	}
}

func (d *DestHandler) sendFinished() {
	tp := &d.tp
	info := cfdp.FinishedInfo{
		ConditionCode: tp.ConditionCode,
		DeliveryCode:  tp.DeliveryCode,
		FileStatus:    tp.FileStatus,
		FsResponses:   tp.FsResponses,
	}
	info.FaultLocation = optional.Map(tp.FaultLocation, func(id cfdp.EntityId) cfdp.EntityIdTlv {
		return cfdp.EntityIdTlv{Id: id}
	})
	conf := tp.PduConf.Reply()
	d.send(cfdp.NewFinishedPduCreator(&conf, &info))
	d.finish()
}

func (d *DestHandler) finish() {
	d.log.Info(d, "Transaction finished", "id", d.tp.Id, "condition", d.tp.ConditionCode,
		"delivery", d.tp.DeliveryCode, "status", d.tp.FileStatus)
	d.resetTransaction()
}

func (d *DestHandler) fileSize(v uint64) cfdp.FileSize {
	fs, _ := cfdp.NewFileSize(v, d.tp.PduConf.LargeFile)
	return fs
}
