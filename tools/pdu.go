package tools

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/utils"
	"github.com/kaidokert/fsfw-sub000/std/utils/toolutils"
	"github.com/spf13/cobra"
)

type PduDump struct{}

func CmdPdu() *cobra.Command {
	pd := PduDump{}

	return &cobra.Command{
		GroupID: "tools",
		Use:     "pdu HEX",
		Short:   "Decode and print a CFDP PDU",
		Long: `Decode a CFDP PDU given as a hex string.
Whitespace in the hex string is ignored.`,
		Args:    cobra.ExactArgs(1),
		Example: `  cfdpd pdu 2400080011000107040a`,
		Run:     pd.run,
	}
}

func (pd *PduDump) String() string {
	return "pdu"
}

func (pd *PduDump) run(_ *cobra.Command, args []string) {
	raw, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
	if err != nil {
		log.Fatal(pd, "Invalid hex string", "err", err)
		return
	}
	if err := PrintPdu(os.Stdout, raw); err != nil {
		log.Fatal(pd, "Unable to decode PDU", "err", err)
		return
	}
}

// PrintPdu prints the header and the type specific fields of one PDU.
func PrintPdu(w io.Writer, raw []byte) error {
	h, err := cfdp.ParseHeader(raw)
	if err != nil {
		return err
	}

	p := toolutils.StatusPrinter{File: w, Padding: 20}
	p.Section("header")
	p.Print("type", h.PduType())
	p.Print("direction", h.Direction())
	p.Print("mode", h.Mode())
	p.Print("crc", h.CrcFlag())
	p.Print("largeFile", h.LargeFile())
	p.Print("dataFieldLen", h.PduDataFieldLen())
	p.Print("segmentMetadata", h.SegmentMetadataFlag() == cfdp.SegmentMetadataPresent)
	p.Print("entityIdWidth", int(h.EntityIdWidth()))
	p.Print("source", h.SourceId().Value())
	p.Print("seqNum", h.SeqNum().Value())
	p.Print("dest", h.DestId().Value())
	p.Print("transaction", h.TransactionId())

	if h.PduType() == cfdp.PduTypeFileData {
		fd, err := cfdp.ParseFileDataPdu(raw)
		if err != nil {
			return err
		}
		p.Section("file-data")
		p.Print("offset", fd.Info.Offset.Value())
		p.Print("length", len(fd.Info.Data))
		if fd.Info.HasSegmentMetadata {
			p.Print("recordState", fd.Info.RecordContinuationState)
			p.Print("segmentMetadata", hex.EncodeToString(fd.Info.SegmentMetadata))
		}
		return nil
	}

	d, err := cfdp.ParseFileDirective(raw)
	if err != nil {
		return err
	}
	p.Section(d.Directive().String())

	switch d.Directive() {
	case cfdp.DirectiveMetadata:
		md, err := cfdp.ParseMetadataPdu(raw, 0)
		if err != nil {
			return err
		}
		p.Print("closureRequested", md.Info.ClosureRequested)
		p.Print("checksumType", md.Info.ChecksumType)
		p.Print("fileSize", md.Info.FileSize.Value())
		p.Print("sourceFile", md.Info.SourceFileName.String())
		p.Print("destFile", md.Info.DestFileName.String())
		for _, opt := range md.Info.Options {
			printOption(p, opt)
		}

	case cfdp.DirectiveEof:
		eof, err := cfdp.ParseEofPdu(raw)
		if err != nil {
			return err
		}
		p.Print("condition", eof.Info.ConditionCode)
		p.Print("checksum", fmt.Sprintf("%08x", eof.Info.Checksum))
		p.Print("fileSize", eof.Info.FileSize.Value())
		if loc, ok := eof.Info.FaultLocation.Get(); ok {
			p.Print("faultLocation", loc.Id.Value())
		}

	case cfdp.DirectiveFinished:
		fin, err := cfdp.ParseFinishedPdu(raw, 0)
		if err != nil {
			return err
		}
		p.Print("condition", fin.Info.ConditionCode)
		p.Print("delivery", fin.Info.DeliveryCode)
		p.Print("fileStatus", fin.Info.FileStatus)
		for _, r := range fin.Info.FsResponses {
			printOption(p, r)
		}
		if loc, ok := fin.Info.FaultLocation.Get(); ok {
			p.Print("faultLocation", loc.Id.Value())
		}

	case cfdp.DirectiveAck:
		ack, err := cfdp.ParseAckPdu(raw)
		if err != nil {
			return err
		}
		p.Print("acked", ack.Info.AckedDirective)
		p.Print("subtype", ack.Info.DirectiveSubtype)
		p.Print("condition", ack.Info.ConditionCode)
		p.Print("status", ack.Info.TransactionStatus)

	case cfdp.DirectiveNak:
		nak, err := cfdp.ParseNakPdu(raw, 0)
		if err != nil {
			return err
		}
		p.Print("scope", fmt.Sprintf("[%d, %d)", nak.Info.StartOfScope.Value(), nak.Info.EndOfScope.Value()))
		for _, s := range nak.Info.SegmentRequests {
			p.Print("segment", fmt.Sprintf("[%d, %d)", s.Start.Value(), s.End.Value()))
		}

	case cfdp.DirectivePrompt:
		pr, err := cfdp.ParsePromptPdu(raw)
		if err != nil {
			return err
		}
		p.Print("response", utils.If(pr.Info.Response == cfdp.PromptKeepAlive, "keep-alive", "nak"))

	case cfdp.DirectiveKeepAlive:
		ka, err := cfdp.ParseKeepAlivePdu(raw)
		if err != nil {
			return err
		}
		p.Print("progress", ka.Info.Progress.Value())
	}
	return nil
}

func printOption(p toolutils.StatusPrinter, opt cfdp.Option) {
	switch o := opt.(type) {
	case cfdp.FilestoreRequestTlv:
		p.Print("fsRequest", fmt.Sprintf("%s %q %q", o.Action, o.FirstFile.String(), o.SecondFile.String()))
	case cfdp.FilestoreResponseTlv:
		p.Print("fsResponse", fmt.Sprintf("%s status=%d %q", o.Action, o.Status, o.FirstFile.String()))
	case cfdp.MessageToUserTlv:
		p.Print("messageToUser", hex.EncodeToString(o.Message))
	case cfdp.FaultHandlerOverrideTlv:
		p.Print("faultOverride", fmt.Sprintf("%s=%s", o.Condition, o.Handler))
	default:
		p.Print("option", opt.TlvType())
	}
}
