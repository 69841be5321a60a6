package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/engine/face"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/utils"
	"github.com/spf13/cobra"
)

type PutFile struct {
	to       string
	sourceId uint32
	destId   uint32
	width    uint8
	seq      uint32
	segment  int
	closure  bool
	timeout  int
}

func CmdPut() *cobra.Command {
	pf := PutFile{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "put FILE DEST-NAME",
		Short:   "Send a file in an unacknowledged transaction",
		Long: `Send a file to a remote CFDP entity over UDP.
The file is sent as Metadata, File Data and EOF PDUs without retransmission.`,
		Args:    cobra.ExactArgs(2),
		Example: `  cfdpd put image.bin images/image.bin --to 127.0.0.1:4014 --source-id 1 --dest-id 2`,
		Run:     pf.run,
	}

	cmd.Flags().StringVar(&pf.to, "to", "127.0.0.1:4014", "UDP address of the receiving entity")
	cmd.Flags().Uint32Var(&pf.sourceId, "source-id", 1, "local entity ID")
	cmd.Flags().Uint32Var(&pf.destId, "dest-id", 2, "remote entity ID")
	cmd.Flags().Uint8Var(&pf.width, "id-width", 2, "entity ID width in bytes")
	cmd.Flags().Uint32Var(&pf.seq, "seq", 1, "transaction sequence number")
	cmd.Flags().IntVar(&pf.segment, "segment", 1024, "maximum file data bytes per PDU")
	cmd.Flags().BoolVar(&pf.closure, "closure", false, "request a Finished PDU and wait for it")
	cmd.Flags().IntVarP(&pf.timeout, "timeout", "t", 5000, "time to wait for the Finished PDU, in milliseconds")
	return cmd
}

func (pf *PutFile) String() string {
	return "put"
}

func (pf *PutFile) run(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatal(pf, "Unable to read file", "file", args[0], "err", err)
		return
	}

	width := cfdp.Width(pf.width)
	source, err := cfdp.NewEntityId(width, pf.sourceId)
	if err != nil {
		log.Fatal(pf, "Invalid source ID", "err", err)
		return
	}
	dest, err := cfdp.NewEntityId(width, pf.destId)
	if err != nil {
		log.Fatal(pf, "Invalid destination ID", "err", err)
		return
	}
	seq, err := cfdp.NewTransactionSeqNum(cfdp.MinWidth(pf.seq), pf.seq)
	if err != nil {
		log.Fatal(pf, "Invalid sequence number", "err", err)
		return
	}
	conf := cfdp.PduConfig{
		SourceId:  source,
		DestId:    dest,
		SeqNum:    seq,
		Mode:      cfdp.Unacknowledged,
		LargeFile: uint64(len(data)) > 0xffffffff,
	}

	finished := make(chan cfdp.FinishedInfo, 1)
	f := face.NewUDPFace(":0", pf.to)
	f.OnError(func(err error) {
		log.Warn(pf, "Face error", "err", err)
	})
	f.OnPacket(func(frame []byte) {
		fin, err := cfdp.ParseFinishedPdu(frame, 0)
		if err != nil || !fin.TransactionId().Equal(conf.TransactionId()) {
			return
		}
		select {
		case finished <- fin.Info:
		default:
		}
	})
	if err := f.Open(); err != nil {
		log.Fatal(pf, "Unable to open face", "err", err)
		return
	}
	defer f.Close()

	// one File Data PDU per datagram
	segment := utils.Clamp(pf.segment, 1, face.MaxDatagramSize-64)

	t1 := time.Now()
	sent, err := SendFile(f, conf, filepath.Base(args[0]), args[1], data, segment, pf.closure)
	if err != nil {
		log.Fatal(pf, "Unable to send file", "err", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Sent %d bytes in %d PDUs (%s)\n", len(data), sent, time.Since(t1))

	if !pf.closure {
		return
	}
	select {
	case fin := <-finished:
		fmt.Fprintf(os.Stderr, "Finished: condition=%s delivery=%s status=%s\n",
			fin.ConditionCode, fin.DeliveryCode, fin.FileStatus)
		if fin.ConditionCode != cfdp.NoError {
			os.Exit(1)
		}
	case <-time.After(time.Duration(pf.timeout) * time.Millisecond):
		log.Fatal(pf, "No Finished PDU received", "timeout", pf.timeout)
	}
}

// SendFile sends data as one unacknowledged transaction on f and returns
// the number of PDUs sent. The EOF carries a CRC-32 checksum.
func SendFile(f face.Face, conf cfdp.PduConfig, src, dst string, data []byte, segment int, closure bool) (int, error) {
	if segment <= 0 {
		return 0, fmt.Errorf("invalid segment length %d", segment)
	}
	srcLv, err := cfdp.NewStringLv(src)
	if err != nil {
		return 0, fmt.Errorf("source name: %w", err)
	}
	dstLv, err := cfdp.NewStringLv(dst)
	if err != nil {
		return 0, fmt.Errorf("destination name: %w", err)
	}
	size, err := cfdp.NewFileSize(uint64(len(data)), conf.LargeFile)
	if err != nil {
		return 0, err
	}
	cs, err := cfdp.NewChecksum(cfdp.ChecksumCrc32)
	if err != nil {
		return 0, err
	}

	sent := 0
	send := func(c cfdp.PduCreator) error {
		pdu, err := cfdp.Encode(c)
		if err != nil {
			return err
		}
		if err := f.Send(pdu); err != nil {
			return err
		}
		sent++
		return nil
	}

	err = send(cfdp.NewMetadataPduCreator(&conf, &cfdp.MetadataInfo{
		ClosureRequested: closure,
		ChecksumType:     cfdp.ChecksumCrc32,
		FileSize:         size,
		SourceFileName:   srcLv,
		DestFileName:     dstLv,
	}))
	if err != nil {
		return sent, err
	}

	for off := 0; off < len(data); off += segment {
		seg := data[off:min(off+segment, len(data))]
		cs.Update(uint64(off), seg)
		offset, err := cfdp.NewFileSize(uint64(off), conf.LargeFile)
		if err != nil {
			return sent, err
		}
		err = send(cfdp.NewFileDataPduCreator(&conf, &cfdp.FileDataInfo{Offset: offset, Data: seg}))
		if err != nil {
			return sent, err
		}
	}

	err = send(cfdp.NewEofPduCreator(&conf, &cfdp.EofInfo{
		ConditionCode: cfdp.NoError,
		Checksum:      cs.Sum(),
		FileSize:      size,
	}))
	return sent, err
}
