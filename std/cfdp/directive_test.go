package cfdp_test

import (
	"fmt"
	"testing"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/types/optional"
	tu "github.com/kaidokert/fsfw-sub000/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

var widths = []cfdp.Width{cfdp.WidthOneByte, cfdp.WidthTwoBytes, cfdp.WidthFourBytes}

// testConfigs returns one config per combination of ID width, sequence
// number width and large file flag.
func testConfigs() []*cfdp.PduConfig {
	var out []*cfdp.PduConfig
	for _, idw := range widths {
		for _, sw := range widths {
			for _, large := range []bool{false, true} {
				out = append(out, &cfdp.PduConfig{
					SourceId:  cfdp.MustEntityId(idw, idw.MaxValue()),
					DestId:    cfdp.MustEntityId(idw, 1),
					SeqNum:    cfdp.MustSeqNum(sw, sw.MaxValue()-1),
					Mode:      cfdp.Acknowledged,
					LargeFile: large,
				})
			}
		}
	}
	return out
}

func confName(c *cfdp.PduConfig) string {
	return fmt.Sprintf("id%d-seq%d-large%v", c.EntityIdWidth(), c.SeqNum.Width(), c.LargeFile)
}

// rawDirective builds a directive PDU around a hand-written payload.
func rawDirective(conf *cfdp.PduConfig, code cfdp.DirectiveCode, payload []byte) []byte {
	h := cfdp.NewHeaderCreator(conf, cfdp.PduTypeFileDirective)
	tu.NoErr(0, h.SetPduDataFieldLen(1+len(payload)))
	buf := make([]byte, h.WholePduSize())
	n := tu.NoErr(h.Serialize(buf))
	buf[n] = uint8(code)
	copy(buf[n+1:], payload)
	return buf
}

type directiveCase struct {
	name    string
	creator func(conf *cfdp.PduConfig) cfdp.PduCreator
	check   func(t *testing.T, conf *cfdp.PduConfig, buf []byte)
	parse   func(buf []byte) error
}

func parseErr[T any](_ T, err error) error { return err }

func directiveCases() []directiveCase {
	metadata := func(conf *cfdp.PduConfig) *cfdp.MetadataInfo {
		return &cfdp.MetadataInfo{
			ClosureRequested: true,
			ChecksumType:     cfdp.ChecksumCrc32,
			FileSize:         cfdp.MustFileSize(12345, conf.LargeFile),
			SourceFileName:   cfdp.MustStringLv("hello.txt"),
			DestFileName:     cfdp.MustStringLv("hello-cpy.txt"),
			Options: []cfdp.Option{
				cfdp.MessageToUserTlv{Message: []byte("msg")},
				cfdp.FaultHandlerOverrideTlv{Condition: cfdp.NakLimitReached, Handler: cfdp.NoticeOfSuspension},
			},
		}
	}
	fileData := func(conf *cfdp.PduConfig) *cfdp.FileDataInfo {
		return &cfdp.FileDataInfo{
			Offset:                  cfdp.MustFileSize(1024, conf.LargeFile),
			Data:                    []byte("file data bytes"),
			HasSegmentMetadata:      true,
			RecordContinuationState: cfdp.StartAndEnd,
			SegmentMetadata:         []byte{1, 2, 3},
		}
	}
	eof := func(conf *cfdp.PduConfig) *cfdp.EofInfo {
		return &cfdp.EofInfo{
			ConditionCode: cfdp.FileChecksumFailure,
			Checksum:      0xdeadbeef,
			FileSize:      cfdp.MustFileSize(4096, conf.LargeFile),
			FaultLocation: optional.Some(cfdp.EntityIdTlv{Id: conf.DestId}),
		}
	}
	ack := func(*cfdp.PduConfig) *cfdp.AckInfo {
		info, _ := cfdp.NewAckInfo(cfdp.DirectiveFinished, cfdp.NoError, cfdp.TransactionStatusTerminated)
		return &info
	}
	nak := func(conf *cfdp.PduConfig) *cfdp.NakInfo {
		return &cfdp.NakInfo{
			StartOfScope: cfdp.MustFileSize(0, conf.LargeFile),
			EndOfScope:   cfdp.MustFileSize(2000, conf.LargeFile),
			SegmentRequests: []cfdp.SegmentRequest{
				{Start: cfdp.MustFileSize(100, conf.LargeFile), End: cfdp.MustFileSize(200, conf.LargeFile)},
				{Start: cfdp.MustFileSize(1500, conf.LargeFile), End: cfdp.MustFileSize(2000, conf.LargeFile)},
			},
		}
	}
	finished := func(conf *cfdp.PduConfig) *cfdp.FinishedInfo {
		return &cfdp.FinishedInfo{
			ConditionCode: cfdp.FilestoreRejection,
			DeliveryCode:  cfdp.DataIncomplete,
			FileStatus:    cfdp.DiscardedFilestoreRejection,
			FsResponses: []cfdp.FilestoreResponseTlv{{
				Action:    cfdp.FilestoreDeleteFile,
				Status:    cfdp.DeleteFileDoesNotExist,
				FirstFile: cfdp.MustStringLv("gone.bin"),
				Message:   cfdp.MustStringLv("no such file"),
			}},
			FaultLocation: optional.Some(cfdp.EntityIdTlv{Id: conf.DestId}),
		}
	}

	return []directiveCase{{
		name:    "metadata",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewMetadataPduCreator(c, metadata(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseMetadataPdu(buf, 4))
			require.Equal(t, cfdp.DirectiveMetadata, r.Directive())
			require.Equal(t, *metadata(c), r.Info)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseMetadataPdu(buf, 0)) },
	}, {
		name:    "file-data",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewFileDataPduCreator(c, fileData(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseFileDataPdu(buf))
			require.Equal(t, cfdp.PduTypeFileData, r.PduType())
			require.Equal(t, cfdp.SegmentMetadataPresent, r.SegmentMetadataFlag())
			require.Equal(t, *fileData(c), r.Info)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseFileDataPdu(buf)) },
	}, {
		name:    "eof",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewEofPduCreator(c, eof(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseEofPdu(buf))
			require.Equal(t, *eof(c), r.Info)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseEofPdu(buf)) },
	}, {
		name:    "ack",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewAckPduCreator(c, ack(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseAckPdu(buf))
			require.Equal(t, *ack(c), r.Info)
			require.Equal(t, uint8(1), r.Info.DirectiveSubtype)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseAckPdu(buf)) },
	}, {
		name:    "nak",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewNakPduCreator(c, nak(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseNakPdu(buf, 2))
			require.Equal(t, *nak(c), r.Info)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseNakPdu(buf, 0)) },
	}, {
		name:    "finished",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator { return cfdp.NewFinishedPduCreator(c, finished(c)) },
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseFinishedPdu(buf, 2))
			require.Equal(t, *finished(c), r.Info)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseFinishedPdu(buf, 0)) },
	}, {
		name: "prompt",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator {
			return cfdp.NewPromptPduCreator(c, &cfdp.PromptInfo{Response: cfdp.PromptKeepAlive})
		},
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParsePromptPdu(buf))
			require.Equal(t, cfdp.PromptKeepAlive, r.Info.Response)
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParsePromptPdu(buf)) },
	}, {
		name: "keep-alive",
		creator: func(c *cfdp.PduConfig) cfdp.PduCreator {
			return cfdp.NewKeepAlivePduCreator(c, &cfdp.KeepAliveInfo{Progress: cfdp.MustFileSize(777, c.LargeFile)})
		},
		check: func(t *testing.T, c *cfdp.PduConfig, buf []byte) {
			r := tu.NoErr(cfdp.ParseKeepAlivePdu(buf))
			require.Equal(t, uint64(777), r.Info.Progress.Value())
			require.Equal(t, c.LargeFile, r.Info.Progress.IsLarge())
		},
		parse: func(buf []byte) error { return parseErr(cfdp.ParseKeepAlivePdu(buf)) },
	}}
}

func TestDirectiveRoundTrip(t *testing.T) {
	for _, tc := range directiveCases() {
		for _, conf := range testConfigs() {
			t.Run(tc.name+"/"+confName(conf), func(t *testing.T) {
				tu.SetT(t)
				buf := tu.NoErr(cfdp.Encode(tc.creator(conf)))
				require.Len(t, buf, tc.creator(conf).WholePduSize())

				h := tu.NoErr(cfdp.ParseHeader(buf))
				require.Equal(t, *conf, h.Config())
				require.Equal(t, len(buf), h.WholePduSize())
				tc.check(t, conf, buf)
			})
		}
	}
}

func TestDirectiveExactBuffer(t *testing.T) {
	for _, tc := range directiveCases() {
		for _, conf := range testConfigs() {
			t.Run(tc.name+"/"+confName(conf), func(t *testing.T) {
				c := tc.creator(conf)
				size := c.WholePduSize()

				_, err := c.Serialize(make([]byte, size-1))
				require.ErrorIs(t, err, cfdp.ErrBufferTooShort)

				n, err := c.Serialize(make([]byte, size))
				require.NoError(t, err)
				require.Equal(t, size, n)
			})
		}
	}
}

func TestDirectiveTruncatedStream(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]
	for _, tc := range directiveCases() {
		buf := tu.NoErr(cfdp.Encode(tc.creator(conf)))
		require.NoError(t, tc.parse(buf), tc.name)
		for _, n := range []int{len(buf) - 1, cfdp.MinHeaderSize, cfdp.MinHeaderSize - 1, 0} {
			require.ErrorIs(t, tc.parse(buf[:n]), cfdp.ErrStreamTooShort, tc.name)
		}
	}
}

func TestDirectiveWrongCode(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	eof := tu.NoErr(cfdp.Encode(cfdp.NewEofPduCreator(conf, &cfdp.EofInfo{})))
	_, err := cfdp.ParseMetadataPdu(eof, 0)
	require.ErrorIs(t, err, cfdp.ErrInvalidDirectiveField)
	_, err = cfdp.ParseFileDataPdu(eof)
	require.ErrorIs(t, err, cfdp.ErrInvalidDirectiveField)

	_, err = cfdp.ParseFileDirective(rawDirective(conf, cfdp.DirectiveCode(0x01), nil))
	require.ErrorIs(t, err, cfdp.ErrInvalidDirectiveField)

	fd := tu.NoErr(cfdp.Encode(cfdp.NewFileDataPduCreator(conf, &cfdp.FileDataInfo{Data: []byte{1}})))
	_, err = cfdp.ParseFileDirective(fd)
	require.ErrorIs(t, err, cfdp.ErrInvalidDirectiveField)

	// declared data field too short for the EOF fields
	_, err = cfdp.ParseEofPdu(rawDirective(conf, cfdp.DirectiveEof, []byte{0, 0, 0}))
	require.ErrorIs(t, err, cfdp.ErrInvalidPduDataFieldLen)
}

func TestAckAcceptance(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	statuses := []cfdp.AckTransactionStatus{
		cfdp.TransactionStatusUndefined,
		cfdp.TransactionStatusActive,
		cfdp.TransactionStatusTerminated,
		cfdp.TransactionStatusUnrecognized,
	}
	for _, acked := range []cfdp.DirectiveCode{cfdp.DirectiveEof, cfdp.DirectiveFinished} {
		for _, status := range statuses {
			info := tu.NoErr(cfdp.NewAckInfo(acked, cfdp.CancelRequestReceived, status))
			buf := tu.NoErr(cfdp.Encode(cfdp.NewAckPduCreator(conf, &info)))
			r := tu.NoErr(cfdp.ParseAckPdu(buf))
			require.Equal(t, info, r.Info)
		}
	}

	_, err := cfdp.NewAckInfo(cfdp.DirectiveMetadata, cfdp.NoError, cfdp.TransactionStatusActive)
	require.ErrorIs(t, err, cfdp.ErrInvalidAckDirectiveFields)

	bad := &cfdp.AckInfo{AckedDirective: cfdp.DirectiveNak}
	_, err = cfdp.Encode(cfdp.NewAckPduCreator(conf, bad))
	require.ErrorIs(t, err, cfdp.ErrInvalidAckDirectiveFields)

	for _, d := range []cfdp.DirectiveCode{cfdp.DirectiveMetadata, cfdp.DirectiveNak, cfdp.DirectivePrompt, cfdp.DirectiveAck} {
		raw := rawDirective(conf, cfdp.DirectiveAck, []byte{uint8(d) << 4, 0x01})
		_, err = cfdp.ParseAckPdu(raw)
		require.ErrorIs(t, err, cfdp.ErrInvalidAckDirectiveFields, d.String())
	}
}

func TestEofFaultLocation(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	info := &cfdp.EofInfo{
		ConditionCode: cfdp.NoError,
		Checksum:      1,
		FileSize:      cfdp.MustFileSize(10, false),
		FaultLocation: optional.Some(cfdp.EntityIdTlv{Id: conf.SourceId}),
	}
	c := cfdp.NewEofPduCreator(conf, info)
	require.Equal(t, cfdp.MinHeaderSize+1+1+4+4, c.WholePduSize())
	r := tu.NoErr(cfdp.ParseEofPdu(tu.NoErr(cfdp.Encode(c))))
	require.False(t, r.Info.FaultLocation.IsSet())

	payload := []byte{0x00, 0, 0, 0, 1, 0, 0, 0, 10, 0x06, 0x01, 0x05}
	_, err := cfdp.ParseEofPdu(rawDirective(conf, cfdp.DirectiveEof, payload))
	require.ErrorIs(t, err, cfdp.ErrInvalidTlvType)

	payload[0] = uint8(cfdp.FileSizeError) << 4
	r = tu.NoErr(cfdp.ParseEofPdu(rawDirective(conf, cfdp.DirectiveEof, payload)))
	require.Equal(t, uint32(5), r.Info.FaultLocation.Unwrap().Id.Value())

	payload[9] = uint8(cfdp.TlvFlowLabel)
	_, err = cfdp.ParseEofPdu(rawDirective(conf, cfdp.DirectiveEof, payload))
	require.ErrorIs(t, err, cfdp.ErrInvalidTlvType)
}

func TestFinishedTlvOrdering(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	status := func(cc cfdp.ConditionCode) byte { return uint8(cc) << 4 }
	faultLoc := []byte{0x06, 0x01, 0x05}
	fsResp := []byte{0x01, 0x04, 0x10, 0x01, 'a', 0x00}
	cat := func(parts ...[]byte) []byte {
		var out []byte
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}

	r := tu.NoErr(cfdp.ParseFinishedPdu(rawDirective(conf, cfdp.DirectiveFinished,
		cat([]byte{status(cfdp.FileChecksumFailure)}, fsResp, fsResp, faultLoc)), 2))
	require.Len(t, r.Info.FsResponses, 2)
	require.Equal(t, "a", r.Info.FsResponses[1].FirstFile.String())
	require.True(t, r.Info.FaultLocation.IsSet())

	cases := []struct {
		name    string
		payload []byte
		err     error
	}{
		{"fault location with no error", cat([]byte{status(cfdp.NoError)}, faultLoc), cfdp.ErrInvalidTlvType},
		{"fault location with unsupported checksum", cat([]byte{status(cfdp.UnsupportedChecksumType)}, faultLoc), cfdp.ErrInvalidTlvType},
		{"response after fault location", cat([]byte{status(cfdp.FileSizeError)}, faultLoc, fsResp), cfdp.ErrInvalidTlvType},
		{"two fault locations", cat([]byte{status(cfdp.FileSizeError)}, faultLoc, faultLoc), cfdp.ErrInvalidTlvType},
		{"message to user", cat([]byte{status(cfdp.NoError)}, []byte{0x02, 0x01, 'x'}), cfdp.ErrInvalidTlvType},
		{"too many responses", cat([]byte{status(cfdp.NoError)}, fsResp, fsResp, fsResp), cfdp.ErrFinishedCantParseFsResponses},
	}
	for _, tc := range cases {
		_, err := cfdp.ParseFinishedPdu(rawDirective(conf, cfdp.DirectiveFinished, tc.payload), 2)
		require.ErrorIs(t, err, tc.err, tc.name)
	}

	info := &cfdp.FinishedInfo{
		ConditionCode: cfdp.UnsupportedChecksumType,
		DeliveryCode:  cfdp.DataComplete,
		FileStatus:    cfdp.RetainedInFilestore,
		FaultLocation: optional.Some(cfdp.EntityIdTlv{Id: conf.DestId}),
	}
	r = tu.NoErr(cfdp.ParseFinishedPdu(tu.NoErr(cfdp.Encode(cfdp.NewFinishedPduCreator(conf, info))), 0))
	require.False(t, r.Info.FaultLocation.IsSet())
	require.Equal(t, cfdp.RetainedInFilestore, r.Info.FileStatus)
}

func TestMetadataOptions(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	info := &cfdp.MetadataInfo{
		ChecksumType:   cfdp.ChecksumNull,
		SourceFileName: cfdp.MustStringLv("src"),
		DestFileName:   cfdp.MustStringLv(""),
		Options: []cfdp.Option{
			cfdp.FlowLabelTlv{Label: []byte{1}},
			cfdp.FlowLabelTlv{Label: []byte{2}},
		},
	}
	buf := tu.NoErr(cfdp.Encode(cfdp.NewMetadataPduCreator(conf, info)))
	r := tu.NoErr(cfdp.ParseMetadataPdu(buf, 0))
	require.Len(t, r.Info.Options, 2)
	require.False(t, r.Info.ClosureRequested)
	require.Equal(t, 0, r.Info.DestFileName.Len())

	_, err := cfdp.ParseMetadataPdu(buf, 1)
	require.ErrorIs(t, err, cfdp.ErrMetadataCantParseOptions)

	payload := []byte{0x0f, 0, 0, 0, 0, 0x00, 0x00, 0x03, 0x00}
	_, err = cfdp.ParseMetadataPdu(rawDirective(conf, cfdp.DirectiveMetadata, payload), 0)
	require.ErrorIs(t, err, cfdp.ErrMetadataCantParseOptions)
	require.ErrorIs(t, err, cfdp.ErrInvalidTlvType)

	_, err = cfdp.ParseMetadataPdu(rawDirective(conf, cfdp.DirectiveMetadata, payload[:6]), 0)
	require.ErrorIs(t, err, cfdp.ErrInvalidPduDataFieldLen)
}

func TestNakSegmentRequests(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	info := &cfdp.NakInfo{
		StartOfScope: cfdp.MustFileSize(0, false),
		EndOfScope:   cfdp.MustFileSize(300, false),
	}
	for i := range 3 {
		info.SegmentRequests = append(info.SegmentRequests, cfdp.SegmentRequest{
			Start: cfdp.MustFileSize(uint64(i*100), false),
			End:   cfdp.MustFileSize(uint64(i*100+50), false),
		})
	}
	buf := tu.NoErr(cfdp.Encode(cfdp.NewNakPduCreator(conf, info)))

	r := tu.NoErr(cfdp.ParseNakPdu(buf, 3))
	require.Equal(t, *info, r.Info)
	_, err := cfdp.ParseNakPdu(buf, 2)
	require.ErrorIs(t, err, cfdp.ErrNakCantParseOptions)

	// half a segment request
	payload := []byte{0, 0, 0, 0, 0, 0, 0, 9, 0, 0, 0, 1}
	_, err = cfdp.ParseNakPdu(rawDirective(conf, cfdp.DirectiveNak, payload), 0)
	require.ErrorIs(t, err, cfdp.ErrNakCantParseOptions)
}

func TestFileDataSegmentMetadata(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	info := &cfdp.FileDataInfo{
		Offset:             cfdp.MustFileSize(0, false),
		Data:               []byte{9},
		HasSegmentMetadata: true,
		SegmentMetadata:    make([]byte, 64),
	}
	_, err := cfdp.Encode(cfdp.NewFileDataPduCreator(conf, info))
	require.ErrorIs(t, err, cfdp.ErrValueTooLarge)

	info.HasSegmentMetadata = false
	c := cfdp.NewFileDataPduCreator(conf, info)
	require.Equal(t, cfdp.FileDataOverhead(conf)+1, c.WholePduSize())

	large := *conf
	large.LargeFile = true
	require.Equal(t, cfdp.FileDataOverhead(conf)+4, cfdp.FileDataOverhead(&large))

	tooBig := &cfdp.FileDataInfo{Offset: cfdp.MustFileSize(1<<33, true)}
	_, err = cfdp.Encode(cfdp.NewFileDataPduCreator(conf, tooBig))
	require.ErrorIs(t, err, cfdp.ErrFileSizeTooLarge)
}

func TestTruncatedSubfields(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]
	eofHead := []byte{uint8(cfdp.FileSizeError) << 4, 0, 0, 0, 1, 0, 0, 0, 10}

	cases := []struct {
		name  string
		parse func() error
		err   error
	}{
		{"finished response TLV", func() error {
			payload := []byte{uint8(cfdp.NoError) << 4, uint8(cfdp.TlvFilestoreResponse), 0x05, 0x10}
			return tu.Err(cfdp.ParseFinishedPdu(rawDirective(conf, cfdp.DirectiveFinished, payload), 0))
		}, cfdp.ErrFinishedCantParseFsResponses},
		{"finished response file name", func() error {
			payload := []byte{uint8(cfdp.NoError) << 4, uint8(cfdp.TlvFilestoreResponse), 0x03, 0x10, 0x05, 'a'}
			return tu.Err(cfdp.ParseFinishedPdu(rawDirective(conf, cfdp.DirectiveFinished, payload), 0))
		}, cfdp.ErrFinishedCantParseFsResponses},
		{"eof fault location", func() error {
			payload := append(append([]byte{}, eofHead...), uint8(cfdp.TlvEntityId), 0x02, 0x05)
			return tu.Err(cfdp.ParseEofPdu(rawDirective(conf, cfdp.DirectiveEof, payload)))
		}, cfdp.ErrInvalidPduDataFieldLen},
		{"metadata option", func() error {
			payload := []byte{0x0f, 0, 0, 0, 0, 0x00, 0x00, uint8(cfdp.TlvMessageToUser), 0x05, 'x'}
			return tu.Err(cfdp.ParseMetadataPdu(rawDirective(conf, cfdp.DirectiveMetadata, payload), 0))
		}, cfdp.ErrMetadataCantParseOptions},
	}
	for _, tc := range cases {
		err := tc.parse()
		require.ErrorIs(t, err, tc.err, tc.name)
		require.NotErrorIs(t, err, cfdp.ErrStreamTooShort, tc.name)
	}
}

func TestEncodeOversizedDataField(t *testing.T) {
	tu.SetT(t)
	conf := testConfigs()[0]

	fd := cfdp.NewFileDataPduCreator(conf, &cfdp.FileDataInfo{
		Offset: cfdp.MustFileSize(0, conf.LargeFile),
		Data:   make([]byte, 70000),
	})
	require.Equal(t, -1, fd.WholePduSize())
	require.ErrorIs(t, tu.Err(cfdp.Encode(fd)), cfdp.ErrInvalidPduDataFieldLen)

	var opts []cfdp.Option
	for range 300 {
		opts = append(opts, cfdp.MessageToUserTlv{Message: make([]byte, 250)})
	}
	md := cfdp.NewMetadataPduCreator(conf, &cfdp.MetadataInfo{
		ChecksumType:   cfdp.ChecksumNull,
		FileSize:       cfdp.MustFileSize(0, conf.LargeFile),
		SourceFileName: cfdp.MustStringLv("a"),
		DestFileName:   cfdp.MustStringLv("b"),
		Options:        opts,
	})
	require.Equal(t, -1, md.WholePduSize())
	require.ErrorIs(t, tu.Err(cfdp.Encode(md)), cfdp.ErrInvalidPduDataFieldLen)

	// the largest data field still encodes
	fd.Info.Data = make([]byte, 65535-4)
	pdu := tu.NoErr(cfdp.Encode(fd))
	require.Equal(t, 65535, tu.NoErr(cfdp.ParseHeader(pdu)).PduDataFieldLen())
}
