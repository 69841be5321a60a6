package cfdp_test

import (
	"testing"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	tu "github.com/kaidokert/fsfw-sub000/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncode(t *testing.T) {
	tu.SetT(t)

	conf := &cfdp.PduConfig{
		SourceId: cfdp.MustEntityId(cfdp.WidthOneByte, 1),
		DestId:   cfdp.MustEntityId(cfdp.WidthOneByte, 2),
		SeqNum:   cfdp.MustSeqNum(cfdp.WidthOneByte, 3),
		Mode:     cfdp.Unacknowledged,
	}
	buf := tu.NoErr(cfdp.Encode(cfdp.NewPromptPduCreator(conf, &cfdp.PromptInfo{Response: cfdp.PromptKeepAlive})))
	require.Equal(t, tu.Hex("240002000103020980"), buf)

	conf.SourceId = cfdp.MustEntityId(cfdp.WidthTwoBytes, 0x0102)
	conf.DestId = cfdp.MustEntityId(cfdp.WidthTwoBytes, 0x0304)
	conf.SeqNum = cfdp.MustSeqNum(cfdp.WidthFourBytes, 0xaabbccdd)
	conf.Mode = cfdp.Acknowledged
	conf.Direction = cfdp.TowardsSender
	conf.CrcFlag = true
	conf.LargeFile = true
	buf = tu.NoErr(cfdp.Encode(cfdp.NewPromptPduCreator(conf, &cfdp.PromptInfo{Response: cfdp.PromptNak})))
	require.Equal(t, tu.Hex("2b00021301"+"02aabbccdd0304"+"0900"), buf)
}

func TestHeaderParse(t *testing.T) {
	tu.SetT(t)

	conf := &cfdp.PduConfig{
		SourceId:  cfdp.MustEntityId(cfdp.WidthFourBytes, 0x10203040),
		DestId:    cfdp.MustEntityId(cfdp.WidthFourBytes, 7),
		SeqNum:    cfdp.MustSeqNum(cfdp.WidthTwoBytes, 513),
		Mode:      cfdp.Unacknowledged,
		LargeFile: true,
	}
	buf := tu.NoErr(cfdp.Encode(cfdp.NewKeepAlivePduCreator(conf, &cfdp.KeepAliveInfo{
		Progress: cfdp.MustFileSize(1<<40, true),
	})))

	h := tu.NoErr(cfdp.ParseHeader(buf))
	require.Equal(t, uint8(cfdp.ProtocolVersion), h.Version())
	require.Equal(t, cfdp.PduTypeFileDirective, h.PduType())
	require.Equal(t, cfdp.TowardsReceiver, h.Direction())
	require.Equal(t, cfdp.Unacknowledged, h.Mode())
	require.False(t, h.CrcFlag())
	require.True(t, h.LargeFile())
	require.Equal(t, 14, h.HeaderSize())
	require.Equal(t, 9, h.PduDataFieldLen())
	require.Equal(t, len(buf), h.WholePduSize())
	require.True(t, h.Complete())
	require.Equal(t, *conf, h.Config())
	require.Equal(t, conf.TransactionId(), h.TransactionId())
	require.Equal(t, cfdp.NoRecordBoundariesPreservation, h.SegmentationControl())

	short := tu.NoErr(cfdp.ParseHeader(buf[:h.HeaderSize()]))
	require.False(t, short.Complete())
	require.Empty(t, short.DataField())
}

func TestHeaderMixedIdWidths(t *testing.T) {
	tu.SetT(t)

	conf := &cfdp.PduConfig{
		SourceId: cfdp.MustEntityId(cfdp.WidthOneByte, 5),
		DestId:   cfdp.MustEntityId(cfdp.WidthTwoBytes, 0x1234),
		SeqNum:   cfdp.MustSeqNum(cfdp.WidthOneByte, 1),
	}
	require.Equal(t, cfdp.WidthTwoBytes, conf.EntityIdWidth())

	buf := tu.NoErr(cfdp.Encode(cfdp.NewPromptPduCreator(conf, &cfdp.PromptInfo{})))
	h := tu.NoErr(cfdp.ParseHeader(buf))
	require.Equal(t, cfdp.WidthTwoBytes, h.EntityIdWidth())
	require.Equal(t, cfdp.WidthTwoBytes, h.SourceId().Width())
	require.Equal(t, uint32(5), h.SourceId().Value())
	require.Equal(t, uint32(0x1234), h.DestId().Value())
}

func TestHeaderParseErrors(t *testing.T) {
	tu.SetT(t)

	good := tu.Hex("240002000103020980")

	_, err := cfdp.ParseHeader(good[:6])
	require.ErrorIs(t, err, cfdp.ErrStreamTooShort)

	bad := append([]byte{}, good...)
	bad[0] = 0x04
	_, err = cfdp.ParseHeader(bad)
	require.ErrorIs(t, err, cfdp.ErrInvalidHeaderVersion)

	// three byte entity IDs
	bad = append([]byte{}, good...)
	bad[3] = 0x20
	_, err = cfdp.ParseHeader(bad)
	require.ErrorIs(t, err, cfdp.ErrUnsupportedFieldWidth)

	// four byte IDs declared but only seven bytes present
	bad = append([]byte{}, good[:7]...)
	bad[3] = 0x30
	_, err = cfdp.ParseHeader(bad)
	require.ErrorIs(t, err, cfdp.ErrStreamTooShort)
}

func TestHeaderCreatorDataFieldLen(t *testing.T) {
	conf := &cfdp.PduConfig{}
	h := cfdp.NewHeaderCreator(conf, cfdp.PduTypeFileData)
	require.ErrorIs(t, h.SetPduDataFieldLen(1<<16), cfdp.ErrInvalidPduDataFieldLen)
	require.ErrorIs(t, h.SetPduDataFieldLen(-1), cfdp.ErrInvalidPduDataFieldLen)
	require.NoError(t, h.SetPduDataFieldLen(100))
	require.Equal(t, cfdp.MinHeaderSize, h.HeaderSize())
	require.Equal(t, cfdp.MinHeaderSize+100, h.WholePduSize())

	_, err := h.Serialize(make([]byte, cfdp.MinHeaderSize-1))
	require.ErrorIs(t, err, cfdp.ErrBufferTooShort)
}
