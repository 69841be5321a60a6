package cfdp_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	tu "github.com/kaidokert/fsfw-sub000/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestVarLenFieldSetValue(t *testing.T) {
	tu.SetT(t)

	f := tu.NoErr(cfdp.NewVarLenField(cfdp.WidthOneByte, 200))
	require.ErrorIs(t, f.SetValue(cfdp.WidthOneByte, 256), cfdp.ErrValueTooLarge)
	require.Equal(t, uint32(200), f.Value())
	require.Equal(t, cfdp.WidthOneByte, f.Width())

	require.ErrorIs(t, f.SetValue(cfdp.Width(3), 1), cfdp.ErrUnsupportedFieldWidth)
	require.Equal(t, uint32(200), f.Value())

	require.NoError(t, f.SetValue(cfdp.WidthTwoBytes, math.MaxUint16))
	require.Equal(t, 2, f.SerializedSize())
	require.ErrorIs(t, f.SetValue(cfdp.WidthTwoBytes, math.MaxUint16+1), cfdp.ErrValueTooLarge)
	require.NoError(t, f.SetValue(cfdp.WidthFourBytes, math.MaxUint32))

	zero := cfdp.VarLenField{}
	require.Equal(t, cfdp.WidthOneByte, zero.Width())
	require.Equal(t, 1, zero.SerializedSize())
}

func TestVarLenFieldSerialize(t *testing.T) {
	tu.SetT(t)

	f := tu.NoErr(cfdp.NewVarLenField(cfdp.WidthTwoBytes, 0x0102))
	buf := make([]byte, 2)
	require.Equal(t, 2, tu.NoErr(f.Serialize(buf, binary.BigEndian)))
	require.Equal(t, []byte{0x01, 0x02}, buf)
	tu.NoErr(f.Serialize(buf, binary.LittleEndian))
	require.Equal(t, []byte{0x02, 0x01}, buf)
	require.ErrorIs(t, tu.Err(f.Serialize(buf[:1], binary.BigEndian)), cfdp.ErrBufferTooShort)

	g := tu.NoErr(cfdp.NewVarLenField(cfdp.WidthFourBytes, 0))
	require.Equal(t, 4, tu.NoErr(g.Deserialize([]byte{0xde, 0xad, 0xbe, 0xef, 0x00}, binary.BigEndian)))
	require.Equal(t, uint32(0xdeadbeef), g.Value())
	require.ErrorIs(t, tu.Err(g.Deserialize([]byte{1, 2, 3}, binary.BigEndian)), cfdp.ErrStreamTooShort)
	require.Equal(t, uint32(0xdeadbeef), g.Value())
}

func TestVarLenFieldWidthOrdering(t *testing.T) {
	tu.SetT(t)

	small := tu.NoErr(cfdp.NewVarLenField(cfdp.WidthOneByte, 255))
	wide := tu.NoErr(cfdp.NewVarLenField(cfdp.WidthTwoBytes, 0))
	require.Equal(t, 1, wide.Compare(small))
	require.Equal(t, -1, small.Compare(wide))
	require.True(t, small.Less(wide))
	require.False(t, small.Equal(wide))

	a := cfdp.MustEntityId(cfdp.WidthTwoBytes, 5)
	b := cfdp.MustEntityId(cfdp.WidthTwoBytes, 5)
	c := cfdp.MustEntityId(cfdp.WidthOneByte, 5)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.Equal(t, 0, a.Compare(b))
}

func TestWidthCodes(t *testing.T) {
	tu.SetT(t)

	require.Equal(t, cfdp.WidthOneByte, tu.NoErr(cfdp.WidthFromCode(0)))
	require.Equal(t, cfdp.WidthTwoBytes, tu.NoErr(cfdp.WidthFromCode(1)))
	require.Equal(t, cfdp.WidthFourBytes, tu.NoErr(cfdp.WidthFromCode(3)))
	require.ErrorIs(t, tu.Err(cfdp.WidthFromCode(2)), cfdp.ErrUnsupportedFieldWidth)
	require.ErrorIs(t, tu.Err(cfdp.WidthFromCode(7)), cfdp.ErrUnsupportedFieldWidth)

	require.Equal(t, uint8(3), cfdp.WidthFourBytes.Code())
	require.Equal(t, cfdp.WidthOneByte, cfdp.MinWidth(255))
	require.Equal(t, cfdp.WidthTwoBytes, cfdp.MinWidth(256))
	require.Equal(t, cfdp.WidthFourBytes, cfdp.MinWidth(math.MaxUint16+1))
}

func TestTransactionId(t *testing.T) {
	a := cfdp.TransactionId{
		EntityId: cfdp.MustEntityId(cfdp.WidthTwoBytes, 12),
		SeqNum:   cfdp.MustSeqNum(cfdp.WidthOneByte, 7),
	}
	b := a
	require.True(t, a.Equal(b))
	require.Equal(t, "12-7", a.String())

	b.SeqNum = cfdp.MustSeqNum(cfdp.WidthOneByte, 8)
	require.False(t, a.Equal(b))
}

func TestFileSize(t *testing.T) {
	tu.SetT(t)

	fs := cfdp.FileSize{}
	require.ErrorIs(t, fs.SetFileSize(math.MaxUint32+1, false), cfdp.ErrFileSizeTooLarge)
	require.Equal(t, uint64(0), fs.Value())
	require.NoError(t, fs.SetFileSize(math.MaxUint32+1, true))
	require.True(t, fs.IsLarge())
	require.Equal(t, 8, fs.SerializedSize())

	buf := make([]byte, 8)
	tu.NoErr(fs.Serialize(buf))
	require.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 0}, buf)
	require.ErrorIs(t, tu.Err(fs.Serialize(buf[:7])), cfdp.ErrBufferTooShort)

	small := cfdp.MustFileSize(0x01020304, false)
	require.Equal(t, 4, tu.NoErr(small.Serialize(buf)))
	require.Equal(t, []byte{1, 2, 3, 4}, buf[:4])

	parsed := cfdp.FileSize{}
	require.Equal(t, 4, tu.NoErr(parsed.Deserialize(buf, false)))
	require.Equal(t, uint64(0x01020304), parsed.Value())
	require.False(t, parsed.IsLarge())

	require.ErrorIs(t, tu.Err(parsed.Deserialize(buf[:4], true)), cfdp.ErrStreamTooShort)
	require.False(t, parsed.IsLarge())
	require.Equal(t, uint64(0x01020304), parsed.Value())
}

func TestLv(t *testing.T) {
	tu.SetT(t)

	require.ErrorIs(t, tu.Err(cfdp.NewLv(make([]byte, 256))), cfdp.ErrValueTooLarge)
	tu.NoErr(cfdp.NewLv(make([]byte, 255)))

	lv := cfdp.MustStringLv("hello.txt")
	require.Equal(t, 10, lv.SerializedSize())
	buf := make([]byte, lv.SerializedSize())
	tu.NoErr(lv.Serialize(buf))
	require.Equal(t, uint8(9), buf[0])
	require.ErrorIs(t, tu.Err(lv.Serialize(buf[:9])), cfdp.ErrBufferTooShort)

	parsed, n, err := cfdp.ParseLv(buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, "hello.txt", parsed.String())

	clone := parsed.Clone()
	buf[1] = 'j'
	require.Equal(t, "jello.txt", parsed.String())
	require.Equal(t, "hello.txt", clone.String())

	empty, n, err := cfdp.ParseLv([]byte{0})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 0, empty.Len())

	_, _, err = cfdp.ParseLv([]byte{3, 'a', 'b'})
	require.ErrorIs(t, err, cfdp.ErrStreamTooShort)
	_, _, err = cfdp.ParseLv(nil)
	require.ErrorIs(t, err, cfdp.ErrStreamTooShort)
}
