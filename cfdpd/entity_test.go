package cfdpd

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/engine/face"
	tu "github.com/kaidokert/fsfw-sub000/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func testEntity(t *testing.T, mode string) (*Entity, *net.UDPConn, string) {
	tu.SetT(t)
	dir := t.TempDir()

	c := DefaultConfig()
	c.LocalEntityId = 2
	c.LogLevel = "ERROR"
	c.BaseDir = dir
	c.FilestoreRoot = "files"
	c.HistoryDb = "history.db"
	c.TickInterval_ms = 5
	c.Face.Udp.Listen = "127.0.0.1:0"
	c.RemoteEntities = []RemoteEntityConfig{{Id: 1, DefaultMode: mode}}
	require.NoError(t, c.Parse())

	e := tu.NoErr(NewEntity(c))
	require.NoError(t, e.Start())
	t.Cleanup(e.Stop)

	addr := e.faces[0].(*face.UDPFace).LocalAddr().(*net.UDPAddr)
	conn := tu.NoErr(net.DialUDP("udp", nil, addr))
	t.Cleanup(func() { conn.Close() })
	return e, conn, filepath.Join(dir, "files")
}

// sendFile runs the sending side of a transaction from conn.
func sendFile(t *testing.T, conn *net.UDPConn, mode cfdp.TransmissionMode, name string, content string) {
	conf := cfdp.PduConfig{
		SourceId: cfdp.MustEntityId(cfdp.WidthTwoBytes, 1),
		DestId:   cfdp.MustEntityId(cfdp.WidthTwoBytes, 2),
		SeqNum:   cfdp.MustSeqNum(cfdp.WidthTwoBytes, 42),
		Mode:     mode,
	}
	send := func(c cfdp.PduCreator) {
		_, err := conn.Write(tu.NoErr(cfdp.Encode(c)))
		require.NoError(t, err)
	}

	size := uint64(len(content))
	send(cfdp.NewMetadataPduCreator(&conf, &cfdp.MetadataInfo{
		ChecksumType:   cfdp.ChecksumCrc32,
		FileSize:       cfdp.MustFileSize(size, false),
		SourceFileName: cfdp.MustStringLv("src.txt"),
		DestFileName:   cfdp.MustStringLv(name),
	}))

	cs := tu.NoErr(cfdp.NewChecksum(cfdp.ChecksumCrc32))
	for off := 0; off < len(content); off += 8 {
		seg := []byte(content[off:min(off+8, len(content))])
		cs.Update(uint64(off), seg)
		send(cfdp.NewFileDataPduCreator(&conf, &cfdp.FileDataInfo{
			Offset: cfdp.MustFileSize(uint64(off), false),
			Data:   seg,
		}))
	}

	send(cfdp.NewEofPduCreator(&conf, &cfdp.EofInfo{
		ConditionCode: cfdp.NoError,
		Checksum:      cs.Sum(),
		FileSize:      cfdp.MustFileSize(size, false),
	}))
}

func TestEntityUnacknowledged(t *testing.T) {
	e, conn, root := testEntity(t, "unacknowledged")
	content := "a file delivered over a loopback socket"
	sendFile(t, conn, cfdp.Unacknowledged, "out/recv.txt", content)

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(filepath.Join(root, "out", "recv.txt"))
		return err == nil && string(b) == content
	}, 5*time.Second, 10*time.Millisecond)

	var recs []Record
	require.Eventually(t, func() bool {
		recs, _ = e.history.List(0)
		return len(recs) == 1
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "1-42", recs[0].TransactionId)
	require.Equal(t, "src.txt", recs[0].SourceFile)
	require.Equal(t, "out/recv.txt", recs[0].DestFile)
	require.Equal(t, cfdp.NoError.String(), recs[0].Condition)
	require.Equal(t, cfdp.DataComplete.String(), recs[0].Delivery)
	require.Equal(t, uint64(len(content)), recs[0].FileSize)
	require.Equal(t, uint64(len(content)), recs[0].Received)
}

func TestEntityAcknowledged(t *testing.T) {
	_, conn, root := testEntity(t, "acknowledged")
	content := "acknowledged transfers end with a finished PDU"
	sendFile(t, conn, cfdp.Acknowledged, "acked.txt", content)

	buf := make([]byte, face.MaxDatagramSize)
	read := func() cfdp.DirectiveCode {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		n, err := conn.Read(buf)
		require.NoError(t, err)
		d := tu.NoErr(cfdp.ParseFileDirective(buf[:n]))
		require.Equal(t, cfdp.TowardsSender, d.Direction())
		return d.Directive()
	}
	require.Equal(t, cfdp.DirectiveAck, read())
	require.Equal(t, cfdp.DirectiveFinished, read())

	b, err := os.ReadFile(filepath.Join(root, "acked.txt"))
	require.NoError(t, err)
	require.Equal(t, content, string(b))
}

func TestEntityStopWithoutStart(t *testing.T) {
	tu.SetT(t)
	c := DefaultConfig()
	c.LocalEntityId = 2
	c.LogLevel = "ERROR"
	c.FilestoreRoot = t.TempDir()
	c.Face.Udp.Listen = "127.0.0.1:0"
	require.NoError(t, c.Parse())

	e := tu.NoErr(NewEntity(c))
	e.Stop()
	e.Stop()
}
