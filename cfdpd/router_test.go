package cfdpd_test

import (
	"io"
	"testing"

	"github.com/kaidokert/fsfw-sub000/cfdpd"
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/object/storage"
	tu "github.com/kaidokert/fsfw-sub000/std/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

var (
	localId  = cfdp.MustEntityId(cfdp.WidthTwoBytes, 2)
	remoteId = cfdp.MustEntityId(cfdp.WidthTwoBytes, 1)
	quiet    = log.NewText(io.Discard)
)

func value(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return -1
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func txConf(seq uint32) cfdp.PduConfig {
	return cfdp.PduConfig{
		SourceId: remoteId,
		DestId:   localId,
		SeqNum:   cfdp.MustSeqNum(cfdp.WidthOneByte, seq),
		Mode:     cfdp.Unacknowledged,
	}
}

func eofPdu(conf cfdp.PduConfig) []byte {
	return tu.NoErr(cfdp.Encode(cfdp.NewEofPduCreator(&conf, &cfdp.EofInfo{
		ConditionCode: cfdp.NoError,
		FileSize:      cfdp.MustFileSize(0, false),
	})))
}

func TestRouterReceive(t *testing.T) {
	tu.SetT(t)
	store := storage.NewMemoryStore(0)
	metrics := tu.NoErr(cfdpd.NewMetrics(prometheus.NewRegistry()))
	r := cfdpd.NewRouter(localId, store, 2, metrics, quiet)

	conf := txConf(1)
	pdu := eofPdu(conf)
	require.NoError(t, r.Receive(pdu))
	data := tu.NoErr(cfdp.Encode(cfdp.NewFileDataPduCreator(&conf, &cfdp.FileDataInfo{
		Offset: cfdp.MustFileSize(0, false),
		Data:   []byte("abc"),
	})))
	require.NoError(t, r.Receive(data))
	require.Equal(t, 2, store.Len())

	info := <-r.Queue()
	require.Equal(t, cfdp.PduTypeFileDirective, info.PduType)
	require.Equal(t, cfdp.DirectiveEof, info.Directive.Unwrap())
	require.Equal(t, pdu, tu.NoErr(store.Get(info.Handle)))

	info = <-r.Queue()
	require.Equal(t, cfdp.PduTypeFileData, info.PduType)
	require.False(t, info.Directive.IsSet())

	require.Equal(t, 1.0, value(metrics.PdusReceived.WithLabelValues("eof")))
	require.Equal(t, 1.0, value(metrics.PdusReceived.WithLabelValues("file-data")))
}

func TestRouterDrops(t *testing.T) {
	tu.SetT(t)
	store := storage.NewMemoryStore(0)
	metrics := tu.NoErr(cfdpd.NewMetrics(prometheus.NewRegistry()))
	r := cfdpd.NewRouter(localId, store, 1, metrics, quiet)

	// truncated and garbage frames
	pdu := eofPdu(txConf(1))
	require.Error(t, r.Receive(pdu[:len(pdu)-1]))
	require.Error(t, r.Receive([]byte{0xff, 0, 0}))

	other := txConf(1)
	other.DestId = cfdp.MustEntityId(cfdp.WidthTwoBytes, 9)
	require.ErrorIs(t, r.Receive(eofPdu(other)), cfdpd.ErrNotLocal)

	reply := txConf(1).Reply()
	require.ErrorIs(t, r.Receive(eofPdu(reply)), cfdpd.ErrWrongDirection)
	require.Equal(t, 0, store.Len())

	// the second PDU does not fit the queue and is released
	require.NoError(t, r.Receive(pdu))
	require.ErrorIs(t, r.Receive(pdu), cfdpd.ErrQueueFull)
	require.Equal(t, 1, store.Len())

	require.Equal(t, 2.0, value(metrics.PdusDropped.WithLabelValues("malformed")))
	require.Equal(t, 1.0, value(metrics.PdusDropped.WithLabelValues("not-local")))
	require.Equal(t, 1.0, value(metrics.PdusDropped.WithLabelValues("direction")))
	require.Equal(t, 1.0, value(metrics.PdusDropped.WithLabelValues("queue-full")))
}

func TestRouterStoreFull(t *testing.T) {
	tu.SetT(t)
	store := storage.NewMemoryStore(1)
	r := cfdpd.NewRouter(localId, store, 4, nil, quiet)

	pdu := eofPdu(txConf(1))
	require.NoError(t, r.Receive(pdu))
	require.ErrorIs(t, r.Receive(pdu), storage.ErrStoreFull)
	require.Len(t, r.Queue(), 1)
}

func TestRouterRestore(t *testing.T) {
	tu.SetT(t)
	store := storage.NewMemoryStore(0)
	r := cfdpd.NewRouter(localId, store, 4, nil, quiet)

	good := tu.NoErr(store.Add(eofPdu(txConf(3))))
	info := tu.NoErr(r.Restore(good))
	require.Equal(t, good, info.Handle)
	require.Equal(t, cfdp.DirectiveEof, info.Directive.Unwrap())

	bad := tu.NoErr(store.Add([]byte{0xff}))
	tu.Err(r.Restore(bad))
	require.Equal(t, 1, store.Len())

	_, err := r.Restore(storage.Handle(999))
	require.ErrorIs(t, err, storage.ErrNotFound)
}
