package cfdpd

import (
	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus counters of one entity. All methods accept
// a nil receiver, which disables metrics.
type Metrics struct {
	// PdusReceived counts PDUs accepted from a face.
	// Labels: type=[file-data, metadata, eof, ...]
	PdusReceived *prometheus.CounterVec
	// PdusDropped counts PDUs rejected before the handler.
	// Labels: reason=[malformed, not-local, direction, store-full, queue-full]
	PdusDropped *prometheus.CounterVec
	// PdusSent counts reply PDUs.
	// Labels: directive=[ack, nak, finished, keep-alive]
	PdusSent *prometheus.CounterVec
	// Transactions counts finished transactions.
	Transactions *prometheus.CounterVec
	// Faults counts declared faults by condition and strategy.
	Faults *prometheus.CounterVec
	// FsmErrors counts errors reported by the state machine.
	FsmErrors prometheus.Counter
	// BytesReceived is the file data progress of the active transaction.
	BytesReceived prometheus.Gauge
}

// NewMetrics creates the entity metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		PdusReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdp_pdus_received_total",
				Help: "PDUs received by type",
			},
			[]string{"type"},
		),
		PdusDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdp_pdus_dropped_total",
				Help: "PDUs dropped before reaching the handler by reason",
			},
			[]string{"reason"},
		),
		PdusSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdp_pdus_sent_total",
				Help: "PDUs sent by directive",
			},
			[]string{"directive"},
		),
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdp_transactions_total",
				Help: "Finished transactions by condition and delivery code",
			},
			[]string{"condition", "delivery"},
		),
		Faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfdp_faults_total",
				Help: "Declared faults by condition and strategy",
			},
			[]string{"condition", "strategy"},
		),
		FsmErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cfdp_fsm_errors_total",
				Help: "Errors reported by the destination state machine",
			},
		),
		BytesReceived: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cfdp_bytes_received",
				Help: "File bytes received in the active transaction",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.PdusReceived, m.PdusDropped, m.PdusSent, m.Transactions, m.Faults, m.FsmErrors, m.BytesReceived,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func pduLabel(t cfdp.PduType, dir cfdp.DirectiveCode) string {
	if t == cfdp.PduTypeFileData {
		return "file-data"
	}
	return dir.String()
}

func (m *Metrics) received(t cfdp.PduType, dir cfdp.DirectiveCode) {
	if m == nil {
		return
	}
	m.PdusReceived.WithLabelValues(pduLabel(t, dir)).Inc()
}

func (m *Metrics) dropped(reason string) {
	if m == nil {
		return
	}
	m.PdusDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) sent(dir cfdp.DirectiveCode) {
	if m == nil {
		return
	}
	m.PdusSent.WithLabelValues(dir.String()).Inc()
}

func (m *Metrics) finished(cc cfdp.ConditionCode, dc cfdp.DeliveryCode) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(cc.String(), dc.String()).Inc()
	m.BytesReceived.Set(0)
}

func (m *Metrics) fault(cc cfdp.ConditionCode, strategy cfdp.FaultHandlerCode) {
	if m == nil {
		return
	}
	m.Faults.WithLabelValues(cc.String(), strategy.String()).Inc()
}

func (m *Metrics) fsmErrors(n int) {
	if m == nil || n == 0 {
		return
	}
	m.FsmErrors.Add(float64(n))
}

func (m *Metrics) progress(bytes uint64) {
	if m == nil {
		return
	}
	m.BytesReceived.Set(float64(bytes))
}
