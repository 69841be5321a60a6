package handler

import (
	"sync"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
)

// IndicationCfg selects the optional user indications.
type IndicationCfg struct {
	EofSent             bool `json:"eof_sent"`
	EofRecv             bool `json:"eof_recv"`
	FileSegmentRecv     bool `json:"file_segment_recv"`
	TransactionFinished bool `json:"transaction_finished"`
	Suspended           bool `json:"suspended"`
	Resumed             bool `json:"resumed"`
}

// AllIndications enables every optional indication.
func AllIndications() IndicationCfg {
	return IndicationCfg{
		EofSent:             true,
		EofRecv:             true,
		FileSegmentRecv:     true,
		TransactionFinished: true,
		Suspended:           true,
		Resumed:             true,
	}
}

// LocalEntityCfg configures the local CFDP entity.
// A nil Indications enables every indication.
type LocalEntityCfg struct {
	Id           cfdp.EntityId
	Indications  *IndicationCfg
	FaultHandler *FaultHandlerBase
}

// RemoteEntityCfg is what the local entity knows about a peer.
type RemoteEntityCfg struct {
	Id                cfdp.EntityId
	MaxFileSegmentLen int
	ClosureRequested  bool
	CrcOnTransmission bool
	DefaultMode       cfdp.TransmissionMode
	ChecksumType      cfdp.ChecksumType
}

// RemoteConfigTable looks up peers by entity ID.
type RemoteConfigTable interface {
	Lookup(id cfdp.EntityId) (*RemoteEntityCfg, bool)
}

// RemoteConfigMap is a RemoteConfigTable keyed by entity ID value,
// so a peer is found whatever width its ID is encoded with.
type RemoteConfigMap struct {
	mutex sync.RWMutex
	cfgs  map[uint32]*RemoteEntityCfg
}

func NewRemoteConfigMap(cfgs ...RemoteEntityCfg) *RemoteConfigMap {
	m := &RemoteConfigMap{cfgs: make(map[uint32]*RemoteEntityCfg, len(cfgs))}
	for _, c := range cfgs {
		m.Add(c)
	}
	return m
}

// Add inserts or replaces the configuration of a peer.
func (m *RemoteConfigMap) Add(cfg RemoteEntityCfg) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cfgs[cfg.Id.Value()] = &cfg
}

func (m *RemoteConfigMap) Lookup(id cfdp.EntityId) (*RemoteEntityCfg, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	cfg, ok := m.cfgs[id.Value()]
	return cfg, ok
}

func (m *RemoteConfigMap) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.cfgs)
}
