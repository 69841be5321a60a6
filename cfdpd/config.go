package cfdpd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/cfdp"
	"github.com/kaidokert/fsfw-sub000/std/cfdp/handler"
	"github.com/kaidokert/fsfw-sub000/std/log"
)

// Config is the configuration of a CFDP entity.
type Config struct {
	// Entity ID of this entity.
	LocalEntityId uint32 `json:"local_entity_id"`
	// Width of entity IDs in bytes (1, 2 or 4).
	EntityIdWidth uint8 `json:"entity_id_width"`

	// Directory relative paths are resolved against
	BaseDir string `json:"-"`
	// Logging level
	LogLevel string `json:"log_level"`
	// Output log to file
	LogFile string `json:"log_file"`

	// Directory received files are stored in.
	FilestoreRoot string `json:"filestore_root"`
	// Packet store holding received PDUs until they are consumed.
	Storage StorageConfig `json:"storage"`
	// SQLite database of finished transactions. Empty disables the archive.
	HistoryDb string `json:"history_db"`
	// Listen address of the Prometheus endpoint. Empty disables metrics.
	MetricsAddr string `json:"metrics_addr"`

	// Number of PDUs buffered between the faces and the handler.
	QueueSize int `json:"queue_size"`
	// Upper bound of segment requests in one NAK PDU.
	MaxSegmentRequests int `json:"max_segment_requests"`
	// Period of the state machine when idle, in milliseconds.
	TickInterval_ms uint64 `json:"tick_interval"`

	Face        FaceConfig            `json:"face"`
	Indications handler.IndicationCfg `json:"indications"`

	// Condition code name to strategy name, e.g. file-checksum-failure: cancel.
	FaultHandlers  map[string]string    `json:"fault_handlers"`
	RemoteEntities []RemoteEntityConfig `json:"remote_entities"`

	localId    cfdp.EntityId
	remotes    []handler.RemoteEntityCfg
	faultTable map[cfdp.ConditionCode]cfdp.FaultHandlerCode
	logLevel   log.Level
}

type StorageConfig struct {
	// memory or badger
	Backend string `json:"backend"`
	// Badger directory. Empty keeps badger in memory.
	Dir string `json:"dir"`
	// Maximum packets held by the memory backend. Zero is unbounded.
	Capacity int `json:"capacity"`
}

type FaceConfig struct {
	Udp struct {
		// Local address, e.g. 0.0.0.0:4014
		Listen string `json:"listen"`
		// Fixed peer address. Empty replies to the last sender.
		Remote string `json:"remote"`
	} `json:"udp"`
	WebSocket struct {
		// URL of a websocket gateway, e.g. ws://ground:8080/cfdp
		Url string `json:"url"`
	} `json:"websocket"`
}

type RemoteEntityConfig struct {
	Id                uint32 `json:"id"`
	MaxFileSegmentLen int    `json:"max_file_segment_len"`
	ClosureRequested  bool   `json:"closure_requested"`
	CrcOnTransmission bool   `json:"crc_on_transmission"`
	// acknowledged or unacknowledged
	DefaultMode string `json:"default_mode"`
	// modular, crc32, crc32c or null
	ChecksumType string `json:"checksum_type"`
}

func DefaultConfig() *Config {
	c := &Config{
		LocalEntityId:      0, // invalid
		EntityIdWidth:      2,
		LogLevel:           "INFO",
		FilestoreRoot:      "./cfdp-files",
		QueueSize:          64,
		MaxSegmentRequests: 64,
		TickInterval_ms:    100,
	}
	c.Storage.Backend = "memory"
	c.Indications = handler.AllIndications()
	return c
}

// Parse validates the configuration and prepares the runtime values.
func (c *Config) Parse() (err error) {
	if c.LocalEntityId == 0 {
		return errors.New("local_entity_id must be set")
	}

	width := cfdp.Width(c.EntityIdWidth)
	if !width.Valid() {
		return fmt.Errorf("entity_id_width must be 1, 2 or 4, not %d", c.EntityIdWidth)
	}
	if c.localId, err = cfdp.NewEntityId(width, c.LocalEntityId); err != nil {
		return fmt.Errorf("local_entity_id: %w", err)
	}

	if c.logLevel, err = log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	switch c.Storage.Backend {
	case "memory", "badger":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	if c.TickInterval() < time.Millisecond {
		return errors.New("tick_interval must be at least 1 ms")
	}
	if c.FilestoreRoot == "" {
		return errors.New("filestore_root must be set")
	}
	if c.Face.Udp.Listen == "" && c.Face.WebSocket.Url == "" {
		return errors.New("at least one face must be configured")
	}

	c.FilestoreRoot = c.ResolveRelPath(c.FilestoreRoot)
	if c.LogFile != "" {
		c.LogFile = c.ResolveRelPath(c.LogFile)
	}
	if c.HistoryDb != "" {
		c.HistoryDb = c.ResolveRelPath(c.HistoryDb)
	}
	if c.Storage.Dir != "" {
		c.Storage.Dir = c.ResolveRelPath(c.Storage.Dir)
	}

	// Fault handler table
	c.faultTable = make(map[cfdp.ConditionCode]cfdp.FaultHandlerCode, len(c.FaultHandlers))
	for ccName, hName := range c.FaultHandlers {
		cc, ok := cfdp.ParseConditionCode(ccName)
		if !ok || !cc.IsFault() {
			return fmt.Errorf("fault_handlers: %q is not a fault condition", ccName)
		}
		h, ok := cfdp.ParseFaultHandlerCode(hName)
		if !ok {
			return fmt.Errorf("fault_handlers: unknown strategy %q", hName)
		}
		c.faultTable[cc] = h
	}

	// Remote entities
	c.remotes = make([]handler.RemoteEntityCfg, 0, len(c.RemoteEntities))
	seen := make(map[uint32]bool, len(c.RemoteEntities))
	for _, r := range c.RemoteEntities {
		cfg, err := r.parse(width)
		if err != nil {
			return fmt.Errorf("remote entity %d: %w", r.Id, err)
		}
		if seen[r.Id] {
			return fmt.Errorf("remote entity %d is configured twice", r.Id)
		}
		seen[r.Id] = true
		c.remotes = append(c.remotes, cfg)
	}

	return nil
}

func (r RemoteEntityConfig) parse(width cfdp.Width) (cfg handler.RemoteEntityCfg, err error) {
	if cfg.Id, err = cfdp.NewEntityId(width, r.Id); err != nil {
		return cfg, err
	}
	cfg.MaxFileSegmentLen = r.MaxFileSegmentLen
	if cfg.MaxFileSegmentLen == 0 {
		cfg.MaxFileSegmentLen = 1024
	}
	cfg.ClosureRequested = r.ClosureRequested
	cfg.CrcOnTransmission = r.CrcOnTransmission

	switch r.DefaultMode {
	case "", "unacknowledged":
		cfg.DefaultMode = cfdp.Unacknowledged
	case "acknowledged":
		cfg.DefaultMode = cfdp.Acknowledged
	default:
		return cfg, fmt.Errorf("unknown transmission mode %q", r.DefaultMode)
	}

	cfg.ChecksumType = cfdp.ChecksumCrc32
	if r.ChecksumType != "" {
		cs, ok := cfdp.ParseChecksumType(r.ChecksumType)
		if !ok {
			return cfg, fmt.Errorf("unknown checksum type %q", r.ChecksumType)
		}
		cfg.ChecksumType = cs
	}
	return cfg, nil
}

// ResolveRelPath resolves a possibly relative path based on config file path.
func (c *Config) ResolveRelPath(target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(c.BaseDir, target)
}

// LocalId is the parsed local entity ID.
func (c *Config) LocalId() cfdp.EntityId {
	return c.localId
}

// Remotes are the parsed remote entity configurations.
func (c *Config) Remotes() []handler.RemoteEntityCfg {
	return c.remotes
}

// FaultTable maps fault conditions to the configured strategy.
func (c *Config) FaultTable() map[cfdp.ConditionCode]cfdp.FaultHandlerCode {
	return c.faultTable
}

func (c *Config) Level() log.Level {
	return c.logLevel
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickInterval_ms) * time.Millisecond
}
