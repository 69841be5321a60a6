package cfdpd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kaidokert/fsfw-sub000/std/cfdp/handler"
	"github.com/kaidokert/fsfw-sub000/std/engine/face"
	"github.com/kaidokert/fsfw-sub000/std/log"
	"github.com/kaidokert/fsfw-sub000/std/object/storage"
	"github.com/kaidokert/fsfw-sub000/std/utils"
	"github.com/kaidokert/fsfw-sub000/std/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Entity is a CFDP receiving entity: faces feed the router, and a single
// handler goroutine drives the destination state machine.
type Entity struct {
	config  *Config
	log     *log.Logger
	logFile io.Closer

	store   storage.Store
	fs      *vfs.HostFs
	history *History
	metrics *Metrics
	reg     *prometheus.Registry
	server  *http.Server

	router *Router
	dest   *handler.DestHandler
	faces  []face.Face
	user   *User

	cmds    chan func(*handler.DestHandler)
	stop    chan struct{}
	stopped chan struct{}
	started bool
	once    sync.Once
}

// NewEntity builds an entity from a parsed configuration.
func NewEntity(config *Config) (e *Entity, err error) {
	e = &Entity{
		config:  config,
		cmds:    make(chan func(*handler.DestHandler), 8),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	defer func() {
		if err != nil {
			e.closeResources()
		}
	}()

	if err = e.openLogger(); err != nil {
		return nil, err
	}

	e.reg = prometheus.NewRegistry()
	if e.metrics, err = NewMetrics(e.reg); err != nil {
		return nil, err
	}

	switch config.Storage.Backend {
	case "badger":
		e.store, err = storage.NewBadgerStore(config.Storage.Dir)
	default:
		e.store = storage.NewMemoryStore(config.Storage.Capacity)
	}
	if err != nil {
		return nil, fmt.Errorf("packet store: %w", err)
	}

	if e.fs, err = vfs.NewHostFs(config.FilestoreRoot); err != nil {
		return nil, fmt.Errorf("filestore: %w", err)
	}

	if config.HistoryDb != "" {
		if e.history, err = OpenHistory(config.HistoryDb); err != nil {
			return nil, err
		}
	}

	fh := handler.NewFaultHandlerBase(NewFaultLogger(e.log, e.metrics))
	for cc, h := range config.FaultTable() {
		fh.SetHandler(cc, h)
	}

	if config.Face.Udp.Listen != "" {
		e.faces = append(e.faces, face.NewUDPFace(config.Face.Udp.Listen, config.Face.Udp.Remote))
	}
	if config.Face.WebSocket.Url != "" {
		e.faces = append(e.faces, face.NewWebSocketFace(config.Face.WebSocket.Url))
	}

	e.user = NewUser(e.log, e.metrics, e.history)
	e.router = NewRouter(config.LocalId(), e.store, config.QueueSize, e.metrics, e.log)
	e.dest = handler.NewDestHandler(handler.DestHandlerParams{
		Cfg: handler.LocalEntityCfg{
			Id:           config.LocalId(),
			Indications:  &config.Indications,
			FaultHandler: fh,
		},
		User:               e.user,
		Remotes:            handler.NewRemoteConfigMap(config.Remotes()...),
		Fs:                 e.fs,
		Store:              e.store,
		Sink:               NewFaceSink(e.metrics, e.faces...),
		MaxQueuedPackets:   config.QueueSize,
		MaxSegmentRequests: config.MaxSegmentRequests,
		Logger:             e.log,
	})

	return e, nil
}

func (e *Entity) String() string {
	return "cfdpd"
}

// Logger is the logger opened from the configuration.
func (e *Entity) Logger() *log.Logger {
	return e.log
}

func (e *Entity) openLogger() error {
	out := io.Writer(os.Stderr)
	if e.config.LogFile != "" {
		file, err := os.Create(e.config.LogFile)
		if err != nil {
			return fmt.Errorf("log_file: %w", err)
		}
		out = file
		e.logFile = file
	}
	e.log = log.NewText(out)
	e.log.SetLevel(e.config.Level())
	return nil
}

// Start opens the faces and runs the handler goroutine.
// This function is non-blocking.
func (e *Entity) Start() error {
	e.log.Info(e, "Starting CFDP entity", "version", utils.Version,
		"id", e.config.LocalId(), "root", e.fs.Root())

	e.restorePending()

	for _, f := range e.faces {
		f.OnPacket(func(frame []byte) {
			e.router.Receive(frame)
		})
		f.OnError(func(err error) {
			e.log.Warn(f, "Face error", "err", err)
		})
		f.OnDown(func() {
			e.log.Warn(f, "Face is down")
		})
		if err := f.Open(); err != nil {
			e.closeFaces()
			return fmt.Errorf("open %s: %w", f, err)
		}
		e.log.Info(e, "Opened face", "face", f)
	}

	if addr := e.config.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{}))
		e.server = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.log.Error(e, "Metrics server failed", "addr", addr, "err", err)
			}
		}()
		e.log.Info(e, "Serving metrics", "addr", addr)
	}

	e.started = true
	go e.run()
	return nil
}

// Stop shuts the entity down and waits for the handler goroutine.
func (e *Entity) Stop() {
	e.once.Do(func() {
		e.log.Info(e, "Stopping CFDP entity")
		close(e.stop)
		if !e.started {
			close(e.stopped)
		}
		<-e.stopped

		e.closeFaces()
		if e.server != nil {
			e.server.Close()
		}
		e.closeResources()
	})
}

// Report requests a report indication of the active transaction.
func (e *Entity) Report() {
	e.exec(func(d *handler.DestHandler) { d.Report() })
}

// Resume lifts a suspension of the active transaction.
func (e *Entity) Resume() {
	e.exec(func(d *handler.DestHandler) { d.Resume() })
}

// exec runs fn on the handler goroutine.
func (e *Entity) exec(fn func(*handler.DestHandler)) {
	select {
	case e.cmds <- fn:
	case <-e.stop:
	}
}

// restorePending queues packets a persistent store kept across a restart.
func (e *Entity) restorePending() {
	bs, ok := e.store.(*storage.BadgerStore)
	if !ok {
		return
	}
	handles, err := bs.Pending()
	if err != nil {
		e.log.Error(e, "Failed to list stored packets", "err", err)
		return
	}
	for _, h := range handles {
		info, err := e.router.Restore(h)
		if err != nil {
			e.log.Warn(e, "Discarding stored packet", "handle", h, "err", err)
			continue
		}
		if err := e.dest.PassPacket(info); err != nil {
			e.store.Release(h)
			e.log.Warn(e, "Discarding stored packet", "handle", h, "err", err)
		}
	}
	if len(handles) > 0 {
		e.log.Info(e, "Restored stored packets", "count", e.dest.QueueLen())
	}
}

func (e *Entity) run() {
	defer close(e.stopped)

	ticker := time.NewTicker(e.config.TickInterval())
	defer ticker.Stop()

	for {
		e.drain()
		res := e.dest.PerformStateMachine()
		e.metrics.fsmErrors(res.Errors)
		if res.Result != nil {
			e.log.Debug(e, "State machine reported errors", "count", res.Errors, "err", res.Result)
		}

		if res.CallStatus == handler.CallAgain || e.dest.QueueLen() > 0 {
			select {
			case <-e.stop:
				return
			case fn := <-e.cmds:
				fn(e.dest)
			default:
			}
			continue
		}

		select {
		case <-e.stop:
			return
		case fn := <-e.cmds:
			fn(e.dest)
		case info := <-e.router.Queue():
			e.pass(info)
		case <-ticker.C:
		}
	}
}

// drain moves announced packets into the handler queue while it has room.
func (e *Entity) drain() {
	for e.dest.QueueLen() < e.config.QueueSize {
		select {
		case info := <-e.router.Queue():
			e.pass(info)
		default:
			return
		}
	}
}

func (e *Entity) pass(info handler.PacketInfo) {
	if err := e.dest.PassPacket(info); err != nil {
		e.store.Release(info.Handle)
		e.metrics.dropped("queue-full")
		e.log.Warn(e, "Handler queue is full, dropping PDU", "handle", info.Handle)
	}
}

func (e *Entity) closeFaces() {
	for _, f := range e.faces {
		if f.IsRunning() {
			f.Close()
		}
	}
}

func (e *Entity) closeResources() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Error(e, "Failed to close packet store", "err", err)
		}
	}
	if err := e.history.Close(); err != nil {
		e.log.Error(e, "Failed to close history", "err", err)
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}
