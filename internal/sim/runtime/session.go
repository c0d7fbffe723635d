// Package runtime paces a world on a wall-clock ticker and fans each tick
// snapshot out to observers and persistence sinks. The world itself is
// single-threaded: every mutation happens on the Run goroutine, and control
// requests are serialized through it.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/observerproto"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/engine"
)

// TickLogEntry summarizes one completed tick for the persistence sinks.
type TickLogEntry struct {
	RunID         string                `json:"run_id"`
	Tick          uint64                `json:"tick"`
	Alive         int                   `json:"alive"`
	TotalResource int                   `json:"total_resource"`
	Deaths        []observerproto.Death `json:"deaths,omitempty"`
}

// TickLogger receives one entry per completed tick. Implementations live in
// internal/persistence/*. WriteTick must not block the tick loop for long;
// sinks are expected to buffer or drop.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// RunInfo describes one run for the history index.
type RunInfo struct {
	RunID     string
	Seed      int64
	Width     int
	Height    int
	Agents    int
	StartedAt time.Time
}

// RunRecorder registers a run when it starts. A reset that reseeds the world
// starts a new run.
type RunRecorder interface {
	RecordRun(info RunInfo) error
}

// ObserverJoinRequest attaches an outbound snapshot channel to the session.
// Out should be buffered; slow observers have the oldest snapshot dropped.
type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte
}

type controlReq struct {
	req  observerproto.ControlRequest
	resp chan observerproto.ControlResponse
}

// Session owns one world and its paced loop.
type Session struct {
	cfg    engine.Config
	world  *engine.World
	logger *log.Logger

	tickLogger TickLogger
	recorder   RunRecorder

	control       chan controlReq
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	observers     map[string]chan []byte

	// Loop-owned.
	paused     bool
	tickRateHz int
	runID      string

	// Mirrors for handler goroutines reading Bootstrap.
	lastTick   atomic.Uint64
	pausedFlag atomic.Bool
	runIDVal   atomic.Value // string
	params     atomic.Value // observerproto.WorldParams

	stop chan struct{}
}

// NewSession builds a randomized world from cfg and prepares the loop.
// The session does not tick until Run is called.
func NewSession(cfg engine.Config, tickRateHz int, logger *log.Logger) (*Session, error) {
	if tickRateHz < 1 {
		return nil, fmt.Errorf("tick rate must be >= 1, got %d", tickRateHz)
	}
	w, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:           cfg,
		world:         w,
		logger:        logger,
		control:       make(chan controlReq),
		observerJoin:  make(chan ObserverJoinRequest),
		observerLeave: make(chan string),
		observers:     map[string]chan []byte{},
		tickRateHz:    tickRateHz,
		runID:         newRunID(cfg.Seed),
		stop:          make(chan struct{}),
	}
	s.runIDVal.Store(s.runID)
	s.storeParams()
	return s, nil
}

// storeParams refreshes the Bootstrap mirror. Loop goroutine only.
func (s *Session) storeParams() {
	s.params.Store(observerproto.WorldParams{
		TickRateHz:   s.tickRateHz,
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		MaxResource:  s.cfg.MaxResource,
		MaxRegenRate: s.cfg.MaxRegenRate,
		AgentHP:      s.cfg.AgentHP,
		Seed:         s.cfg.Seed,
	})
}

var runSeq atomic.Uint64

// newRunID is unique per process even when resets reuse a seed within the
// same second.
func newRunID(seed int64) string {
	return fmt.Sprintf("run_%d_%d_%d", seed, time.Now().Unix(), runSeq.Add(1))
}

func (s *Session) SetTickLogger(l TickLogger)   { s.tickLogger = l }
func (s *Session) SetRunRecorder(r RunRecorder) { s.recorder = r }

func (s *Session) ObserverJoin() chan<- ObserverJoinRequest { return s.observerJoin }
func (s *Session) ObserverLeave() chan<- string             { return s.observerLeave }

func (s *Session) RunID() string { return s.runIDVal.Load().(string) }

// Bootstrap is safe to call from handler goroutines; it reads mirrored
// state, not the world.
func (s *Session) Bootstrap() observerproto.BootstrapResponse {
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           s.RunID(),
		Tick:            s.lastTick.Load(),
		Paused:          s.pausedFlag.Load(),
		WorldParams:     s.params.Load().(observerproto.WorldParams),
	}
}

// Control submits one control request and waits for the loop to answer.
func (s *Session) Control(ctx context.Context, req observerproto.ControlRequest) (observerproto.ControlResponse, error) {
	cr := controlReq{req: req, resp: make(chan observerproto.ControlResponse, 1)}
	select {
	case s.control <- cr:
	case <-ctx.Done():
		return observerproto.ControlResponse{}, ctx.Err()
	case <-s.stop:
		return observerproto.ControlResponse{}, fmt.Errorf("session stopped")
	}
	select {
	case resp := <-cr.resp:
		return resp, nil
	case <-ctx.Done():
		return observerproto.ControlResponse{}, ctx.Err()
	}
}

// Run drives the tick loop until ctx is canceled, Stop is called, or the
// world reports an update error.
func (s *Session) Run(ctx context.Context) error {
	if s.recorder != nil {
		s.recordRun()
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeObservers()
			return ctx.Err()
		case <-s.stop:
			s.closeObservers()
			return nil
		case req := <-s.observerJoin:
			s.handleObserverJoin(req)
		case id := <-s.observerLeave:
			s.handleObserverLeave(id)
		case cr := <-s.control:
			cr.resp <- s.handleControl(cr.req, ticker)
		case <-ticker.C:
			if s.paused {
				continue
			}
			if err := s.stepOnce(); err != nil {
				s.closeObservers()
				return err
			}
		}
	}
}

// Stop ends Run. Safe to call once.
func (s *Session) Stop() { close(s.stop) }

func (s *Session) interval() time.Duration {
	return time.Second / time.Duration(s.tickRateHz)
}

func (s *Session) recordRun() {
	info := RunInfo{
		RunID:     s.runID,
		Seed:      s.cfg.Seed,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Agents:    s.world.AgentCount(),
		StartedAt: time.Now().UTC(),
	}
	if err := s.recorder.RecordRun(info); err != nil && s.logger != nil {
		s.logger.Printf("record run %s: %v", s.runID, err)
	}
}

func (s *Session) handleControl(req observerproto.ControlRequest, ticker *time.Ticker) observerproto.ControlResponse {
	switch req.Command {
	case observerproto.CmdPause:
		s.setPaused(true)
	case observerproto.CmdResume:
		s.setPaused(false)
	case observerproto.CmdStep:
		if !s.paused {
			return s.fail("step requires a paused session")
		}
		if err := s.stepOnce(); err != nil {
			return s.fail(err.Error())
		}
	case observerproto.CmdSpeed:
		if req.TickRateHz < 1 {
			return s.fail(fmt.Sprintf("tick rate must be >= 1, got %d", req.TickRateHz))
		}
		s.tickRateHz = req.TickRateHz
		s.storeParams()
		ticker.Reset(s.interval())
	case observerproto.CmdReset:
		if err := s.reset(req.Seed); err != nil {
			return s.fail(err.Error())
		}
	default:
		return s.fail(fmt.Sprintf("unknown command %q", req.Command))
	}
	return observerproto.ControlResponse{OK: true, Tick: s.world.Tick(), Paused: s.paused}
}

func (s *Session) fail(msg string) observerproto.ControlResponse {
	return observerproto.ControlResponse{Tick: s.world.Tick(), Paused: s.paused, Error: msg}
}

func (s *Session) setPaused(p bool) {
	s.paused = p
	s.pausedFlag.Store(p)
}

// reset rebuilds the world from the session config. A non-nil seed reseeds
// it and starts a new run in the history index.
func (s *Session) reset(seed *int64) error {
	cfg := s.cfg
	if seed != nil {
		cfg.Seed = *seed
	}
	w, err := engine.New(cfg)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.world = w
	s.lastTick.Store(0)
	s.storeParams()
	s.runID = newRunID(cfg.Seed)
	s.runIDVal.Store(s.runID)
	if s.recorder != nil {
		s.recordRun()
	}
	if s.logger != nil {
		s.logger.Printf("reset: run=%s seed=%d agents=%d", s.runID, cfg.Seed, w.AgentCount())
	}
	return nil
}

func (s *Session) stepOnce() error {
	if err := s.world.Update(); err != nil {
		if s.logger != nil {
			s.logger.Printf("update failed: %v", err)
		}
		return err
	}
	tick := s.world.Tick()
	s.lastTick.Store(tick)

	msg := s.snapshotMsg(tick)
	if len(s.observers) > 0 {
		b, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal tick %d: %w", tick, err)
		}
		for _, ch := range s.observers {
			sendLatest(ch, b)
		}
	}
	if s.tickLogger != nil {
		entry := TickLogEntry{
			RunID:         s.runID,
			Tick:          tick,
			Alive:         s.world.AliveAgents(),
			TotalResource: s.world.TotalResource(),
			Deaths:        msg.Deaths,
		}
		if err := s.tickLogger.WriteTick(entry); err != nil && s.logger != nil {
			s.logger.Printf("tick log %d: %v", tick, err)
		}
	}
	return nil
}

func (s *Session) snapshotMsg(tick uint64) observerproto.TickMsg {
	cells := s.world.CellStates()
	agents := s.world.AgentStates()
	msg := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            tick,
		Cells:           make([]observerproto.CellState, len(cells)),
		Agents:          make([]observerproto.AgentState, len(agents)),
	}
	for i, c := range cells {
		msg.Cells[i] = observerproto.CellState{ID: c.ID, Resource: c.Resource, RegenRate: c.RegenRate}
	}
	for i, a := range agents {
		msg.Agents[i] = observerproto.AgentState{ID: a.ID, CellID: a.CellID, HP: a.HP, Alive: a.Alive, Hungry: a.Hungry}
	}
	for _, d := range s.world.DeathsLastTick() {
		msg.Deaths = append(msg.Deaths, observerproto.Death{AgentID: d.AgentID, CellID: d.CellID})
	}
	return msg
}

func (s *Session) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	// Replace existing session id if any.
	if old := s.observers[req.SessionID]; old != nil {
		close(old)
	}
	s.observers[req.SessionID] = req.Out
}

func (s *Session) handleObserverLeave(sessionID string) {
	ch := s.observers[sessionID]
	if ch == nil {
		return
	}
	delete(s.observers, sessionID)
	close(ch)
}

func (s *Session) closeObservers() {
	for id, ch := range s.observers {
		delete(s.observers, id)
		close(ch)
	}
}

// sendLatest delivers b without blocking: if the channel is full the oldest
// buffered snapshot is dropped so the observer always converges on the
// newest state.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
