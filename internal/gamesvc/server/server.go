package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"monopoly-service/internal/comm"
	"monopoly-service/internal/gamesvc/broker"
	"monopoly-service/internal/gamesvc/game"
	"monopoly-service/internal/gamesvc/matchmaking"
	"monopoly-service/internal/gamesvc/models"
	"monopoly-service/internal/gamesvc/session"
	"monopoly-service/internal/protocol"
)

const (
	// SessionTimeout drops sessions with no traffic, heartbeats included.
	SessionTimeout = 60 * time.Second

	outboxSize = 64
)

type Config struct {
	SessionTimeout time.Duration
	PoolCapacity   int
	Matchmaking    matchmaking.Config
}

func DefaultServerConfig() Config {
	return Config{
		SessionTimeout: SessionTimeout,
		PoolCapacity:   game.DefaultPoolCapacity,
		Matchmaking:    matchmaking.DefaultConfig(),
	}
}

// transport carries length-delimited frames over a raw TCP stream or a
// websocket. Streamed transports cannot resync after a malformed header.
type transport interface {
	ReadFrame() (protocol.Frame, error)
	WriteFrame(data []byte) error
	Close() error
	Streamed() bool
}

type tcpTransport struct {
	c net.Conn
	r *bufio.Reader
}

func newTCPTransport(c net.Conn) *tcpTransport {
	return &tcpTransport{c: c, r: bufio.NewReader(c)}
}

func (t *tcpTransport) ReadFrame() (protocol.Frame, error) { return protocol.ReadFrame(t.r) }
func (t *tcpTransport) WriteFrame(data []byte) error {
	_, err := t.c.Write(data)
	return err
}
func (t *tcpTransport) Close() error   { return t.c.Close() }
func (t *tcpTransport) Streamed() bool { return true }

type wsTransport struct {
	c *websocket.Conn
}

func (t *wsTransport) ReadFrame() (protocol.Frame, error) {
	for {
		mt, raw, err := t.c.ReadMessage()
		if err != nil {
			return protocol.Frame{}, err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		return protocol.Decode(raw)
	}
}

func (t *wsTransport) WriteFrame(data []byte) error {
	return t.c.WriteMessage(websocket.BinaryMessage, data)
}
func (t *wsTransport) Close() error   { return t.c.Close() }
func (t *wsTransport) Streamed() bool { return false }

type conn struct {
	id     string
	t      transport
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

func newConn(t transport) *conn {
	return &conn{
		id:     uuid.New().String(),
		t:      t,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.t.Close()
	})
}

func (c *conn) writeLoop() {
	for {
		select {
		case buf := <-c.outbox:
			if err := c.t.WriteFrame(buf); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

type evKind int

const (
	evFrame evKind = iota
	evOpen
	evClose
)

type event struct {
	kind  evKind
	conn  *conn
	frame protocol.Frame
}

// AuthBackend is the credential and token surface the server needs,
// satisfied by service.AuthService.
type AuthBackend interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	Logout(ctx context.Context, userId uint32) error
}

// MatchBackend persists match lifecycle, satisfied by service.MatchService.
type MatchBackend interface {
	CreateMatch(ctx context.Context, player1Id, player2Id uint32) (uint32, error)
	LogMove(matchId uint32, moveNum int, userId uint32, action string, dice [2]int, position int)
	Finalize(ctx context.Context, matchId, winnerId, loserId uint32, reason string) (*comm.GameResult, error)
	FinalizeDraw(ctx context.Context, matchId, player1Id, player2Id uint32) (*comm.GameResult, error)
	History(ctx context.Context, userId uint32, limit int) ([]models.HistoryRow, error)
}

// ChallengeAudit records challenge outcomes, satisfied by
// service.ChallengeService.
type ChallengeAudit interface {
	Record(challengeId, challengerId, challengedId uint32)
	Resolve(challengeId uint32, status string)
}

// Server is the authoritative game endpoint. A single dispatch loop owns
// every session and match, so handlers never need locks; per-connection
// reader and writer goroutines only move frames in and out.
type Server struct {
	cfg        Config
	registry   *session.Registry
	engine     *matchmaking.Engine
	pool       *game.Pool
	auth       AuthBackend
	matches    MatchBackend
	challenges ChallengeAudit
	broker     *broker.Broker

	ln     net.Listener
	events chan event
	conns  map[string]*conn

	// rematch offers and last opponents by user id, loop-owned
	rematchOffers map[uint32]uint32
	lastOpponent  map[uint32]uint32

	lastSweep time.Time
	quit      chan struct{}
	loopDone  chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewServer(cfg Config, auth AuthBackend, matches MatchBackend,
	challenges ChallengeAudit, b *broker.Broker) *Server {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = SessionTimeout
	}
	return &Server{
		cfg:           cfg,
		registry:      session.NewRegistry(),
		engine:        matchmaking.New(cfg.Matchmaking),
		pool:          game.NewPool(cfg.PoolCapacity),
		auth:          auth,
		matches:       matches,
		challenges:    challenges,
		broker:        b,
		events:        make(chan event, 256),
		conns:         make(map[string]*conn),
		rematchOffers: make(map[uint32]uint32),
		lastOpponent:  make(map[uint32]uint32),
		quit:          make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
}

func (s *Server) Registry() *session.Registry { return s.registry }
func (s *Server) Pool() *game.Pool            { return s.pool }

// Listen binds the TCP endpoint and starts accepting game clients.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.startLoop()

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				select {
				case <-s.quit:
				default:
					log.Errorf("accept: %v", err)
				}
				return
			}
			s.attach(newTCPTransport(nc))
		}
	}()

	log.Infof("game endpoint listening on %s", addr)
	return nil
}

// AttachWebSocket bridges an upgraded websocket into the dispatch loop.
// The caller must not touch the socket afterwards.
func (s *Server) AttachWebSocket(wc *websocket.Conn) {
	s.startLoop()
	s.attach(&wsTransport{c: wc})
}

func (s *Server) startLoop() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.loop()
	})
}

// attach queues the open event before the reader starts, so the session
// exists by the time the connection's first frame is dispatched.
func (s *Server) attach(t transport) {
	c := newConn(t)
	select {
	case s.events <- event{kind: evOpen, conn: c}:
	case <-s.quit:
		c.close()
		return
	}
	go c.writeLoop()
	go s.readLoop(c)
}

func (s *Server) readLoop(c *conn) {
	defer func() {
		select {
		case s.events <- event{kind: evClose, conn: c}:
		case <-s.quit:
		}
	}()

	for {
		f, err := c.t.ReadFrame()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformedFrame) {
				log.Warnf("malformed frame from %s: %v", c.id, err)
				s.push(c, protocol.KindError, 0, 0, comm.ErrorMessage{Message: "malformed frame"})
				if !c.t.Streamed() {
					continue
				}
			}
			return
		}

		select {
		case s.events <- event{kind: evFrame, conn: c, frame: f}:
		case <-c.done:
			return
		case <-s.quit:
			return
		}
	}
}

// loop serializes all game state mutation.
func (s *Server) loop() {
	defer close(s.loopDone)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.lastSweep = time.Now()

	for {
		select {
		case <-s.quit:
			s.shutdown()
			return
		case ev := <-s.events:
			switch ev.kind {
			case evOpen:
				s.conns[ev.conn.id] = ev.conn
				s.registry.Add(ev.conn.id)
				log.Infof("connection established: %s", ev.conn.id)
			case evClose:
				s.dropSession(ev.conn)
			case evFrame:
				s.registry.Touch(ev.conn.id)
				s.handleFrame(ev.conn, ev.frame)
			}
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Server) tick(now time.Time) {
	for _, sess := range s.registry.Expired(s.cfg.SessionTimeout) {
		if c, ok := s.conns[sess.ConnID]; ok {
			log.Infof("session %s timed out", sess.ConnID)
			s.dropSession(c)
		}
	}

	if now.Sub(s.lastSweep) >= s.engine.Config().SweepInterval {
		s.lastSweep = now
		for _, p := range s.engine.Sweep(s.registry.Searching(), now) {
			s.startMatch(p.First, p.Second)
		}
	}

	for _, ch := range s.engine.ExpireChallenges(now) {
		s.challenges.Resolve(ch.ID, "expired")
		s.sendToUser(ch.ChallengerID, protocol.KindDeclineChallenge, 0,
			comm.ChallengeAnswer{ChallengeId: ch.ID})
	}
}

// dropSession removes the connection and resolves anything it was part
// of: pending challenges and rematch offers are cancelled, and a live
// match is forfeited in favor of the remaining player.
func (s *Server) dropSession(c *conn) {
	c.close()
	delete(s.conns, c.id)
	sess := s.registry.Remove(c.id)
	if sess == nil || sess.UserID == 0 {
		return
	}
	log.Infof("session closed: %s user %d", c.id, sess.UserID)

	for _, ch := range s.engine.CancelBy(sess.UserID) {
		s.challenges.Resolve(ch.ID, "cancelled")
		other := ch.ChallengerID
		if other == sess.UserID {
			other = ch.ChallengedID
		}
		s.sendToUser(other, protocol.KindDeclineChallenge, 0,
			comm.ChallengeAnswer{ChallengeId: ch.ID})
	}
	s.cancelRematch(sess.UserID)

	if m := s.pool.ByUser(sess.UserID); m != nil {
		idx := m.PlayerIndex(sess.UserID)
		if err := m.Forfeit(idx); err == nil {
			s.finishMatch(m)
		} else {
			s.pool.Remove(m.ID)
		}
	}

	s.broker.PublishPlayerOnline(sess.UserID, sess.Username, false)
}

func (s *Server) cancelRematch(userID uint32) {
	if target, ok := s.rematchOffers[userID]; ok {
		delete(s.rematchOffers, userID)
		s.sendToUser(target, protocol.KindRematchCancelled, userID, nil)
	}
	for offerer, target := range s.rematchOffers {
		if target == userID {
			delete(s.rematchOffers, offerer)
			s.sendToUser(offerer, protocol.KindRematchCancelled, userID, nil)
		}
	}
}

// shutdown abandons live matches as draws and notifies every client.
func (s *Server) shutdown() {
	for _, m := range s.pool.All() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := s.matches.FinalizeDraw(ctx, m.ID, m.Players[0].UserID, m.Players[1].UserID)
		cancel()
		if err != nil {
			log.Errorf("abandon match %d: %v", m.ID, err)
			continue
		}
		for _, pl := range m.Players {
			s.sendToUser(pl.UserID, protocol.KindGameResult, 0, result)
		}
		s.pool.Remove(m.ID)
	}

	for _, c := range s.conns {
		s.push(c, protocol.KindError, 0, 0, comm.ErrorMessage{Message: "server shutting down"})
		c.close()
	}
	s.conns = make(map[string]*conn)
}

// Stop closes the listener and drains the dispatch loop.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.ln != nil {
			s.ln.Close()
		}
		if s.started.Load() {
			<-s.loopDone
		}
	})
}
