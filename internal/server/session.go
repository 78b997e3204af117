package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/san-kum/wheelsim/internal/protocol"
)

const (
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
)

var (
	errBusy        = errors.New("a simulation is already running on this connection")
	errRateLimited = errors.New("too many simulation requests, slow down")
)

// session serves one socket. Requests run one at a time; the reader keeps
// draining the socket while a simulation runs so a second request can be
// rejected instead of queued.
type session struct {
	srv     *Server
	conn    *websocket.Conn
	log     *zap.Logger
	limiter *rate.Limiter
	out     chan []byte
	busy    atomic.Bool
	jobs    sync.WaitGroup
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	// Counted before the upgrade, while Shutdown still tracks the request.
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{
		srv:     s,
		conn:    conn,
		log:     s.log.With(zap.String("session", uuid.NewString()), zap.String("remote", r.RemoteAddr)),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimit.PerSecond), s.cfg.RateLimit.Burst),
		out:     make(chan []byte, 4),
	}

	wsConnectionsActive.Inc()
	defer wsConnectionsActive.Dec()

	sess.log.Info("client connected")
	sess.run(s.baseCtx)
	sess.log.Info("client disconnected")
}

func (ss *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ss.writeLoop(ctx)
	}()

	ss.readLoop(ctx)

	cancel()
	ss.jobs.Wait()
	<-writerDone
	ss.conn.Close()
}

func (ss *session) readLoop(ctx context.Context) {
	ss.conn.SetReadLimit(ss.srv.cfg.MaxMessageBytes)
	pongWait := ss.srv.pongWait
	ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Unblock ReadMessage when the server shuts down.
	stop := context.AfterFunc(ctx, func() {
		ss.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				ss.log.Debug("read failed", zap.Error(err))
			}
			return
		}
		ss.conn.SetReadDeadline(time.Now().Add(pongWait))
		ss.handle(ctx, data)
	}
}

func (ss *session) handle(ctx context.Context, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		wsMessagesTotal.WithLabelValues("in", "malformed").Inc()
		ss.sendError(ctx, err)
		return
	}
	wsMessagesTotal.WithLabelValues("in", env.Type).Inc()

	if env.Type != protocol.TypeStartSimulation {
		ss.sendError(ctx, fmt.Errorf("%w: %q", protocol.ErrUnknownType, env.Type))
		return
	}

	params, err := protocol.ParseStart(env.Payload)
	if err != nil {
		ss.sendError(ctx, err)
		return
	}
	if !ss.limiter.Allow() {
		ss.sendError(ctx, errRateLimited)
		return
	}
	if !ss.busy.CompareAndSwap(false, true) {
		ss.sendError(ctx, errBusy)
		return
	}

	ss.jobs.Add(1)
	go func() {
		defer ss.jobs.Done()

		result, err := ss.srv.simulate(ctx, params, "ws")
		// Cleared before the reply is queued; the next request may arrive
		// as soon as the client reads it.
		ss.busy.Store(false)
		if err != nil {
			if ctx.Err() == nil {
				ss.log.Warn("simulation failed", zap.Error(err))
				ss.sendError(ctx, err)
			}
			return
		}

		msg, err := protocol.Encode(protocol.TypeSimulationData, result)
		if err != nil {
			ss.sendError(ctx, err)
			return
		}
		ss.send(ctx, protocol.TypeSimulationData, msg)
	}()
}

func (ss *session) sendError(ctx context.Context, err error) {
	ss.send(ctx, protocol.TypeError, protocol.EncodeError(err.Error()))
}

func (ss *session) send(ctx context.Context, typ string, msg []byte) {
	select {
	case ss.out <- msg:
		wsMessagesTotal.WithLabelValues("out", typ).Inc()
	case <-ctx.Done():
	}
}

func (ss *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(ss.srv.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case msg := <-ss.out:
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				ss.log.Debug("write failed", zap.Error(err))
				ss.drain(ctx)
				return
			}
		case <-ticker.C:
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ss.drain(ctx)
				return
			}
		case <-ctx.Done():
			ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			ss.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// drain discards outgoing messages after a write failure until the session
// ends, so senders never block on a dead socket.
func (ss *session) drain(ctx context.Context) {
	ss.conn.SetReadDeadline(time.Now())
	for {
		select {
		case <-ss.out:
		case <-ctx.Done():
			return
		}
	}
}
