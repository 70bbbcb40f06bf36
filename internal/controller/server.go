package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mngv7/elevator-control-system/internal/errs"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/metrics"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

// ListenAddr is the controller's fixed bind address (spec §4.D: "controller
// binds 0.0.0.0:3000").
const ListenAddr = "0.0.0.0:3000"

// dispatchPollInterval is the dispatcher's "short sleep" (spec §5) used in
// place of a true condvar-on-registry-change; short enough that a car
// idling at its destination gets its next FLOOR within a couple of ticks.
const dispatchPollInterval = 20 * time.Millisecond

// Server is the controller: a listener plus the car registry and per-call
// admission/selection logic.
type Server struct {
	reg *Registry
	log *logging.Logger
	met *metrics.Metrics
}

// NewServer builds a Server with an empty registry. met may be nil, in
// which case metric updates are skipped (metrics are ambient, never load
// bearing).
func NewServer(log *logging.Logger, met *metrics.Metrics) *Server {
	if log == nil {
		log = logging.DefaultLogger("controller")
	}
	return &Server{reg: NewRegistry(), log: log, met: met}
}

// Registry exposes the car registry for metrics collection.
func (s *Server) Registry() *Registry { return s.reg }

// Run listens on addr until ctx is cancelled. The controller never exits
// on a per-connection failure (spec §7): every accepted connection is
// handled on its own goroutine and a failure there only affects that peer.
func (s *Server) Run(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	s.log.Info("controller listening", logging.String("addr", addr))

	go func() {
		<-ctx.Done()
		_ = lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Warn("accept failed", logging.Err(err))
				continue
			}
		}
		go s.handleConn(ctx, conn)
	}
}

// handleConn classifies the first frame on a new connection as either a
// car greeting or a call request (spec §4.E).
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	ch := protocol.NewChannel(conn)
	connID := uuid.New()

	raw, err := ch.Recv()
	if err != nil {
		_ = ch.Close()
		return
	}

	switch {
	case strings.HasPrefix(raw, "CAR "):
		greeting, err := protocol.ParseGreeting(raw)
		if err != nil {
			s.log.Warn("malformed greeting", logging.String("raw", raw))
			_ = ch.Close()
			return
		}
		s.runCarWorker(ctx, ch, greeting, connID)

	case strings.HasPrefix(raw, "CALL"):
		call, err := protocol.ParseCall(raw)
		if err != nil {
			s.log.Warn("malformed call", logging.String("raw", raw))
			_ = ch.Close()
			return
		}
		s.handleCall(ch, call)
		_ = ch.Close()

	default:
		s.log.Warn("unrecognized first frame", logging.String("raw", raw))
		_ = ch.Close()
	}
}

// handleCall implements spec §4.E admission + selection for one call-pad
// connection, then replies exactly once.
func (s *Server) handleCall(ch *protocol.Channel, call protocol.CallMsg) {
	if call.Src.Equal(call.Dst) {
		_ = ch.Send(protocol.ReplyUnavailable)
		return
	}

	rec, ok := s.reg.SelectCar(call.Src, call.Dst)
	if !ok {
		if s.met != nil {
			s.met.CallsRejected.Inc()
		}
		_ = ch.Send(protocol.ReplyUnavailable)
		return
	}

	rec.Enqueue(call.Src, call.Dst)
	if s.met != nil {
		s.met.CallsAccepted.Inc()
		s.met.QueueDepth.WithLabelValues(rec.Name).Set(float64(rec.QueueLen()))
	}
	_ = ch.Send(protocol.CarReply(rec.Name))
}

// runCarWorker owns one car's connection for its lifetime: it registers
// the car, runs the status-checker and dispatcher concurrently, and
// unregisters on exit regardless of cause (spec §4.E "car worker").
func (s *Server) runCarWorker(ctx context.Context, ch *protocol.Channel, greeting protocol.Greeting, connID uuid.UUID) {
	rec := s.reg.Register(greeting.Name, greeting.Lo, greeting.Hi)
	log := s.log.With(logging.String("car", rec.Name), logging.String("conn_id", connID.String()))
	log.Info("car registered")
	if s.met != nil {
		s.met.RegisteredCars.Set(float64(len(s.reg.Snapshot())))
	}
	defer func() {
		s.reg.Remove(rec.ID)
		_ = ch.Close()
		log.Info("car unregistered")
		if s.met != nil {
			s.met.RegisteredCars.Set(float64(len(s.reg.Snapshot())))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.statusChecker(gctx, ch, rec) })
	g.Go(func() error { return s.dispatcher(gctx, ch, rec) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Info("car link ended", logging.Err(err))
	}
}

// statusChecker reads frames from the car, updates the registry mirror,
// and exits on EMERGENCY/INDIVIDUAL SERVICE/close (spec §4.E).
func (s *Server) statusChecker(ctx context.Context, ch *protocol.Channel, rec *CarRecord) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := ch.Recv()
		if err != nil {
			return err
		}
		if protocol.IsTerminal(raw) {
			s.log.Warn("car declared terminal state", logging.String("car", rec.Name), logging.String("msg", raw))
			return nil
		}
		status, err := protocol.ParseStatus(raw)
		if err != nil {
			// ProtocolError: close only this peer, the rest of the
			// controller keeps running (spec §7).
			return fmt.Errorf("%w: %s", errs.ErrProtocol, err)
		}
		rec.UpdateMirror(status.Status, status.Cur, status.Dst)
	}
}

// dispatcher sends the next stop for rec whenever dispatch is due (spec
// §4.E dispatch rule), popping the queue only once the frame is actually
// sent (§4.E: "pops the head only when the frame is successfully sent").
// NextDispatch/CommitDispatch together also ensure at most one stop is
// sent per arrival, even though condition (a) stays true for the car's
// whole door cycle.
func (s *Server) dispatcher(ctx context.Context, ch *protocol.Channel, rec *CarRecord) error {
	t := time.NewTicker(dispatchPollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		f, ok := rec.NextDispatch()
		if !ok {
			continue
		}
		msg := protocol.FloorMsg{Floor: f}
		if err := ch.Send(msg.String()); err != nil {
			return err
		}
		rec.CommitDispatch(f)
		if s.met != nil {
			s.met.Dispatches.WithLabelValues(rec.Name).Inc()
			s.met.QueueDepth.WithLabelValues(rec.Name).Set(float64(rec.QueueLen()))
		}
	}
}
