// Package link implements the car's side of the car<->controller
// connection (spec §4.C "Controller connection sub-loop", §4.D): connect
// with backoff, send the CAR greeting and an initial STATUS, then run a
// status pump and a dispatch reader concurrently until the connection
// drops, at which point it reconnects forever. The car never exits because
// of a controller-side failure (spec §7).
package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/mngv7/elevator-control-system/internal/errs"
	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// Addr is the fixed controller endpoint cars dial (spec §4.D).
const Addr = "127.0.0.1:3000"

// Link owns one car's connection to the controller.
type Link struct {
	name    string
	lowest  floor.Floor
	high    floor.Floor
	r       *region.Region
	delay   time.Duration
	baseLog *logging.Logger
	log     *logging.Logger
	cb      *gobreaker.CircuitBreaker
}

// New builds a Link for car name. delay doubles as the reconnect backoff,
// the heartbeat interval, and the breaker's open-state cooldown, following
// the teacher's single "deadline-ish" time unit per component.
func New(name string, lowest, highest floor.Floor, r *region.Region, delay time.Duration, log *logging.Logger) *Link {
	if log == nil {
		log = logging.DefaultLogger("link")
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "controller-dial-" + name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     delay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Link{name: name, lowest: lowest, high: highest, r: r, delay: delay, baseLog: log, log: log, cb: cb}
}

// Run connects and re-connects until ctx is cancelled.
func (l *Link) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		snap, err := l.r.Read()
		if err != nil {
			return err
		}
		if snap.EmergencyMode {
			// Emergency is terminal: the car never reconnects (spec §4.C).
			return nil
		}
		if snap.IndividualServiceMode {
			// Stay off the grid until the operator clears service mode;
			// poll rather than busy-loop.
			sleep(ctx, l.delay)
			continue
		}

		ch, err := l.connect(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			l.log.Warn("connect failed, retrying", logging.Err(err))
			sleep(ctx, l.delay)
			continue
		}

		l.serve(ctx, ch)
		_ = ch.Close()
	}
}

// connect dials the controller through the circuit breaker (spec §4.C:
// "repeatedly attempt TCP connect with backoff delay ms until success")
// and sends the greeting plus the first STATUS frame.
func (l *Link) connect(ctx context.Context) (*protocol.Channel, error) {
	v, err := l.cb.Execute(func() (interface{}, error) {
		d := net.Dialer{Timeout: l.delay}
		return d.DialContext(ctx, "tcp", Addr)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrConnect, err)
	}
	conn := v.(net.Conn)
	ch := protocol.NewChannel(conn)

	// connID correlates this connection's log lines across the pump,
	// dispatch reader, and controller-side reconnect churn; a monotonic
	// counter would also work, but the connection genuinely has no other
	// stable identity until the controller assigns it a CarID.
	connID := uuid.New()
	l.log = l.baseLog.With(logging.String("conn_id", connID.String()))

	greeting := protocol.Greeting{Name: l.name, Lo: l.lowest, Hi: l.high}
	if err := ch.Send(greeting.String()); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%w: %s", errs.ErrConnect, err)
	}

	snap, err := l.r.Read()
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	initial := protocol.StatusMsg{Status: snap.Status, Cur: snap.CurrentFloor, Dst: snap.DestinationFloor}
	if err := ch.Send(initial.String()); err != nil {
		// A broken pipe here is not fatal to the car (spec §7): a failed
		// initial STATUS send just means this connection attempt is dead,
		// so drop it and let Run reconnect.
		_ = ch.Close()
		return nil, err
	}

	l.log.Info("connected to controller")
	return ch, nil
}

// serve runs the status pump and dispatch reader until either exits, then
// returns so Run reconnects.
func (l *Link) serve(ctx context.Context, ch *protocol.Channel) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.statusPump(gctx, ch) })
	g.Go(func() error { return l.dispatchReader(gctx, ch) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errTerminal) {
		l.log.Warn("controller link dropped", logging.Err(err))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
