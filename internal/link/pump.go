package link

import (
	"context"
	"errors"

	"github.com/mngv7/elevator-control-system/internal/protocol"
)

// errTerminal signals that the car just sent its one-shot EMERGENCY or
// INDIVIDUAL SERVICE notification; serve() tears the connection down as
// usual but Run's top-of-loop mode check decides whether to ever redial.
var errTerminal = errors.New("link: car entered a terminal mode")

// statusPump sends a fresh STATUS frame whenever the shared region changes
// or the heartbeat delay elapses, whichever comes first (spec §4.D:
// "(ii) on every shared-region change, (iii) at least every delay ms as a
// heartbeat"). STATUS sends are best-effort: a broken pipe does not stop
// the car from serving locally, it just means this connection is dead and
// dispatchReader's Recv will observe the same thing and unwind serve().
func (l *Link) statusPump(ctx context.Context, ch *protocol.Channel) error {
	gen, err := l.r.Generation()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		newGen, _, err := l.r.WaitChanged(gen, l.delay)
		if err != nil {
			return err
		}
		gen = newGen

		snap, err := l.r.Read()
		if err != nil {
			return err
		}

		if snap.EmergencyMode {
			_ = ch.Send(protocol.MsgEmergency)
			return errTerminal
		}
		if snap.IndividualServiceMode {
			_ = ch.Send(protocol.MsgIndividualService)
			return errTerminal
		}

		msg := protocol.StatusMsg{Status: snap.Status, Cur: snap.CurrentFloor, Dst: snap.DestinationFloor}
		if err := ch.Send(msg.String()); err != nil {
			return err // peer almost certainly gone; let serve() unwind and reconnect
		}
	}
}
