package link

import (
	"context"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

// dispatchReader implements spec §4.C's "for each received FLOOR <f>"
// rule. It runs until Recv errors (peer closed, I/O error, or a malformed
// frame), at which point serve() tears the connection down and Run
// reconnects; the car keeps driving its state machine locally throughout.
func (l *Link) dispatchReader(ctx context.Context, ch *protocol.Channel) error {
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

		msg, err := protocol.ParseFloorMsg(raw)
		if err != nil {
			// Anything that isn't FLOOR is a ProtocolError: close this
			// connection and keep operating locally (spec §7).
			return err
		}

		if err := l.applyDispatch(msg.Floor); err != nil {
			return err
		}
	}
}

// applyDispatch is spec §4.C's dispatch rule verbatim: if the car is
// already at f with doors closed, start the door sequence in place;
// otherwise retarget unless mid-flight, in which case drop the dispatch
// (the controller will not requeue it — spec §4.E says its dispatch rule
// never sends while Between in the first place).
func (l *Link) applyDispatch(f floor.Floor) error {
	snap, err := l.r.Read()
	if err != nil {
		return err
	}
	switch {
	case f.Equal(snap.CurrentFloor) && snap.Status == protocol.StatusClosed:
		return l.r.SetStatus(protocol.StatusOpening)
	case snap.Status != protocol.StatusBetween:
		return l.r.SetDestinationFloor(f)
	default:
		return nil // ignored; see comment above
	}
}
