package carfsm

import (
	"time"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// moveOneStep performs exactly one Closed->Between->Closed cycle, stepping
// current_floor one position toward destination_floor on the no-zero axis
// (spec §4.C, P6). The Between dwell itself has no documented interrupt —
// only ctx cancellation can cut it short, in which case Run exits having
// left the car at status Between on its old floor. A later Run on the same
// region does not complete that step: while status is Between it only waits.
//
// autoDoor controls whether arrival schedules the automatic door sequence
// (normal mode) or leaves the car simply Closed (individual-service mode,
// spec §4.C: "movement on explicit retargeting still requires status=Closed
// ... no automatic door cycle").
func (c *Car) moveOneStep(ctx ctxDoneer, snap region.Snapshot, autoDoor bool) error {
	if err := c.r.SetStatus(protocol.StatusBetween); err != nil {
		return err
	}

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil
	}

	next := floor.Step(snap.CurrentFloor, snap.DestinationFloor)
	if err := c.r.SetCurrentFloor(next); err != nil {
		return err
	}
	if err := c.r.SetStatus(protocol.StatusClosed); err != nil {
		return err
	}

	if autoDoor && next.Equal(snap.DestinationFloor) {
		c.pendingDoorOpen = true
	}
	return nil
}
