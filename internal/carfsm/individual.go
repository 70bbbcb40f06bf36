package carfsm

import (
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// tickIndividualService implements spec §4.C's individual-service mode:
// open/close jump the door directly between Open and Closed with no
// intermediate Opening/Closing, and movement only ever happens one step at
// a time in response to an operator up/down verb (which has already placed
// the adjacent floor into destination_floor by the time this runs).
func (c *Car) tickIndividualService(ctx ctxDoneer, snap region.Snapshot) error {
	switch snap.Status {
	case protocol.StatusClosed:
		opened, err := c.r.ConsumeOpenButton()
		if err != nil {
			return err
		}
		if _, err := c.r.ConsumeCloseButtonForAbort(); err != nil {
			return err
		}
		if opened {
			return c.r.SetStatus(protocol.StatusOpen)
		}
		if !snap.CurrentFloor.Equal(snap.DestinationFloor) {
			return c.moveOneStep(ctx, snap, false)
		}
		_, err = c.wait(c.delay)
		return err

	case protocol.StatusOpen:
		if _, err := c.r.ConsumeOpenButton(); err != nil {
			return err
		}
		closed, err := c.r.ConsumeCloseButtonForAbort()
		if err != nil {
			return err
		}
		if closed {
			return c.r.SetStatus(protocol.StatusClosed)
		}
		_, err = c.wait(c.delay)
		return err

	default:
		// Opening/Closing/Between: individual service never sets these
		// itself beyond the in-flight Between step moveOneStep drives;
		// just wait for it to resolve.
		_, err := c.wait(c.delay)
		return err
	}
}
