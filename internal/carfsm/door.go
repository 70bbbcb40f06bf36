package carfsm

import (
	"time"

	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// dwellButtons selects which button is honored during a door dwell.
type dwellButtons int

const (
	noButtons     dwellButtons = iota // Opening edge: buttons are no-ops
	openDwellMode                     // Open edge: close aborts, open extends
	closeDwellMode                    // Closing edge: open aborts back to Opening
)

// doorDwell waits up to c.delay for startStatus to still hold, honoring the
// button interrupts button allows, then advances to nextStatus. If some
// other actor (the safety monitor's obstruction rule) changes status out
// from under this dwell, doorDwell abandons the edge and lets the next
// Run tick re-evaluate from whatever status it finds.
func (c *Car) doorDwell(startStatus, nextStatus protocol.Status, button dwellButtons) error {
	deadline := time.Now().Add(c.delay)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return c.r.SetStatus(nextStatus)
		}
		snap, err := c.wait(remaining)
		if err != nil {
			return err
		}
		if snap.Status != startStatus {
			return nil // e.g. safety rewrote Closing -> Opening
		}

		switch button {
		case openDwellMode:
			if closed, err := c.r.ConsumeCloseButtonForAbort(); err != nil {
				return err
			} else if closed {
				return c.r.SetStatus(protocol.StatusClosing)
			}
			if pressed, err := c.r.ConsumeOpenButton(); err != nil {
				return err
			} else if pressed {
				deadline = time.Now().Add(c.delay) // extend the Open dwell
			}
		case closeDwellMode:
			if pressed, err := c.r.ConsumeOpenButton(); err != nil {
				return err
			} else if pressed {
				return c.r.SetStatus(protocol.StatusOpening)
			}
		}
	}
}

// tickAutomatic handles one step of the normal (non individual-service)
// door + movement state machine.
func (c *Car) tickAutomatic(ctx ctxDoneer, snap region.Snapshot) error {
	switch snap.Status {
	case protocol.StatusClosed:
		if c.pendingDoorOpen {
			c.pendingDoorOpen = false
			return c.r.SetStatus(protocol.StatusOpening)
		}
		if pressed, err := c.r.ConsumeOpenButton(); err != nil {
			return err
		} else if pressed {
			return c.r.SetStatus(protocol.StatusOpening)
		}
		if !snap.CurrentFloor.Equal(snap.DestinationFloor) {
			return c.moveOneStep(ctx, snap, true)
		}
		_, err := c.wait(c.delay)
		return err

	case protocol.StatusOpening:
		return c.doorDwell(protocol.StatusOpening, protocol.StatusOpen, noButtons)

	case protocol.StatusOpen:
		return c.doorDwell(protocol.StatusOpen, protocol.StatusClosing, openDwellMode)

	case protocol.StatusClosing:
		return c.doorDwell(protocol.StatusClosing, protocol.StatusClosed, closeDwellMode)

	case protocol.StatusBetween:
		// Only reached if Run observed a mid-step snapshot (e.g. right
		// after a crash/restart); just wait for the next observable change.
		_, err := c.wait(c.delay)
		return err
	}
	return nil
}

// ctxDoneer is the minimal slice of context.Context moveOneStep needs;
// declared so door.go doesn't need to import context just for the type.
type ctxDoneer interface {
	Done() <-chan struct{}
}
