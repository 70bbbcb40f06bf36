// Package carfsm implements the car's door and movement state machine
// (spec §4.C): Opening->Open->Closing->Closed for doors, Closed->Between->
// Closed for movement, plus individual-service mode's direct-jump door
// behavior and single-step retargeting. It is the one process that ever
// writes status/current_floor/destination_floor under normal operation;
// the safety monitor only overrides status on the obstruction rule, and
// the internal panel only ever sets button/mode bits and (in individual
// service) destination_floor.
package carfsm

import (
	"context"
	"errors"
	"time"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// ErrEmergency is returned by Run when the car observes emergency_mode and
// stops driving its own state machine (spec §4.C "Emergency mode").
var ErrEmergency = errors.New("carfsm: car entered emergency mode")

// Car drives one car's shared region.
type Car struct {
	r      *region.Region
	lowest floor.Floor
	high   floor.Floor
	delay  time.Duration
	log    *logging.Logger

	lastGen uint32

	// pendingDoorOpen is set by moveOneStep right after an automatic
	// arrival and consumed by the next Closed-state tick to trigger the
	// door sequence exactly once per arrival, never on an already-idle
	// Closed car (spec §4.C: "When current_floor first equals
	// destination_floor, initiate the door sequence").
	pendingDoorOpen bool
}

// New wraps r with the timing/bounds needed to drive its state machine.
// delay is the per-edge timer from spec §4.C and must be >= 1ms (spec §6).
func New(r *region.Region, lowest, highest floor.Floor, delay time.Duration, log *logging.Logger) *Car {
	if log == nil {
		log = logging.DefaultLogger("car")
	}
	return &Car{r: r, lowest: lowest, high: highest, delay: delay, log: log}
}

// Run drives the state machine until ctx is cancelled or the car observes
// emergency_mode, in which case it returns ErrEmergency and leaves the
// region exactly as it is (spec: "Doors are left in their current status.
// The region is not reset.").
func (c *Car) Run(ctx context.Context) error {
	gen, err := c.r.Generation()
	if err != nil {
		return err
	}
	c.lastGen = gen

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		snap, err := c.r.Read()
		if err != nil {
			return err
		}
		if snap.EmergencyMode {
			c.log.Warn("car entering emergency mode, stopping state machine")
			return ErrEmergency
		}

		if err := c.tick(ctx, snap); err != nil {
			return err
		}
	}
}

// tick performs exactly one state transition (or one idle wait) based on
// the current status, then returns so Run can re-check emergency_mode and
// ctx cancellation between every step.
func (c *Car) tick(ctx context.Context, snap region.Snapshot) error {
	if snap.IndividualServiceMode {
		return c.tickIndividualService(ctx, snap)
	}
	return c.tickAutomatic(ctx, snap)
}

// wait blocks until the region changes or timeout elapses, updating
// c.lastGen either way. It is the single chokepoint every idle/dwell wait
// in this package goes through.
func (c *Car) wait(timeout time.Duration) (region.Snapshot, error) {
	gen, changed, err := c.r.WaitChanged(c.lastGen, timeout)
	c.lastGen = gen
	if err != nil {
		return region.Snapshot{}, err
	}
	_ = changed
	return c.r.Read()
}
