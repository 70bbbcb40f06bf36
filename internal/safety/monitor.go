package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/mngv7/elevator-control-system/internal/errs"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// wakeTimeout bounds each WaitChanged poll so the monitor notices ctx
// cancellation promptly even when the car is quiescent.
const wakeTimeout = 200 * time.Millisecond

// Monitor watches one car's shared region and enforces spec §4.F.
type Monitor struct {
	r   *region.Region
	log *logging.Logger
}

// New attaches to the named car's region. Returns an AttachError-flavored
// error if the region does not exist.
func New(name string, log *logging.Logger) (*Monitor, error) {
	r, err := region.Attach(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrAttach, err)
	}
	if log == nil {
		log = logging.DefaultLogger("safety")
	}
	return &Monitor{r: r, log: log.With(logging.String("car", name))}, nil
}

// Close detaches from the region.
func (m *Monitor) Close() error { return m.r.Close() }

// Run loops until ctx is cancelled, waking on every shared-region mutation
// and re-evaluating the full rule set (spec §4.F, §5 "every observer that
// reacted to state must re-check the full predicate after each wake").
func (m *Monitor) Run(ctx context.Context) error {
	var gen uint32
	runOnce := func() error {
		return m.r.Transact(func(snap region.Snapshot, txn *region.Txn) error {
			gen = snap.Generation
			return m.evaluate(snap, txn)
		})
	}

	if err := runOnce(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		newGen, changed, err := m.r.WaitChanged(gen, wakeTimeout)
		if err != nil {
			return err
		}
		gen = newGen
		if !changed {
			continue
		}

		if err := runOnce(); err != nil {
			return err
		}
	}
}

// evaluate applies rules 1-4 of spec §4.F, in order, against one snapshot
// and a Txn over the same locked region — the read and every mutation
// share one lock acquisition (via Region.Transact), so a car transition
// racing between rule 1's read and its re-open can no longer slip an
// inconsistent write in between.
func (m *Monitor) evaluate(snap region.Snapshot, txn *region.Txn) error {
	// Rule 1: obstruction while closing forces a re-open.
	if snap.DoorObstruction && snap.Status == protocol.StatusClosing {
		if err := txn.SetStatus(protocol.StatusOpening); err != nil {
			return err
		}
		m.log.Warn("door obstruction detected, re-opening")
	}

	// Rule 2: emergency stop latches emergency mode.
	if snap.EmergencyStop && !snap.EmergencyMode {
		m.log.Error("EMERGENCY STOP activated")
		txn.SetEmergencyMode(true)
		snap.EmergencyMode = true
	}

	// Rule 3: overload latches emergency mode.
	if snap.Overload && !snap.EmergencyMode {
		m.log.Error("OVERLOAD detected")
		txn.SetEmergencyMode(true)
		snap.EmergencyMode = true
	}

	// Rule 4: full consistency predicate (I1-I6, I6 enforced by never
	// clearing the bit anywhere in this package).
	if err := CheckConsistency(snap, snap.LowestFloor, snap.HighestFloor); err != nil {
		m.log.Error("DATA CONSISTENCY ERROR", logging.Err(err))
		txn.SetEmergencyMode(true)
		return nil
	}
	return nil
}
