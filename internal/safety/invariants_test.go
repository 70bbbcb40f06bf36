package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

func validSnapshot() region.Snapshot {
	return region.Snapshot{
		CurrentFloor:     floor.MustParse("3"),
		DestinationFloor: floor.MustParse("3"),
		Status:           protocol.StatusClosed,
		LowestFloor:      floor.MustParse("B2"),
		HighestFloor:     floor.MustParse("10"),
	}
}

func TestCheckConsistencyAcceptsValidSnapshot(t *testing.T) {
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.NoError(t, CheckConsistency(validSnapshot(), lo, hi))
}

func TestCheckConsistencyRejectsBadCurrentFloor(t *testing.T) {
	snap := validSnapshot()
	snap.CurrentFloorErr = errors.New("boom")
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.Error(t, CheckConsistency(snap, lo, hi))
}

func TestCheckConsistencyRejectsUnknownStatus(t *testing.T) {
	snap := validSnapshot()
	snap.Status = protocol.Status("Moving")
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.Error(t, CheckConsistency(snap, lo, hi))
}

func TestCheckConsistencyRejectsObstructionOutsideDoorMotion(t *testing.T) {
	snap := validSnapshot()
	snap.Status = protocol.StatusClosed
	snap.DoorObstruction = true
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.Error(t, CheckConsistency(snap, lo, hi))
}

func TestCheckConsistencyAllowsObstructionDuringOpeningOrClosing(t *testing.T) {
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	for _, st := range []protocol.Status{protocol.StatusOpening, protocol.StatusClosing} {
		snap := validSnapshot()
		snap.Status = st
		snap.DoorObstruction = true
		assert.NoError(t, CheckConsistency(snap, lo, hi), st)
	}
}

func TestCheckConsistencyRejectsFloorOutsideCarRange(t *testing.T) {
	snap := validSnapshot()
	snap.CurrentFloor = floor.MustParse("20")
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.Error(t, CheckConsistency(snap, lo, hi))
}

func TestCheckConsistencySkippedUnderEmergencyMode(t *testing.T) {
	snap := validSnapshot()
	snap.Status = protocol.Status("garbage")
	snap.EmergencyMode = true
	lo, hi := floor.MustParse("B2"), floor.MustParse("10")
	assert.NoError(t, CheckConsistency(snap, lo, hi))
}
