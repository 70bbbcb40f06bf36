package carfsm

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

var testSeq int64

func newTestRegion(t *testing.T, lowest, highest, initial string) *region.Region {
	name := fmt.Sprintf("fsmtest%d-%d", os.Getpid(), atomic.AddInt64(&testSeq, 1))
	r, err := region.Create(name, lowest, highest, initial)
	require.NoError(t, err)
	t.Cleanup(func() { r.Destroy() })
	return r
}

// eventually polls r for up to 2s, invoking check on each snapshot until it
// returns true or the deadline elapses. Timing in this package is driven by
// real time.Sleep/time.After, so tests poll rather than synchronize exactly.
func eventually(t *testing.T, r *region.Region, check func(region.Snapshot) bool) region.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := r.Read()
		require.NoError(t, err)
		if check(snap) {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition never became true")
	return region.Snapshot{}
}

func TestCarMovesTowardDestinationAndOpensDoors(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetDestinationFloor(floor.MustParse("3")))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- car.Run(ctx) }()

	eventually(t, r, func(s region.Snapshot) bool {
		return s.CurrentFloor.Equal(floor.MustParse("3")) && s.Status == protocol.StatusOpen
	})

	cancel()
	<-done
}

func TestCarDoorClosesAfterDwellWithoutButtons(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetStatus(protocol.StatusOpening))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- car.Run(ctx) }()

	eventually(t, r, func(s region.Snapshot) bool { return s.Status == protocol.StatusClosed })

	cancel()
	<-done
}

func TestCarOpenDwellExtendsOnOpenButton(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetStatus(protocol.StatusOpen))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 30*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- car.Run(ctx) }()

	// Press open partway through the dwell; status must still be Open well
	// past the original deadline.
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, r.SetOpenButton(true))

	time.Sleep(25 * time.Millisecond)
	snap, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOpen, snap.Status, "open button must extend the dwell")

	cancel()
	<-done
}

func TestCarStopsOnEmergencyMode(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetEmergencyMode(true))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 5*time.Millisecond, nil)
	err := car.Run(context.Background())
	assert.ErrorIs(t, err, ErrEmergency)
}

func TestIndividualServiceOpenIsDirectNoOpeningEdge(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetIndividualServiceMode(true))
	require.NoError(t, r.SetOpenButton(true))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- car.Run(ctx) }()

	eventually(t, r, func(s region.Snapshot) bool { return s.Status == protocol.StatusOpen })

	cancel()
	<-done
}

func TestIndividualServiceMovementDoesNotAutoOpenOnArrival(t *testing.T) {
	r := newTestRegion(t, "1", "10", "1")
	require.NoError(t, r.SetIndividualServiceMode(true))
	require.NoError(t, r.SetDestinationFloor(floor.MustParse("2")))

	car := New(r, floor.MustParse("1"), floor.MustParse("10"), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- car.Run(ctx) }()

	eventually(t, r, func(s region.Snapshot) bool { return s.CurrentFloor.Equal(floor.MustParse("2")) })

	// Give the FSM a few more ticks; it must stay Closed, never auto-opening.
	time.Sleep(30 * time.Millisecond)
	snap, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusClosed, snap.Status)

	cancel()
	<-done
}
