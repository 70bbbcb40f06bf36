package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

func TestRegistryRegisterAndSnapshot(t *testing.T) {
	r := NewRegistry()
	a := r.Register("A", floor.MustParse("1"), floor.MustParse("10"))
	b := r.Register("B", floor.MustParse("B2"), floor.MustParse("5"))

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ID, snap[0].ID)
	assert.Equal(t, b.ID, snap[1].ID)
}

func TestRegistryRemovePreservesOrder(t *testing.T) {
	r := NewRegistry()
	a := r.Register("A", floor.MustParse("1"), floor.MustParse("10"))
	b := r.Register("B", floor.MustParse("1"), floor.MustParse("10"))
	c := r.Register("C", floor.MustParse("1"), floor.MustParse("10"))

	r.Remove(b.ID)

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ID, snap[0].ID)
	assert.Equal(t, c.ID, snap[1].ID)

	_, ok := r.Get(b.ID)
	assert.False(t, ok)
}

func TestSelectCarPicksFirstCoveringCarInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("A", floor.MustParse("1"), floor.MustParse("5"))
	wide := r.Register("B", floor.MustParse("B2"), floor.MustParse("20"))

	rec, ok := r.SelectCar(floor.MustParse("B1"), floor.MustParse("15"))
	require.True(t, ok)
	assert.Equal(t, wide.ID, rec.ID)
}

func TestSelectCarRejectsWhenNoCarCovers(t *testing.T) {
	r := NewRegistry()
	r.Register("A", floor.MustParse("1"), floor.MustParse("5"))

	_, ok := r.SelectCar(floor.MustParse("1"), floor.MustParse("8"))
	assert.False(t, ok)
}

func TestCarRecordNextDispatchOnlyWhenIdle(t *testing.T) {
	rec := &CarRecord{
		Status: protocol.StatusClosed,
		Cur:    floor.MustParse("1"),
		Dst:    floor.MustParse("5"),
	}
	rec.Queue.Enqueue(floor.MustParse("3"), floor.MustParse("8"))

	_, ok := rec.NextDispatch()
	assert.False(t, ok, "car mid-trip (Cur != Dst) must not be handed its next stop")

	rec.Dst = rec.Cur
	f, ok := rec.NextDispatch()
	assert.True(t, ok)
	assert.Equal(t, "3", f.String())
	assert.Equal(t, 2, rec.QueueLen(), "NextDispatch must not remove the stop from the queue")
}

func TestCarRecordCommitDispatchPopsOnlyTheSentHead(t *testing.T) {
	rec := &CarRecord{
		Status: protocol.StatusClosed,
		Cur:    floor.MustParse("1"),
		Dst:    floor.MustParse("1"),
	}
	rec.Queue.Enqueue(floor.MustParse("3"), floor.MustParse("8"))

	f, ok := rec.NextDispatch()
	require.True(t, ok)
	rec.CommitDispatch(f)
	assert.Equal(t, 1, rec.QueueLen(), "CommitDispatch must pop exactly the stop that was sent")
}

func TestCarRecordNextDispatchGatesUntilNewObservation(t *testing.T) {
	rec := &CarRecord{
		Status: protocol.StatusClosed,
		Cur:    floor.MustParse("1"),
		Dst:    floor.MustParse("1"),
	}
	rec.Queue.Insert(floor.DirUp, floor.MustParse("3"))
	rec.Queue.Insert(floor.DirUp, floor.MustParse("8"))

	f, ok := rec.NextDispatch()
	require.True(t, ok)
	assert.Equal(t, "3", f.String())
	rec.CommitDispatch(f)

	// Repeated polls before any new STATUS arrives from the car must not
	// hand out the next stop, even though condition (a) (Cur == Dst)
	// still holds — this is the race the 20ms poller must not win,
	// otherwise it would overwrite destination_floor before the car has
	// even acted on the first dispatch.
	_, ok = rec.NextDispatch()
	assert.False(t, ok, "must wait for a fresh mirror observation before sending the next stop")
	_, ok = rec.NextDispatch()
	assert.False(t, ok, "gate must stay closed across multiple polls, not just one")

	// The car reports a genuinely new observation (it has reached the
	// dispatched floor and is opening its doors there); the gate opens for
	// exactly the next stop.
	rec.UpdateMirror(protocol.StatusOpening, floor.MustParse("3"), floor.MustParse("3"))
	next, ok := rec.NextDispatch()
	assert.True(t, ok)
	assert.Equal(t, "8", next.String())
}

func TestCarRecordUpdateAndReadMirror(t *testing.T) {
	rec := &CarRecord{}
	rec.UpdateMirror(protocol.StatusBetween, floor.MustParse("2"), floor.MustParse("6"))

	m := rec.ReadMirror()
	assert.Equal(t, protocol.StatusBetween, m.Status)
	assert.Equal(t, "2", m.Cur.String())
	assert.Equal(t, "6", m.Dst.String())
}
