package controller

import (
	"sync"
	"sync/atomic"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

// CarID identifies one registered car connection. Opaque on purpose: spec
// §3 keys the registry "by connection handle", and a monotonic counter is
// a simpler stand-in for a connection pointer that is still safe to copy
// and log.
type CarID uint64

var nextCarID uint64

func newCarID() CarID { return CarID(atomic.AddUint64(&nextCarID, 1)) }

// CarRecord is one car's registry entry: its immutable descriptor plus the
// last observed mutable mirror and its own pending SCAN queue. Mirror and
// Queue are guarded by mu (the "queue lock" of spec §5); the registry's
// own mu guards membership (the "registry lock"). Code that needs both
// always takes registry -> car, never the reverse.
type CarRecord struct {
	ID      CarID
	Name    string
	Lowest  floor.Floor
	Highest floor.Floor

	mu     sync.Mutex
	Status protocol.Status
	Cur    floor.Floor
	Dst    floor.Floor
	Queue  ScanQueue

	// dispatched and dispatchedAt gate repeated sends within one arrival:
	// condition (a) of the dispatch rule (spec §4.E) stays true for the
	// car's entire door cycle, not just the instant it arrives, so without
	// this the 20ms poller would pop a fresh stop every tick instead of
	// resending the same one. dispatched is cleared only once a later
	// mirror observation actually differs from dispatchedAt, proving the
	// car has moved past the stop that was last sent.
	dispatched   bool
	dispatchedAt Mirror
}

// Mirror is a consistent snapshot of a CarRecord's mutable state.
type Mirror struct {
	Status protocol.Status
	Cur    floor.Floor
	Dst    floor.Floor
}

// UpdateMirror applies a new STATUS observation under the car's own lock.
// If this car has a dispatch outstanding and the new observation actually
// differs from the one recorded when that dispatch was sent, the gate
// opens again — the car has demonstrably moved past the stop it was given.
func (c *CarRecord) UpdateMirror(s protocol.Status, cur, dst floor.Floor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Status, c.Cur, c.Dst = s, cur, dst
	if c.dispatched && (s != c.dispatchedAt.Status || !cur.Equal(c.dispatchedAt.Cur) || !dst.Equal(c.dispatchedAt.Dst)) {
		c.dispatched = false
	}
}

// ReadMirror returns the current mirror under lock.
func (c *CarRecord) ReadMirror() Mirror {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Mirror{Status: c.Status, Cur: c.Cur, Dst: c.Dst}
}

// Enqueue adds a call's two stops to this car's queue under lock.
func (c *CarRecord) Enqueue(src, dst floor.Floor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queue.Enqueue(src, dst)
}

// QueueLen returns the car's pending stop count under lock.
func (c *CarRecord) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Queue.Len()
}

// idleLocked implements condition (a) of the dispatch rule (spec §4.E):
// the car is at rest at its destination, or already opening doors there.
// Callers must hold c.mu.
func (c *CarRecord) idleLocked() bool {
	return c.Cur.Equal(c.Dst) || c.Status == protocol.StatusOpening
}

// NextDispatch returns the stop the dispatcher should try to send next,
// without removing it from the queue, if the car is idle (condition (a))
// and this arrival has not already had a stop dispatched into it. It does
// not pop: spec §4.E pops the head only once the frame is successfully
// sent, which the caller reports back via CommitDispatch.
func (c *CarRecord) NextDispatch() (floor.Floor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dispatched || !c.idleLocked() {
		return floor.Floor{}, false
	}
	return c.Queue.Peek()
}

// CommitDispatch pops f from the queue after the caller has successfully
// sent its FLOOR frame, and arms the gate so the dispatcher waits for a
// fresh mirror observation (see UpdateMirror) before sending the next
// stop, rather than re-popping on every subsequent poll tick while the
// car remains idle/Opening at f for the rest of its door cycle.
func (c *CarRecord) CommitDispatch(f floor.Floor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	head, ok := c.Queue.Peek()
	if !ok || !head.Equal(f) {
		return
	}
	c.Queue.Pop()
	c.dispatched = true
	c.dispatchedAt = Mirror{Status: c.Status, Cur: c.Cur, Dst: c.Dst}
}

// Registry tracks connected cars in registration order (spec §3: "A car
// is in the registry from the moment it sends CAR until its connection
// closes or it declares emergency/individual-service").
type Registry struct {
	mu    sync.Mutex
	order []CarID
	cars  map[CarID]*CarRecord
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cars: make(map[CarID]*CarRecord)}
}

// Register adds a newly-greeted car, seeding its mirror at its lowest
// floor with doors closed (a reasonable starting assumption the first
// real STATUS frame immediately corrects).
func (r *Registry) Register(name string, lowest, highest floor.Floor) *CarRecord {
	rec := &CarRecord{
		ID:      newCarID(),
		Name:    name,
		Lowest:  lowest,
		Highest: highest,
		Status:  protocol.StatusClosed,
		Cur:     lowest,
		Dst:     lowest,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cars[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return rec
}

// Remove drops a car from the registry (disconnect, EMERGENCY, or
// INDIVIDUAL SERVICE — spec §4.E "Emergency/service exit").
func (r *Registry) Remove(id CarID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cars, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a car record by ID.
func (r *Registry) Get(id CarID) (*CarRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.cars[id]
	return rec, ok
}

// Snapshot returns every registered car in registration order.
func (r *Registry) Snapshot() []*CarRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*CarRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.cars[id])
	}
	return out
}

// SelectCar implements spec §4.E admission and selection: the first
// serviceable car, in registration order, whose range covers both src and
// dst (P4). Returns false if no registered car qualifies.
func (r *Registry) SelectCar(src, dst floor.Floor) (*CarRecord, bool) {
	for _, rec := range r.Snapshot() {
		if floor.InRange(src, rec.Lowest, rec.Highest) && floor.InRange(dst, rec.Lowest, rec.Highest) {
			return rec, true
		}
	}
	return nil, false
}
