package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
)

func getUint32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off : off+4])
}

func putUint32(data []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(data[off:off+4], v)
}

func getBool(data []byte, off int) bool { return getUint32(data, off) != 0 }

func putBool(data []byte, off int, v bool) {
	if v {
		putUint32(data, off, 1)
	} else {
		putUint32(data, off, 0)
	}
}

func getFloorField(data []byte, off int) (floor.Floor, error) {
	end := off
	for end < off+floorFieldSize && data[end] != 0 {
		end++
	}
	return floor.Parse(string(data[off:end]))
}

func putFloorField(data []byte, off int, token string) error {
	if len(token) >= floorFieldSize {
		return fmt.Errorf("region: floor token %q too long for field", token)
	}
	for i := 0; i < floorFieldSize; i++ {
		data[off+i] = 0
	}
	copy(data[off:off+floorFieldSize], token)
	return nil
}

func getStatusField(data []byte, off int) protocol.Status {
	end := off
	for end < off+statusFieldSize && data[end] != 0 {
		end++
	}
	return protocol.Status(data[off:end])
}

func putStatusField(data []byte, off int, token string) error {
	if len(token) >= statusFieldSize {
		return fmt.Errorf("region: status token %q too long for field", token)
	}
	for i := 0; i < statusFieldSize; i++ {
		data[off+i] = 0
	}
	copy(data[off:off+statusFieldSize], token)
	return nil
}

// bump increments the generation counter; callers must hold the lock.
// This is the condvar-broadcast half of "lock, mutate, broadcast, unlock"
// (spec §4.B).
func (r *Region) bump() { putUint32(r.data, offGeneration, getUint32(r.data, offGeneration)+1) }

// Generation returns the current mutation counter under lock. Callers use
// it as the "locally cached value" compared against in WaitChanged.
func (r *Region) Generation() (uint32, error) {
	if err := r.Lock(); err != nil {
		return 0, err
	}
	defer r.Unlock()
	return getUint32(r.data, offGeneration), nil
}

// WaitChanged blocks (by short polling, see region.go's pollInterval) until
// the generation counter differs from lastSeen or timeout elapses. It
// returns the observed generation and whether it had changed. The timeout
// is computed once by the caller as an absolute deadline's remaining
// duration, matching the "timed waits are absolute" rule in spec §5.
func (r *Region) WaitChanged(lastSeen uint32, timeout time.Duration) (uint32, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		gen, err := r.Generation()
		if err != nil {
			return gen, false, err
		}
		if gen != lastSeen {
			return gen, true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return gen, false, nil
		}
		sleep := pollInterval
		if remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

// Snapshot is a consistent, point-in-time copy of every field, taken under
// one lock acquisition. The safety monitor and the car link's status
// pump both read the region this way so they never observe a torn update.
type Snapshot struct {
	CurrentFloor          floor.Floor
	DestinationFloor      floor.Floor
	Status                protocol.Status
	OpenButton            bool
	CloseButton           bool
	DoorObstruction       bool
	Overload              bool
	EmergencyStop         bool
	IndividualServiceMode bool
	EmergencyMode         bool
	LowestFloor           floor.Floor
	HighestFloor          floor.Floor
	Generation            uint32

	// CurrentFloorErr / DestinationFloorErr record a parse failure instead
	// of panicking, so the safety monitor's I1 check has something to
	// fail on rather than crashing when emergency_mode is 0 and the field
	// is already garbage.
	CurrentFloorErr     error
	DestinationFloorErr error
}

// Read takes a Snapshot of every field under a single lock/unlock pair.
func (r *Region) Read() (Snapshot, error) {
	if err := r.Lock(); err != nil {
		return Snapshot{}, err
	}
	defer r.Unlock()
	return r.readLocked(), nil
}

// readLocked builds a Snapshot from the current bytes; callers must already
// hold the lock.
func (r *Region) readLocked() Snapshot {
	s := Snapshot{
		Status:                getStatusField(r.data, offStatus),
		OpenButton:            getBool(r.data, offOpenButton),
		CloseButton:           getBool(r.data, offCloseButton),
		DoorObstruction:       getBool(r.data, offDoorObstruction),
		Overload:              getBool(r.data, offOverload),
		EmergencyStop:         getBool(r.data, offEmergencyStop),
		IndividualServiceMode: getBool(r.data, offIndividualSvc),
		EmergencyMode:         getBool(r.data, offEmergencyMode),
		Generation:            getUint32(r.data, offGeneration),
	}
	s.CurrentFloor, s.CurrentFloorErr = getFloorField(r.data, offCurrentFloor)
	s.DestinationFloor, s.DestinationFloorErr = getFloorField(r.data, offDestFloor)
	if lo, err := getFloorField(r.data, offLowestFloor); err == nil {
		s.LowestFloor = lo
	}
	if hi, err := getFloorField(r.data, offHighestFloor); err == nil {
		s.HighestFloor = hi
	}
	return s
}

// Txn exposes a subset of the region's setters for use inside Transact,
// operating directly on the already-locked bytes instead of taking the
// lock themselves.
type Txn struct {
	r       *Region
	mutated bool
}

// SetStatus sets status within the transaction.
func (t *Txn) SetStatus(s protocol.Status) error {
	if err := putStatusField(t.r.data, offStatus, string(s)); err != nil {
		return err
	}
	t.mutated = true
	return nil
}

// SetEmergencyMode sets emergency_mode within the transaction.
func (t *Txn) SetEmergencyMode(v bool) {
	putBool(t.r.data, offEmergencyMode, v)
	t.mutated = true
}

// Transact runs fn under a single lock/unlock pair: fn receives a Snapshot
// taken at the start of the critical section and a Txn for making further
// mutations against that same locked region, so a read-then-conditionally-
// write sequence (e.g. the safety monitor applying its rules) happens
// atomically instead of across several independently-locked Set* calls.
// The generation counter is bumped once, iff fn succeeds and made at least
// one mutation.
func (r *Region) Transact(fn func(snap Snapshot, txn *Txn) error) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()

	snap := r.readLocked()
	txn := &Txn{r: r}
	if err := fn(snap, txn); err != nil {
		return err
	}
	if txn.mutated {
		r.bump()
	}
	return nil
}

// Mutate runs fn under the region's lock against the raw backing bytes and
// bumps the generation counter afterward, unless fn returns an error (a
// rejected mutation should not wake anyone) or leaves the bytes unchanged
// (a no-op write, such as consuming a button that was not pressed, should
// not wake anyone either). This is the single choke point every Set* helper
// below funnels through, keeping "lock, mutate, broadcast, unlock" in one
// place.
func (r *Region) mutate(fn func(data []byte) error) error {
	if err := r.Lock(); err != nil {
		return err
	}
	defer r.Unlock()
	before := make([]byte, len(r.data))
	copy(before, r.data)
	if err := fn(r.data); err != nil {
		return err
	}
	if !bytes.Equal(before, r.data) {
		r.bump()
	}
	return nil
}

// SetCurrentFloor sets current_floor.
func (r *Region) SetCurrentFloor(f floor.Floor) error {
	return r.mutate(func(data []byte) error { return putFloorField(data, offCurrentFloor, f.String()) })
}

// SetDestinationFloor sets destination_floor.
func (r *Region) SetDestinationFloor(f floor.Floor) error {
	return r.mutate(func(data []byte) error { return putFloorField(data, offDestFloor, f.String()) })
}

// SetStatus sets status to one of the five tokens.
func (r *Region) SetStatus(s protocol.Status) error {
	return r.mutate(func(data []byte) error { return putStatusField(data, offStatus, string(s)) })
}

// SetOpenButton sets or clears the open_button bit.
func (r *Region) SetOpenButton(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offOpenButton, v); return nil })
}

// SetCloseButton sets or clears the close_button bit.
func (r *Region) SetCloseButton(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offCloseButton, v); return nil })
}

// SetDoorObstruction sets or clears door_obstruction.
func (r *Region) SetDoorObstruction(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offDoorObstruction, v); return nil })
}

// SetOverload sets or clears overload.
func (r *Region) SetOverload(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offOverload, v); return nil })
}

// SetEmergencyStop sets or clears emergency_stop.
func (r *Region) SetEmergencyStop(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offEmergencyStop, v); return nil })
}

// SetIndividualServiceMode sets or clears individual_service_mode.
func (r *Region) SetIndividualServiceMode(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offIndividualSvc, v); return nil })
}

// SetEmergencyMode sets emergency_mode. Per I6 this is sticky: every
// caller except the internal panel's service_on verb only ever sets it to
// true; service_on is the one documented exception (spec §4.G, §9).
func (r *Region) SetEmergencyMode(v bool) error {
	return r.mutate(func(data []byte) error { putBool(data, offEmergencyMode, v); return nil })
}

// ClearEarlyExit consumes the close-button-abort flag, returning whether it
// was set. The door loop does not call it: its Open dwell detects a close
// press from ConsumeCloseButtonForAbort's return value, so once raised the
// flag stays set until something calls ClearEarlyExit.
func (r *Region) ClearEarlyExit() (bool, error) {
	var was bool
	err := r.mutate(func(data []byte) error {
		was = getBool(data, offEarlyExit)
		putBool(data, offEarlyExit, false)
		return nil
	})
	return was, err
}

// SetEarlyExit raises the close-button-abort flag. If the flag was not
// already set, the write bumps the generation counter, so a pending
// WaitChanged returns immediately (spec §9 "Early-exit condvar for
// Close-button abort").
func (r *Region) SetEarlyExit() error {
	return r.mutate(func(data []byte) error { putBool(data, offEarlyExit, true); return nil })
}
