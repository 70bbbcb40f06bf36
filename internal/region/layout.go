// Package region implements the per-car shared memory region described in
// spec §3 and §4.B: a named, process-shared area carrying a car's live
// state, concurrently touched by the car, its safety monitor, and the
// internal operator panel.
//
// The teacher (kernel/threads/sab) lays out a single giant SharedArrayBuffer
// with byte-offset constants and a companion epoch-counter region
// (IDX_METRICS_EPOCH and friends) used so JS/WASM peers can detect mutation
// without a real condition variable. Go has no portable process-shared
// mutex+condvar pair either, so this package keeps that same shape at a
// much smaller scale: a flock(2)-based mutex over the mapped file (the
// cross-process lock) plus a monotonically incrementing generation counter
// inside the region (the condvar's broadcast-on-mutation half). This is
// exactly the substitution spec §9's design notes call for: "a named
// semaphore + generation counter scheme ... each writer incrementing the
// counter before signaling and each reader comparing against a locally
// cached value."
package region

// Fixed byte layout, cache-line aligned the way the teacher aligns its SAB
// regions (ALIGNMENT_CACHE_LINE = 64 in kernel/threads/sab/layout.go).
const (
	offGeneration      = 0  // uint32: bumped by every writer after mutating
	offEarlyExit       = 4  // uint32 0/1: close-button abort-the-open-dwell flag
	offCurrentFloor    = 8  // floorFieldSize bytes, NUL-terminated token
	offDestFloor       = 12 // floorFieldSize bytes
	offStatus          = 16 // statusFieldSize bytes, NUL-terminated token
	offOpenButton      = 24 // uint32 0/1
	offCloseButton     = 28 // uint32 0/1
	offDoorObstruction = 32 // uint32 0/1
	offOverload        = 36 // uint32 0/1
	offEmergencyStop   = 40 // uint32 0/1
	offIndividualSvc   = 44 // uint32 0/1
	offEmergencyMode   = 48 // uint32 0/1
	offLowestFloor     = 52 // floorFieldSize bytes, written once at creation
	offHighestFloor    = 56 // floorFieldSize bytes, written once at creation

	floorFieldSize  = 4 // "B99\0" worst case
	statusFieldSize = 8 // "Closing\0" worst case (7 chars + NUL)

	// RegionSize is the total mapped size, rounded up to a 64-byte cache
	// line the way the teacher pads every SAB sub-region.
	RegionSize = 64
)
