package region

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Region is an attached view of one car's shared state. The zero value is
// not usable; construct with Create or Attach.
type Region struct {
	name string
	path string
	file *os.File
	data []byte

	// mu serializes goroutines within this process (the car's FSM and its
	// link both attach the same Region and write through it). flock only
	// arbitrates across processes; it is not a substitute for this.
	mu sync.Mutex
}

// shmDir mirrors the teacher's DefaultSharedMemoryPath fallback: prefer
// /dev/shm (tmpfs, no disk I/O) and fall back to the OS temp dir on
// platforms that lack it.
func shmDir() string {
	if st, err := os.Stat("/dev/shm"); err == nil && st.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

func pathFor(name string) string {
	return filepath.Join(shmDir(), "car"+name)
}

// Create makes a fresh shared region for car name, unlinking any stale
// region left behind by a prior run (spec §3 lifecycle: "created by the
// car at startup (unlinked first to avoid stale state)"). It seeds
// current_floor = destination_floor = initial, status = Closed, and the
// immutable lowest/highest bounds, then returns the attached Region.
func Create(name string, lowest, highest, initial string) (*Region, error) {
	path := pathFor(name)
	_ = os.Remove(path) // best-effort unlink of stale state

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: create %s: %w", path, err)
	}
	if err := f.Truncate(RegionSize); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("region: truncate %s: %w", path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, RegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("region: mmap %s: %w", path, err)
	}

	r := &Region{name: name, path: path, file: f, data: data}
	if err := r.Lock(); err != nil {
		return nil, err
	}
	defer r.Unlock()

	if err := putFloorField(r.data, offLowestFloor, lowest); err != nil {
		return nil, err
	}
	if err := putFloorField(r.data, offHighestFloor, highest); err != nil {
		return nil, err
	}
	if err := putFloorField(r.data, offCurrentFloor, initial); err != nil {
		return nil, err
	}
	if err := putFloorField(r.data, offDestFloor, initial); err != nil {
		return nil, err
	}
	if err := putStatusField(r.data, offStatus, "Closed"); err != nil {
		return nil, err
	}
	return r, nil
}

// Attach opens an existing region for name without creating it. Used by
// the safety monitor and the internal operator CLI (spec §4.F, §4.G). It
// returns an AttachError-flavored error naming the car if the region does
// not exist or cannot be mapped.
func Attach(name string) (*Region, error) {
	path := pathFor(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: attach %s: no shared region for car %q: %w", path, name, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, RegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("region: mmap attach %s: %w", path, err)
	}
	return &Region{name: name, path: path, file: f, data: data}, nil
}

// Name returns the car name this region belongs to.
func (r *Region) Name() string { return r.name }

// Lock takes the region's lock: first the in-process mutex (serializing
// this process's own goroutines, e.g. a car's FSM and link both attach the
// same Region), then flock on the backing file (serializing across
// processes). Callers must keep critical sections short — no blocking call
// should ever be made while holding the lock.
func (r *Region) Lock() error {
	r.mu.Lock()
	if err := unix.Flock(int(r.file.Fd()), unix.LOCK_EX); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("region: lock %s: %w", r.path, err)
	}
	return nil
}

// Unlock releases flock first, then the in-process mutex — the reverse
// acquisition order of Lock.
func (r *Region) Unlock() error {
	err := unix.Flock(int(r.file.Fd()), unix.LOCK_UN)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("region: unlock %s: %w", r.path, err)
	}
	return nil
}

// Destroy unmaps and unlinks the region. Only the car process (the
// region's creator) should call this, on clean termination; safety and
// internal only Close.
func (r *Region) Destroy() error {
	err := r.Close()
	if rmErr := os.Remove(r.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// Close unmaps the region and closes the backing file descriptor without
// unlinking the name (peers detach this way; only the owning car destroys
// the name itself).
func (r *Region) Close() error {
	var err error
	if r.data != nil {
		if uerr := unix.Munmap(r.data); uerr != nil {
			err = uerr
		}
		r.data = nil
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// pollInterval governs how often WaitChanged re-checks the generation
// counter. It trades wake latency against lock churn; well under any
// door/movement `delay` used in practice (spec never runs delay < 1ms).
const pollInterval = 2 * time.Millisecond
