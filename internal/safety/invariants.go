// Package safety implements the per-car watchdog of spec §4.F: it attaches
// a car's shared region, wakes on every mutation, and enforces the
// data-consistency predicate (I1-I6 in spec §3), latching emergency_mode on
// any violation. Its ordering is grounded in original_source/safety.c's
// check_data_consistency: floor validity, then status validity, then
// button-bit range, then the obstruction/status coupling (spec's
// SUPPLEMENTED FEATURES note in SPEC_FULL.md).
package safety

import (
	"fmt"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/region"
)

// CheckConsistency evaluates invariants I1-I5 against snap (I6, stickiness,
// is a property of the sequence of observations, not a single snapshot,
// and is enforced by the monitor never clearing the bit). It returns a
// non-nil error naming the first violation found, in the order the
// original C implementation checked them.
func CheckConsistency(snap region.Snapshot, lowest, highest floor.Floor) error {
	if snap.EmergencyMode {
		// I1/I2/I5 are only required to hold while emergency_mode == 0.
		return nil
	}

	// I1: current_floor and destination_floor are syntactically valid.
	if snap.CurrentFloorErr != nil {
		return fmt.Errorf("consistency: current_floor invalid: %w", snap.CurrentFloorErr)
	}
	if snap.DestinationFloorErr != nil {
		return fmt.Errorf("consistency: destination_floor invalid: %w", snap.DestinationFloorErr)
	}

	// I2: status is one of the five tokens.
	if !snap.Status.Valid() {
		return fmt.Errorf("consistency: status %q is not a recognized token", snap.Status)
	}

	// I3 is structurally guaranteed here: every bit field in the region is
	// decoded through getBool, which can only ever observe 0 or nonzero
	// and normalizes to true/false; there is no path to a tri-state bit
	// given the region's own accessors. A cross-language reimplementation
	// with a raw integer field must still check it explicitly.

	// I4: door_obstruction implies status is Opening or Closing.
	if snap.DoorObstruction && snap.Status != "Opening" && snap.Status != "Closing" {
		return fmt.Errorf("consistency: door_obstruction set while status=%s", snap.Status)
	}

	// I5: current_floor is within the car's registered range.
	if !floor.InRange(snap.CurrentFloor, lowest, highest) {
		return fmt.Errorf("consistency: current_floor %s outside car range [%s,%s]",
			snap.CurrentFloor, lowest, highest)
	}

	return nil
}
