// Command internal is the operator panel CLI (spec §4.G, §6): it attaches
// a car's shared region, performs exactly one verb, and exits. Exit 0 on
// success, 1 on a legality failure or attach error.
package main

import (
	"fmt"
	"os"

	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/protocol"
	"github.com/mngv7/elevator-control-system/internal/region"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: internal <carName> <verb>")
		return 1
	}
	name, verb := args[0], args[1]

	r, err := region.Attach(name)
	if err != nil {
		fmt.Printf("No shared region for car %q.\n", name)
		return 1
	}
	defer r.Close()

	switch verb {
	case "open":
		return apply(r.SetOpenButton(true))
	case "close":
		return apply(r.SetCloseButton(true))
	case "stop":
		return apply(r.SetEmergencyStop(true))
	case "service_on":
		return serviceOn(r)
	case "service_off":
		return apply(r.SetIndividualServiceMode(false))
	case "up":
		return moveOneStep(r, floor.DirUp)
	case "down":
		return moveOneStep(r, floor.DirDown)
	default:
		fmt.Printf("Unknown verb %q.\n", verb)
		return 1
	}
}

// serviceOn sets individual_service_mode and, per spec §4.G and §9's
// open-question resolution, is the single documented exception that may
// clear an already-latched emergency_mode.
func serviceOn(r *region.Region) int {
	if err := r.SetIndividualServiceMode(true); err != nil {
		fmt.Println("Operation failed.")
		return 1
	}
	if err := r.SetEmergencyMode(false); err != nil {
		fmt.Println("Operation failed.")
		return 1
	}
	return 0
}

// moveOneStep implements the up/down verbs: all three legality conditions
// must hold before any mutation (spec §4.G), then destination_floor is set
// to the adjacent floor in dir, respecting the no-zero axis.
func moveOneStep(r *region.Region, dir floor.Direction) int {
	snap, err := r.Read()
	if err != nil {
		fmt.Println("Operation failed.")
		return 1
	}
	if !snap.IndividualServiceMode {
		fmt.Println("Car is not in individual service mode.")
		return 1
	}
	if snap.Status != protocol.StatusClosed {
		fmt.Println("Car must be stopped with doors closed.")
		return 1
	}

	next, err := floor.Adjacent(snap.CurrentFloor, dir)
	if err != nil {
		fmt.Println("Operation failed.")
		return 1
	}
	if !floor.InRange(next, snap.LowestFloor, snap.HighestFloor) {
		fmt.Println("Car has reached the end of its range.")
		return 1
	}

	return apply(r.SetDestinationFloor(next))
}

func apply(err error) int {
	if err != nil {
		fmt.Println("Operation failed.")
		return 1
	}
	return 0
}
