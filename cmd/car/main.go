// Command car is one elevator car process (spec §4.C, §6): it creates
// /car<name>, then drives its door/movement state machine while
// maintaining a connection to the controller, until killed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mngv7/elevator-control-system/internal/carfsm"
	"github.com/mngv7/elevator-control-system/internal/floor"
	"github.com/mngv7/elevator-control-system/internal/link"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/region"
	"github.com/mngv7/elevator-control-system/internal/shutdown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: car <name> <lo> <hi> <delayMs>")
		return 1
	}
	name := args[0]
	if len(name) == 0 || len(name) > 99 {
		fmt.Println("Car name must be 1-99 characters.")
		return 1
	}

	lo, err := floor.Parse(args[1])
	if err != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}
	hi, err := floor.Parse(args[2])
	if err != nil {
		fmt.Println("Invalid floor(s) specified.")
		return 1
	}

	delayMs, err := strconv.Atoi(args[3])
	if err != nil || delayMs < 1 {
		fmt.Println("delayMs must be an integer >= 1.")
		return 1
	}
	delay := time.Duration(delayMs) * time.Millisecond

	log := logging.DefaultLogger("car").With(logging.String("car", name))
	defer log.Sync()

	initial := lo
	if hi.Less(lo) {
		initial = hi
	}
	r, err := region.Create(name, lo.String(), hi.String(), initial.String())
	if err != nil {
		log.Fatal("failed to create shared region", logging.Err(err))
	}

	sd := shutdown.New(5*time.Second, log)
	sd.Register(r.Destroy)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fsm := carfsm.New(r, lo, hi, delay, log)
	lk := link.New(name, lo, hi, r, delay, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := fsm.Run(gctx); err != nil && err != carfsm.ErrEmergency {
			return err
		}
		return nil
	})
	g.Go(func() error { return lk.Run(gctx) })

	err = g.Wait()
	sd.Shutdown(context.Background())
	if err != nil {
		log.Error("car stopped", logging.Err(err))
		return 1
	}
	return 0
}
