// Command safety is the per-car watchdog process (spec §4.F, §6): it
// attaches /car<name> and runs until killed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mngv7/elevator-control-system/internal/errs"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/safety"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: safety <name>")
		os.Exit(1)
	}
	name := os.Args[1]

	log := logging.DefaultLogger("safety")
	defer log.Sync()

	mon, err := safety.New(name, log)
	if err != nil {
		if errors.Is(err, errs.ErrAttach) {
			fmt.Printf("No shared region for car %q.\n", name)
		} else {
			log.Error("failed to start safety monitor", logging.Err(err))
		}
		os.Exit(1)
	}
	defer mon.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := mon.Run(ctx); err != nil {
		log.Error("safety monitor stopped", logging.Err(err))
		os.Exit(1)
	}
}
