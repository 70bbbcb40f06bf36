// Command controller is the dispatch engine process (spec §4.E, §6): it
// listens on :3000 and exits only on signal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mngv7/elevator-control-system/internal/controller"
	"github.com/mngv7/elevator-control-system/internal/logging"
	"github.com/mngv7/elevator-control-system/internal/metrics"
)

// metricsAddr is the ambient /metrics listener; entirely separate from
// the spec's fixed :3000 car/call port.
const metricsAddr = "127.0.0.1:9090"

func main() {
	log := logging.DefaultLogger("controller")
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	met, reg := metrics.New()
	srv := controller.NewServer(log, met)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, controller.ListenAddr) })
	g.Go(func() error {
		metrics.Serve(gctx, metricsAddr, metrics.Handler(reg), log)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("controller stopped", logging.Err(err))
		os.Exit(1)
	}
}
