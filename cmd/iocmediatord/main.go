// File: cmd/iocmediatord/main.go
// Author: momentics <momentics@gmail.com>
//
// iocmediatord is the ioc mediator's standalone entry point: it builds the
// init string from its flags, starts the mediator, and waits for a shutdown
// signal.
// Grounded on cmd/ublk-mem/main.go's thin-binary shape: flag parsing, a
// logging package setup, signal.Notify-driven graceful shutdown.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momentics/ioc-mediator/internal/logging"
	"github.com/momentics/ioc-mediator/internal/mediator"
)

func main() {
	var (
		uartPath = flag.String("uart-path", "/dev/ioc_virtual_uart", "path to publish the virtual UART symlink at")
		reason   = flag.Uint("boot-reason", 1, "boot reason code stamped by the VMM, nonzero")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	if *verbose {
		logCfg.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.New(logCfg))

	initStr := fmt.Sprintf("%s,%#x", *uartPath, *reason)
	h, err := mediator.Init(initStr)
	if err != nil {
		logging.Errorf("mediator init failed: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logging.Info("received shutdown signal")
	done := make(chan struct{})
	go func() {
		if err := h.Deinit(); err != nil {
			logging.Errorf("mediator deinit failed: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logging.Warn("shutdown timed out, exiting anyway")
	}
}
