// SPDX-License-Identifier: MIT

// Command nufate propagates high-energy neutrino fluxes through the Earth.
//
//	nufate attenuate --cos-zenith -1,-0.5,0 --depth 1.5 --gamma 2.2
//	nufate transfer --cos-zenith -1 --flavor nu_tau --out-flavor nu_mu
//	nufate showers --cos-zenith -0.3 --flavor nu_e --format text
//	nufate column-density --cos-zenith -1,-0.8,-0.6
//
// Results go to stdout as JSON (default) or an aligned text table; logs go to
// stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
