package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)

	c.shutdown()
	stop()

	if err != nil {
		os.Exit(1)
	}
}
