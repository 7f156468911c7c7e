package main

import (
	"os"

	_ "go.uber.org/automaxprocs"
	"k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/ridertrack/cmd/ridertrack/app"
)

func main() {
	ctx := server.SetupSignalContext()
	if err := app.NewRiderTrackCommand(ctx).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
