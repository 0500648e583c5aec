package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/goalrun/internal/app"
	"github.com/doeshing/goalrun/internal/infrastructure/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	container := app.BuildContainer(ctx, app.Options{Verbose: isVerbose()})
	defer container.Close()

	return cli.NewRootCmd(container).ExecuteContext(ctx)
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("GOALRUN_DEBUG"), "1") || strings.EqualFold(os.Getenv("GOALRUN_DEBUG"), "true")
}
