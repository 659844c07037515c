// Package main implements the zero CLI, the entry point of ZeroCloud.
package main

import (
	"context"
	"os"

	"github.com/cloudemu/zero/cmd/zero/cmd"
	"github.com/cloudemu/zero/internal/zerocli"
)

func main() {
	os.Exit(cmd.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, zerocli.RunCLI))
}
