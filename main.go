package main

import (
	"os"

	"github.com/felixgeelhaar/covertask/internal/cli"
)

func main() {
	code := cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr, cli.BuildService)
	os.Exit(code)
}
