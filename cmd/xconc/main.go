package main

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fx.New(appOptions(cfg)...).Run()
}
