package main

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
