package main

import (
	"fmt"
	"os"

	"github.com/abduss/filegate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "filegate:", err)
		os.Exit(1)
	}
}
