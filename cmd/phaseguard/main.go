package main

import (
	"fmt"
	"os"

	"github.com/coder/phaseguard/cli"
)

func main() {
	cmd := cli.New(nil).Command()
	err := cmd.Invoke(os.Args[1:]...).WithOS().Run()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
