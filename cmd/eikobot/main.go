package main

import (
	"fmt"
	"os"

	"github.com/kazaamjt/eikobot/cmd/eikobot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
