package main

import (
	"os"

	"github.com/ccnxgo/ccnd/internal/cmd"
)

func main() {
	if err := cmd.CmdCCND.Execute(); err != nil {
		os.Exit(1)
	}
}
