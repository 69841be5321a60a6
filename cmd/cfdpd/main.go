package main

import (
	"os"

	"github.com/kaidokert/fsfw-sub000/cmd"
)

func main() {
	if err := cmd.CmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}
