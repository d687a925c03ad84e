package main

import (
	"os"

	"github.com/lexand-dev/vid-skool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
