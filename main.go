package main

import (
	"errors"
	"os"

	"github.com/kilianp07/solartelemetry/cmd"
	"github.com/kilianp07/solartelemetry/config"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, config.ErrDurationConflict) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
