package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/delaneyj/signalbind/pkg/component"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	verboseKey    = "verbose"
	stepsKey      = "steps"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "observer",
		Usage: "Observe components: reactive renders and mount-bound reactions",
		Commands: []*cli.Command{
			{
				Name:  "demo",
				Usage: "Mount a counter and a summary, mutate the store and print every render",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  stepsKey,
						Usage: "Number of increments to apply",
						Value: 5,
					},
					verboseFlag(),
				},
				Action: demo,
			},
			{
				Name:  "bench",
				Usage: "Time mount, update and unmount of observed components",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Iterations per scenario",
						Value: 1000,
					},
					verboseFlag(),
				},
				Action: bench,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  verboseKey,
		Usage: "Log component lifecycle events",
	}
}

// setupLogging swaps the package logger for a development logger when
// --verbose is set. It must run before any host is created.
func setupLogging(cmd *cli.Command) error {
	if !cmd.Bool(verboseKey) {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	component.SetLogger(l)
	return nil
}
