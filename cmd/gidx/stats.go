package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/grailbio/gidx/stats"
	"github.com/grailbio/gidx/store"
)

func newStatsCmd() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "report binning-index occupancy and feature-size statistics",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "store directory to open", Required: true},
			&cli.StringFlag{Name: "key", Usage: "optional subdirectory under --store"},
		},
		Action: func(c *cli.Context) error {
			s, err := store.Open(c.String("store"), c.String("key"), decodeBed)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Print(stats.Analyze(s.Index()).Report())
			return nil
		},
	}
}
