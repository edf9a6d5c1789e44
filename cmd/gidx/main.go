// Command gidx packs BED-style feature files into a content-addressed
// record store and queries them back by hierarchical-binning coordinate,
// the way bio-bam-gindex does for BAM/BGZF virtual offsets but against
// plain memory-mapped data files instead.
package main

import (
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/grailbio/base/log"
)

func main() {
	app := &cli.App{
		Name:        "gidx",
		Usage:       "pack and query hierarchically-binned genomic feature stores",
		Description: "Builds and queries a tabix/UCSC-compatible binning index over a memory-mapped, content-addressed record store.",
		Commands: []*cli.Command{
			newPackCmd(),
			newQueryCmd(),
			newStatsCmd(),
			newRandomBedCmd(),
			newVerifyCmd(),
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("gidx: %v", err)
	}
}
