package main

import (
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/grailbio/base/log"

	"github.com/grailbio/gidx/binning"
	"github.com/grailbio/gidx/ingest"
	"github.com/grailbio/gidx/record"
	"github.com/grailbio/gidx/store"
)

func newPackCmd() *cli.Command {
	schema := binning.Tabix
	return &cli.Command{
		Name:      "pack",
		Usage:     "pack a BED file into a binning-indexed record store",
		ArgsUsage: "<input.bed[.gz]>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "store directory to create", Required: true},
			&cli.StringFlag{Name: "key", Usage: "optional subdirectory under --out to scope this store"},
			&cli.GenericFlag{Name: "schema", Usage: "binning schema: tabix, tabix-no-linear, ucsc, ucsc-no-linear, dense, sparse", Value: &schema},
			&cli.BoolFlag{Name: "quiet", Usage: "suppress the progress bar"},
		},
		Action: func(c *cli.Context) error {
			input := c.Args().First()
			if input == "" {
				return errors.New("pack: missing <input.bed[.gz]> argument")
			}

			f, err := ingest.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := store.Create(c.String("out"), c.String("key"), schema, decodeBed)
			if err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if !c.Bool("quiet") {
				bar = progressbar.Default(-1, "packing "+input)
			}

			var n int
			if err := ingest.ReadBed(f, func(feature ingest.Feature) error {
				if err := s.AddRecord(feature.Chrom, &feature.Bed); err != nil {
					return errors.Wrapf(err, "adding feature %s:%d-%d", feature.Chrom, feature.Bed.Begin, feature.Bed.Stop)
				}
				n++
				if bar != nil {
					bar.Add(1)
				}
				return nil
			}); err != nil {
				return err
			}

			if err := s.Finalize(); err != nil {
				return err
			}
			log.Printf("pack: wrote %d feature(s) across %d sequence(s) to %s", n, len(s.Index().SequenceNames()), c.String("out"))
			return nil
		},
	}
}

func decodeBed(bytes []byte) record.Slice {
	return record.SliceFromBytes(bytes)
}
