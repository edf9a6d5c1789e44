package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/grailbio/gidx/record"
	"github.com/grailbio/gidx/store"
)

func newQueryCmd() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "list every record overlapping a region",
		ArgsUsage: "<chrom:start-end>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "store directory to open", Required: true},
			&cli.StringFlag{Name: "key", Usage: "optional subdirectory under --store"},
		},
		Action: func(c *cli.Context) error {
			region := c.Args().First()
			if region == "" {
				return errors.New("query: missing <chrom:start-end> argument")
			}
			chrom, start, end, err := parseRegion(region)
			if err != nil {
				return err
			}

			s, err := store.Open(c.String("store"), c.String("key"), decodeBed)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.GetOverlapping(chrom, start, end)
			if err != nil {
				return err
			}
			for _, r := range records {
				if bed, ok := r.(*record.Bed); ok {
					fmt.Printf("%s\t%s\n", chrom, bed)
					continue
				}
				fmt.Printf("%s\t%d\t%d\n", chrom, r.Start(), r.End())
			}
			return nil
		},
	}
}

// parseRegion parses a samtools/tabix-style "chrom:start-end" region, where
// start and end are 1-based and inclusive, and returns the equivalent
// 0-based half-open [start, end) interval the store's query API expects.
func parseRegion(region string) (chrom string, start, end uint32, err error) {
	colon := strings.LastIndexByte(region, ':')
	if colon < 0 {
		return "", 0, 0, errors.Errorf("query: region %q is missing a \":start-end\" suffix", region)
	}
	chrom = region[:colon]
	span := region[colon+1:]

	dash := strings.IndexByte(span, '-')
	if dash < 0 {
		return "", 0, 0, errors.Errorf("query: region %q is missing a \"start-end\" range", region)
	}

	startOneBased, err := strconv.ParseUint(span[:dash], 10, 32)
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "query: parsing start of region %q", region)
	}
	endOneBased, err := strconv.ParseUint(span[dash+1:], 10, 32)
	if err != nil {
		return "", 0, 0, errors.Wrapf(err, "query: parsing end of region %q", region)
	}
	if startOneBased == 0 {
		return "", 0, 0, errors.Errorf("query: region %q has a 1-based start of 0, which is invalid", region)
	}
	return chrom, uint32(startOneBased - 1), uint32(endOneBased), nil
}
