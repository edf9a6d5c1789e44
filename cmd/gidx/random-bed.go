package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/grailbio/gidx/ingest"
)

func newRandomBedCmd() *cli.Command {
	return &cli.Command{
		Name:  "random-bed",
		Usage: "generate a deterministic pseudo-random BED file, pre-sorted for packing",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "num-records", Value: 10_000, Usage: "number of features to generate"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed; the same seed always produces the same output"},
			&cli.StringFlag{Name: "out", Usage: "output path (\"-\" or omitted for stdout; a \".gz\" suffix gzips it)"},
		},
		Action: func(c *cli.Context) error {
			out, closer, err := openOutput(c.String("out"))
			if err != nil {
				return err
			}
			defer closer()

			w := bufio.NewWriter(out)
			for _, f := range ingest.GenerateRandomBed(c.Int("num-records"), c.Int64("seed")) {
				if _, err := fmt.Fprintf(w, "%s\t%d\t%d", f.Chrom, f.Bed.Begin, f.Bed.Stop); err != nil {
					return err
				}
				if len(f.Bed.Rest) > 0 {
					if _, err := fmt.Fprintf(w, "\t%s", f.Bed.Rest); err != nil {
						return err
					}
				}
				if _, err := w.WriteString("\n"); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
}

// openOutput resolves --out into a writer plus a cleanup func; path "" or
// "-" writes to stdout uncompressed regardless of suffix.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "creating %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, func() { f.Close() }, nil
	}

	gz := gzip.NewWriter(f)
	return gz, func() {
		gz.Close()
		f.Close()
	}, nil
}
