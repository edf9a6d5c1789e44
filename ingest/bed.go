// Package ingest reads BED-style tab-separated feature files into the
// store package's record types. It is deliberately separate from the core
// index/store packages (spec.md's Explicit non-goals keep file-format
// parsing out of the core); the core never imports it.
//
// BED's variable trailing-column count doesn't fit a fixed Go struct, so
// parsing here is manual bufio scanning in the style of
// encoding/fasta.GenerateIndex, rather than github.com/grailbio/base/tsv's
// struct-tag reflection (which assumes a fixed schema).
package ingest

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/gidx/record"
)

// Feature is one parsed BED line: its sequence name plus the Bed record
// built from the remaining columns.
type Feature struct {
	Chrom string
	Bed   record.Bed
}

// Open opens path for reading, transparently decompressing it if its name
// ends in ".gz". The caller must Close the returned reader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening gzip stream %s", path)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

// gzipReadCloser closes both the gzip stream and the underlying file.
type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipReadCloser) Close() error {
	if err := g.gz.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// ReadBed scans r line by line, calling fn once per data line in file
// order. Blank lines, "#"-prefixed comments, and BED's own "track"/
// "browser" header lines are skipped, matching the handling real tabix
// and bedtools installations expect. A line with fewer than three
// tab-separated fields is a malformed-input error, not a skip.
//
// fn receives records in whatever order they appear in r; ReadBed applies
// no sorting or validation of the sorted-append invariant itself, since
// spec.md's core rejects disorder rather than silently imposing it.
func ReadBed(r io.Reader, fn func(Feature) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimRight(scanner.Bytes(), "\r\n")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.HasPrefix(line, []byte("track")) || bytes.HasPrefix(line, []byte("browser")) {
			continue
		}

		feature, err := parseBedLine(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
		if err := fn(feature); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading BED input")
	}
	return nil
}

func parseBedLine(line []byte) (Feature, error) {
	fields := bytes.SplitN(line, []byte("\t"), 4)
	if len(fields) < 3 {
		return Feature{}, errors.Errorf("malformed BED line: want at least 3 tab-separated fields, got %d", len(fields))
	}

	start, err := strconv.ParseUint(string(fields[1]), 10, 32)
	if err != nil {
		return Feature{}, errors.Wrapf(err, "parsing start column %q", fields[1])
	}
	end, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return Feature{}, errors.Wrapf(err, "parsing end column %q", fields[2])
	}

	var rest []byte
	if len(fields) == 4 {
		rest = append([]byte(nil), fields[3]...)
	}

	return Feature{
		Chrom: string(fields[0]),
		Bed:   record.Bed{Begin: uint32(start), Stop: uint32(end), Rest: rest},
	}, nil
}
