package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/grailbio/gidx/store"
)

// verifyKey is the zero HighWayHash key used to checksum store files. It is
// an out-of-band integrity aid for detecting accidental corruption or
// truncation in transit, not part of the on-disk format itself, so a fixed
// public key is fine.
var verifyKey = make([]byte, highwayhash.Size)

func newVerifyCmd() *cli.Command {
	return &cli.Command{
		Name: "verify",
		Usage: "check a store's structural integrity (magic bytes, offset bounds, sorted-start " +
			"invariant) and report or check HighwayHash checksums of its files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "store directory to check", Required: true},
			&cli.StringFlag{Name: "key", Usage: "optional subdirectory under --store"},
			&cli.StringFlag{Name: "write", Usage: "write a checksum manifest to this path"},
			&cli.StringFlag{Name: "check", Usage: "compare against a previously written manifest"},
			&cli.BoolFlag{Name: "skip-structural", Usage: "skip the magic/bounds/sort-order replay and only handle checksums"},
		},
		Action: func(c *cli.Context) error {
			dir := c.String("store")
			if key := c.String("key"); key != "" {
				dir = filepath.Join(dir, key)
			}

			if !c.Bool("skip-structural") {
				if err := verifyStructure(c.String("store"), c.String("key")); err != nil {
					return err
				}
			}

			sums, err := checksumDir(dir)
			if err != nil {
				return err
			}

			if manifest := c.String("write"); manifest != "" {
				return writeManifest(manifest, sums)
			}
			if manifest := c.String("check"); manifest != "" {
				return checkManifest(manifest, sums)
			}
			for _, name := range sortedKeys(sums) {
				fmt.Printf("%s  %x\n", name, sums[name])
			}
			return nil
		},
	}
}

// verifyStructure replays spec.md §4.5's on-open validation against every
// sequence in the store: magic bytes, per-feature offset bounds and
// length-prefix agreement, and the sorted-append invariant reconstructed
// from insertion order.
func verifyStructure(storeDir, key string) error {
	s, err := store.Open(storeDir, key, decodeBed)
	if err != nil {
		return errors.Wrapf(err, "opening store %s for structural verification", storeDir)
	}
	defer s.Close()

	report := s.Verify()
	if report.OK() {
		for _, seq := range report.Sequences {
			fmt.Printf("structural: %s: %d feature(s), OK\n", seq.Chrom, seq.FeatureCount)
		}
		return nil
	}

	var problems []string
	for _, seq := range report.Sequences {
		for _, e := range seq.Errors {
			problems = append(problems, fmt.Sprintf("%s: %v", seq.Chrom, e))
		}
	}
	return errors.Errorf("structural: %d problem(s) found:\n%s", len(problems), strings.Join(problems, "\n"))
}

func checksumDir(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading store directory %s", dir)
	}

	sums := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", e.Name())
		}
		sum := highwayhash.Sum(data, verifyKey)
		sums[e.Name()] = sum[:]
	}
	return sums, nil
}

func writeManifest(path string, sums map[string][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating manifest %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, name := range sortedKeys(sums) {
		if _, err := fmt.Fprintf(w, "%s  %x\n", name, sums[name]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func checkManifest(path string, sums map[string][]byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading manifest %s", path)
	}

	want := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return errors.Errorf("malformed manifest line %q", line)
		}
		want[fields[0]] = fields[1]
	}

	var mismatches []string
	for name, sum := range sums {
		got := fmt.Sprintf("%x", sum)
		w, ok := want[name]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: not present in manifest", name))
			continue
		}
		if w != got {
			mismatches = append(mismatches, fmt.Sprintf("%s: manifest has %s, computed %s", name, w, got))
		}
	}
	for name := range want {
		if _, ok := sums[name]; !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: present in manifest but missing on disk", name))
		}
	}

	if len(mismatches) > 0 {
		sort.Strings(mismatches)
		return errors.Errorf("verify: %d mismatch(es):\n%s", len(mismatches), strings.Join(mismatches, "\n"))
	}
	fmt.Println("verify: OK")
	return nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
