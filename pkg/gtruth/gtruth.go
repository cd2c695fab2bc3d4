package gtruth

// Package gtruth loads the training-set polygon labels: one WKT multipolygon
// per (image, class). The table is loaded once and shared read-only across
// workers.

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Table maps image id -> polygon type (1-based class) -> verbatim WKT.
type Table map[string]map[int]string

// Load reads a training WKT CSV with a header and rows
// (ImageId, ClassType, MultipolygonWKT).
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open ground truth '%v': %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil { // header
		return nil, err
	}
	t := Table{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("ground truth row has %v columns, want 3", len(rec))
		}
		polyType, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("invalid class type '%v' for image '%v'", rec[1], rec[0])
		}
		if t[rec[0]] == nil {
			t[rec[0]] = map[int]string{}
		}
		t[rec[0]][polyType] = rec[2]
	}
	return t, nil
}

// ImageIDs returns the ids carrying ground truth, sorted.
func (t Table) ImageIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
