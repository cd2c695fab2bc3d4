package gridsizes

// Package gridsizes maps image ids to their geographic grid extents and
// derives the per-image scalers that convert geographic coordinates into
// pixel coordinates. The scaler direction matters: multiplying by the
// scalers goes geographic -> pixel; polygon extraction divides by them.

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

type extent struct {
	xmax float64 // Geographic x extent of the tile (positive)
	ymin float64 // Geographic y extent of the tile (negative, y axis points down)
}

type Table struct {
	byID map[string]extent
}

// Load reads a grid sizes CSV with rows (ImageId, Xmax, Ymin). A header row
// is detected and skipped.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open grid sizes '%v': %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Table, error) {
	t := &Table{byID: map[string]extent{}}
	cr := csv.NewReader(r)
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("grid sizes row has %v columns, want 3", len(rec))
		}
		xmax, errX := strconv.ParseFloat(rec[1], 64)
		ymin, errY := strconv.ParseFloat(rec[2], 64)
		if errX != nil || errY != nil {
			if first {
				// header row
				first = false
				continue
			}
			return nil, fmt.Errorf("invalid grid sizes row for '%v'", rec[0])
		}
		first = false
		t.byID[rec[0]] = extent{xmax: xmax, ymin: ymin}
	}
	return t, nil
}

// Has returns true if the table has an extent for id.
func (t *Table) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// Scalers returns the (x, y) factors converting geographic coordinates to
// pixel coordinates for an image of id rendered at w x h pixels.
func (t *Table) Scalers(id string, w, h int) (xs, ys float64, err error) {
	e, ok := t.byID[id]
	if !ok {
		return 0, 0, fmt.Errorf("no grid size for image '%v'", id)
	}
	// The competition's raster alignment: the usable extent is n^2/(n+1)
	// pixels, not n.
	wf := float64(w)
	hf := float64(h)
	xs = (wf * wf / (wf + 1)) / e.xmax
	ys = (hf * hf / (hf + 1)) / e.ymin
	return xs, ys, nil
}
