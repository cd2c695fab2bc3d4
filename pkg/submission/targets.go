package submission

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tilevec/tilevec/pkg/gtruth"
)

// ReadSample reads the sample submission table and returns its header plus
// the ids that require a prediction row (class label "1").
func ReadSample(path string) (header []string, ids []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to open sample submission '%v': %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to read sample submission header: %w", err)
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) >= 2 && rec[1] == "1" {
			ids = append(ids, rec[0])
		}
	}
	return header, ids, nil
}

// Targets resolves which image ids to process. The three modes are mutually
// exclusive: all ids carrying ground truth (trainOnly), an explicit subset
// (only), or every id requiring a submission row. The result is sorted and
// de-duplicated.
func Targets(trainOnly bool, only []string, truth gtruth.Table, sampleIDs []string) []string {
	var ids []string
	switch {
	case trainOnly:
		ids = truth.ImageIDs()
	case len(only) > 0:
		ids = only
	default:
		ids = sampleIDs
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
