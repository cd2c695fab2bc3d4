package submission

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"github.com/tilevec/tilevec/pkg/gridsizes"
	"github.com/tilevec/tilevec/pkg/gtruth"
	"github.com/tilevec/tilevec/pkg/mask"
	"github.com/tilevec/tilevec/pkg/maskstore"
	"github.com/tilevec/tilevec/pkg/score"
)

func testConfig(t *testing.T, ids []string) *Config {
	t.Helper()
	store, err := maskstore.NewStore(logs.NewTestingLog(t), filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	gridCSV := strings.Builder{}
	gridCSV.WriteString("ImageId,Xmax,Ymin\n")
	for _, id := range ids {
		fmt.Fprintf(&gridCSV, "%v,0.004,-0.004\n", id)
	}
	grid, err := gridsizes.Read(strings.NewReader(gridCSV.String()))
	require.NoError(t, err)

	return &Config{
		Log:       logs.NewTestingLog(t),
		Store:     store,
		Grid:      grid,
		Truth:     gtruth.Table{},
		Classes:   []int{0, 1},
		Threshold: 0.5,
	}
}

// testMask has class channel 0 fully on and channel 1 fully off.
func testMask() *mask.Prob {
	m := mask.NewProb(4, 4, 2)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			m.Set(x, y, 0, 1)
		}
	}
	return m
}

func TestPolyRowsNoMask(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	rows, err := cfg.PolyRows("a")
	require.NoError(t, err)
	require.Len(t, rows, len(cfg.Classes))
	for i, row := range rows {
		require.Equal(t, "a", row.ImageID)
		require.Equal(t, i+1, row.PolyType)
		require.Equal(t, EmptyGeometry, row.Geometry)
	}
}

func TestPolyRowsWithMask(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	require.NoError(t, cfg.Store.Put("a", testMask()))

	rows, err := cfg.PolyRows("a")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 1, rows[0].PolyType)
	mp, err := score.DecodeWKT(rows[0].Geometry)
	require.NoError(t, err)
	require.Len(t, mp, 1)

	require.Equal(t, 2, rows[1].PolyType)
	require.Equal(t, EmptyGeometry, rows[1].Geometry)
}

func TestPolyRowsClassCountMismatch(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	require.NoError(t, cfg.Store.Put("a", mask.NewProb(4, 4, 1)))
	require.Panics(t, func() { cfg.PolyRows("a") })
}

// Validated images reproduce the reference labels verbatim.
func TestPolyRowsGroundTruth(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	require.NoError(t, cfg.Store.Put("a", testMask()))
	cfg.Truth = gtruth.Table{
		"a": {
			1: "MULTIPOLYGON (((0 0,0.001 0,0.001 -0.001,0 -0.001,0 0)))",
			2: "MULTIPOLYGON EMPTY",
		},
	}

	rows, err := cfg.PolyRows("a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, cfg.Truth["a"][1], rows[0].Geometry)
	require.Equal(t, cfg.Truth["a"][2], rows[1].Geometry)
}

// A class missing from the truth table yields an explicit empty geometry,
// never a blank cell.
func TestPolyRowsGroundTruthSparse(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	require.NoError(t, cfg.Store.Put("a", testMask()))
	cfg.Truth = gtruth.Table{
		"a": {
			1: "MULTIPOLYGON (((0 0,0.001 0,0.001 -0.001,0 -0.001,0 0)))",
		},
	}

	rows, err := cfg.PolyRows("a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, cfg.Truth["a"][1], rows[0].Geometry)
	require.Equal(t, EmptyGeometry, rows[1].Geometry)
}

func TestBuildSubmission(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	cfg := testConfig(t, ids)
	// Half the images have cached masks, half produce empty rows
	for _, id := range ids[:4] {
		require.NoError(t, cfg.Store.Put(id, testMask()))
	}

	outPath := filepath.Join(t.TempDir(), "submission.csv")
	header := []string{"ImageId", "MultipolygonWKT", "ClassType"}
	require.NoError(t, cfg.BuildSubmission(ids, header, outPath))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Equal(t, header, records[0])
	require.Len(t, records, 1+len(ids)*len(cfg.Classes))

	// Every image's class rows appear exactly once, contiguously, in
	// ascending polygon type order. The order of images is completion order,
	// which we must not assume.
	seen := map[string]bool{}
	for i := 1; i < len(records); i += len(cfg.Classes) {
		id := records[i][0]
		require.False(t, seen[id], "image %v appears twice", id)
		seen[id] = true
		for j := 0; j < len(cfg.Classes); j++ {
			require.Equal(t, id, records[i+j][0])
			polyType, err := strconv.Atoi(records[i+j][1])
			require.NoError(t, err)
			require.Equal(t, j+1, polyType)
		}
	}
	require.Len(t, seen, len(ids))
}

// A failing task aborts the whole batch and leaves no output file.
func TestBuildSubmissionAborts(t *testing.T) {
	cfg := testConfig(t, []string{"a"})
	// "z" has a cached mask but no grid entry, so its task fails
	require.NoError(t, cfg.Store.Put("z", testMask()))
	require.NoError(t, cfg.Store.Put("a", testMask()))

	outPath := filepath.Join(t.TempDir(), "submission.csv")
	err := cfg.BuildSubmission([]string{"a", "z"}, []string{"h1", "h2", "h3"}, outPath)
	require.Error(t, err)
	_, statErr := os.Stat(outPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestTargets(t *testing.T) {
	truth := gtruth.Table{"t2": {}, "t1": {}}
	sample := []string{"s2", "s1", "s1"}

	require.Equal(t, []string{"t1", "t2"}, Targets(true, nil, truth, sample))
	require.Equal(t, []string{"x1", "x2"}, Targets(false, []string{"x2", "x1"}, truth, sample))
	require.Equal(t, []string{"s1", "s2"}, Targets(false, nil, truth, sample))
}

func TestReadSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample_submission.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"ImageId,ClassType,MultipolygonWKT\n"+
			"img1,1,MULTIPOLYGON EMPTY\n"+
			"img1,2,MULTIPOLYGON EMPTY\n"+
			"img2,1,MULTIPOLYGON EMPTY\n"), 0644))

	header, ids, err := ReadSample(path)
	require.NoError(t, err)
	require.Equal(t, []string{"ImageId", "ClassType", "MultipolygonWKT"}, header)
	require.Equal(t, []string{"img1", "img2"}, ids)
}
