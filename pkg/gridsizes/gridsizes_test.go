package gridsizes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCSV = `ImageId,Xmax,Ymin
6010_0_0,0.009169,-0.009042
6010_1_2,0.009169,-0.009088
`

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(testCSV))
	require.NoError(t, err)
	require.True(t, table.Has("6010_0_0"))
	require.False(t, table.Has("9999_9_9"))

	xs, ys, err := table.Scalers("6010_0_0", 3349, 3391)
	require.NoError(t, err)
	// W' = w^2/(w+1), xs = W'/xmax, ys = H'/ymin
	require.InDelta(t, (3349.0*3349.0/3350.0)/0.009169, xs, 1e-6)
	require.InDelta(t, (3391.0*3391.0/3392.0)/-0.009042, ys, 1e-6)
	require.Less(t, ys, 0.0)

	_, _, err = table.Scalers("9999_9_9", 10, 10)
	require.Error(t, err)
}

func TestReadNoHeader(t *testing.T) {
	table, err := Read(strings.NewReader("6010_0_0,0.004,-0.004\n"))
	require.NoError(t, err)
	require.True(t, table.Has("6010_0_0"))
}

func TestReadBadRow(t *testing.T) {
	_, err := Read(strings.NewReader("ImageId,Xmax,Ymin\n6010_0_0,x,y\n"))
	require.Error(t, err)
}
