package hyper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := NewParams()
	require.Len(t, p.Classes, TotalClasses)
	for i, cls := range p.Classes {
		require.Equal(t, i, cls)
	}
}

func TestUpdate(t *testing.T) {
	p := NewParams()
	require.NoError(t, p.Update(""))
	require.Len(t, p.Classes, TotalClasses)

	require.NoError(t, p.Update("classes=0-1-4"))
	require.Equal(t, []int{0, 1, 4}, p.Classes)

	require.NoError(t, p.Update("classes=3"))
	require.Equal(t, []int{3}, p.Classes)

	require.Error(t, p.Update("classes=11"))
	require.Error(t, p.Update("classes=x"))
	require.Error(t, p.Update("bogus=1"))
	require.Error(t, p.Update("classes"))
}
