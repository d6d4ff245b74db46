package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ldsec/dnn-inference/mpc/shareUtils"
	"github.com/stretchr/testify/require"
)

func writeData(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadData(t *testing.T) {
	d, err := LoadData(writeData(t, `{"X":[[1,2,3,4],[5,6,7,8],[9,10,11,12]],"Y":[0,1,2]}`))
	require.NoError(t, err)
	require.NoError(t, d.Init(2))
	require.Equal(t, 1, d.NumBatches)

	X, Y, err := d.Batch()
	require.NoError(t, err)
	require.Len(t, X, 2)
	require.Equal(t, []int{0, 1}, Y)
	_, _, err = d.Batch()
	require.ErrorIs(t, err, ErrNoBatch)

	require.Error(t, d.Init(0))

	_, err = LoadData(writeData(t, `{"X":[[1]],"Y":[0,1]}`))
	require.Error(t, err)
	_, err = LoadData(writeData(t, `{"X":`))
	require.Error(t, err)
	_, err = LoadData(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestFeeder(t *testing.T) {
	s, err := shareUtils.NewSession(shareUtils.Config{Seed: []byte{'D'}})
	require.NoError(t, err)
	defer s.Close()

	d := &Data{X: [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}, {0, 0, 0, 0}, {1, 1, 1, 1}}, Y: []int{3, 1, 0, 2}}
	require.NoError(t, d.Init(2))
	f := &Feeder{Data: d, Sess: s, Shape: []int{2, 2, 1}}

	x, y, err := f.NextWithLabels()
	require.NoError(t, err)
	require.Equal(t, []int{3, 1}, y)
	require.Equal(t, []int{2, 2, 2, 1}, x.Shape)
	got, err := s.Reveal(x, shareUtils.PartyL)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, got.Data)

	_, err = f.Next()
	require.NoError(t, err)
	_, err = f.Next()
	require.ErrorIs(t, err, ErrNoBatch)

	bad := &Feeder{Data: &Data{X: [][]float64{{1, 2}}, Y: []int{0}}, Sess: s, Shape: []int{3}}
	require.NoError(t, bad.Data.Init(1))
	_, err = bad.Next()
	require.Error(t, err)
}

func TestOneHot(t *testing.T) {
	oh, err := OneHot([]int{2, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, oh.Shape)
	require.Equal(t, []float64{0, 0, 1, 1, 0, 0}, oh.Data)
	_, err = OneHot([]int{3}, 3)
	require.Error(t, err)
}
