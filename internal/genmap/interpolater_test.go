package genmap

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMap = `chr position COMBINED_rate(cM/Mb) Genetic_Map(cM)
20 1000000 1.0 1.0
20 2000000 1.0 2.0
20 4000000 2.0 6.0
21 500000 1.0 0.5
`

func writeTempMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PointsAndChromosomes(t *testing.T) {
	ip, err := Load(writeTempMap(t, testMap))
	require.NoError(t, err)

	assert.Equal(t, []int{20, 21}, ip.Chromosomes())
	pos, cm := ip.Points(20)
	assert.Equal(t, []int{1000000, 2000000, 4000000}, pos)
	assert.Equal(t, []float64{1.0, 2.0, 6.0}, cm)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testMap))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ip, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 21}, ip.Chromosomes())
}

func TestInterp(t *testing.T) {
	ip, err := Load(writeTempMap(t, testMap))
	require.NoError(t, err)

	tests := []struct {
		chrom, pos int
		want       float64
	}{
		{20, 1000000, 1.0},  // exact point
		{20, 1500000, 1.5},  // midpoint
		{20, 3000000, 4.0},  // between points with different rate
		{20, 500000, 0.5},   // below first point: interpolate toward origin
		{20, 9000000, 6.0},  // past last point: clamp
		{21, 500000, 0.5},
	}
	for _, tt := range tests {
		got, err := ip.Interp(tt.chrom, tt.pos)
		require.NoError(t, err, "chrom %d pos %d", tt.chrom, tt.pos)
		assert.InDelta(t, tt.want, got, 1e-12, "chrom %d pos %d", tt.chrom, tt.pos)
	}
}

func TestInterp_Monotonic(t *testing.T) {
	ip, err := Load(writeTempMap(t, testMap))
	require.NoError(t, err)

	prev := -1.0
	for pos := 100000; pos <= 5000000; pos += 100000 {
		cm, err := ip.Interp(20, pos)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cm, prev)
		prev = cm
	}
}

func TestInterp_UnknownChromosome(t *testing.T) {
	ip, err := Load(writeTempMap(t, testMap))
	require.NoError(t, err)

	_, err = ip.Interp(7, 1000)
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	_, err := Load(writeTempMap(t, "chr position rate cM\n"))
	assert.Error(t, err)
}

func TestLoad_BadPosition(t *testing.T) {
	_, err := Load(writeTempMap(t, "chr position rate cM\n20 oops 1.0 1.0\n"))
	assert.Error(t, err)
}
