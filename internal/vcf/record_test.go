package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChrom(t *testing.T) {
	tests := []struct {
		name string
		id   int
		ok   bool
	}{
		{"1", 1, true},
		{"22", 22, true},
		{"chr12", 12, true},
		{"CHR3", 3, true},
		{"X", 0, false},
		{"chrX", 0, false},
		{"MT", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseChrom(tt.name)
		assert.Equal(t, tt.ok, ok, "name %q", tt.name)
		assert.Equal(t, tt.id, id, "name %q", tt.name)
	}
}

func TestParseGenotype(t *testing.T) {
	tests := []struct {
		gt   string
		want GenotypeCall
	}{
		{"0|1", GenotypeCall{A1: 0, A2: 1, Phased: true}},
		{"1|0", GenotypeCall{A1: 1, A2: 0, Phased: true}},
		{"0/1", GenotypeCall{A1: 0, A2: 1}},
		{"1/1", GenotypeCall{A1: 1, A2: 1}},
		{".|1", GenotypeCall{A2: 1, Missing1: true, Phased: true}},
		{"0/.", GenotypeCall{A1: 0, Missing2: true}},
		{"./.", GenotypeCall{Missing1: true, Missing2: true}},
		{"1", GenotypeCall{A1: 1, Haploid: true}},
		{".", GenotypeCall{Missing1: true, Haploid: true}},
		{"2|0", GenotypeCall{A1: 2, A2: 0, Phased: true}},
	}
	for _, tt := range tests {
		call, err := parseGenotype(tt.gt)
		require.NoError(t, err, "gt %q", tt.gt)
		assert.Equal(t, tt.want, call, "gt %q", tt.gt)
	}
}

func TestParseGenotype_Invalid(t *testing.T) {
	for _, gt := range []string{"a|b", "0|x", ""} {
		_, err := parseGenotype(gt)
		assert.Error(t, err, "gt %q", gt)
	}
}

func TestGenotypeCall_Missing(t *testing.T) {
	assert.False(t, GenotypeCall{}.Missing())
	assert.True(t, GenotypeCall{Missing1: true}.Missing())
	assert.True(t, GenotypeCall{Missing2: true}.Missing())
}

func TestRecord_NumAlleles(t *testing.T) {
	assert.Equal(t, 1, (&Record{}).NumAlleles())
	assert.Equal(t, 2, (&Record{Alts: []string{"G"}}).NumAlleles())
	assert.Equal(t, 3, (&Record{Alts: []string{"G", "T"}}).NumAlleles())
	assert.Equal(t, "", (&Record{}).Alt())
	assert.Equal(t, "G", (&Record{Alts: []string{"G", "T"}}).Alt())
}
