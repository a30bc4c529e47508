package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haplotools/phaseprep/internal/vcf"
)

func TestMWC_Deterministic(t *testing.T) {
	a := NewMWC(0)
	b := NewMWC(DefaultSeed)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Next(), b.Next(), "step %d", i)
	}
}

func TestMWC_Recurrence(t *testing.T) {
	m := NewMWC(12345)
	w := uint32(12345)
	for i := 0; i < 100; i++ {
		w = 18000*(w&0xffff) + (w >> 16)
		assert.Equal(t, w, m.Next())
	}
}

func phased(a1, a2 int8) vcf.GenotypeCall {
	return vcf.GenotypeCall{A1: a1, A2: a2, Phased: true}
}

func TestRefEncoder_PhasedCalls(t *testing.T) {
	e := NewRefEncoder(2, 0)
	require.NoError(t, e.EncodeSite([]vcf.GenotypeCall{phased(0, 1), phased(1, 1)}, false))

	assert.Equal(t, []bool{false, true, true, true}, e.Haps())
	assert.Equal(t, 0, e.SitesWithMissing())
	assert.Equal(t, 0, e.SitesWithUnphased())
}

func TestRefEncoder_MissingForcesRef(t *testing.T) {
	e := NewRefEncoder(2, 0)
	calls := []vcf.GenotypeCall{
		{A2: 1, Missing1: true, Phased: true}, // .|1 -> both bits forced to REF
		phased(1, 1),
	}
	require.NoError(t, e.EncodeSite(calls, false))

	assert.Equal(t, []bool{false, false, true, true}, e.Haps())
	assert.Equal(t, 1, e.SitesWithMissing())
	assert.Equal(t, int64(1), e.MissingCalls())
}

func TestRefEncoder_UnphasedHomNotSwapped(t *testing.T) {
	e := NewRefEncoder(1, 0)
	require.NoError(t, e.EncodeSite([]vcf.GenotypeCall{{A1: 1, A2: 1}}, false))

	// unphased hom is counted but keeps its bits and does not advance the rng
	assert.Equal(t, []bool{true, true}, e.Haps())
	assert.Equal(t, 1, e.SitesWithUnphased())
	assert.Equal(t, int64(1), e.UnphasedCalls())

	fresh := NewMWC(0)
	assert.Equal(t, fresh.Next(), e.rng.Next(), "rng must not have advanced")
}

func TestRefEncoder_UnphasedHetDeterministic(t *testing.T) {
	run := func() []bool {
		e := NewRefEncoder(1, 0)
		for i := 0; i < 100; i++ {
			require.NoError(t, e.EncodeSite([]vcf.GenotypeCall{{A1: 0, A2: 1}}, false))
		}
		return e.Haps()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "same seed must reproduce the same phase assignment")

	// each unphased het contributes exactly one ALT bit regardless of swap
	swaps := 0
	for i := 0; i < len(first); i += 2 {
		require.NotEqual(t, first[i], first[i+1])
		if first[i] {
			swaps++
		}
	}
	assert.Greater(t, swaps, 0, "some hets should be swapped")
	assert.Less(t, swaps, 100, "not all hets should be swapped")
}

func TestRefEncoder_RefAltSwapInverts(t *testing.T) {
	e := NewRefEncoder(2, 0)
	require.NoError(t, e.EncodeSite([]vcf.GenotypeCall{phased(0, 1), phased(1, 1)}, true))

	assert.Equal(t, []bool{true, false, false, false}, e.Haps())
}

func TestRefEncoder_SwapAppliesAfterMissingPolicy(t *testing.T) {
	e := NewRefEncoder(1, 0)
	calls := []vcf.GenotypeCall{{Missing1: true, Missing2: true}}
	require.NoError(t, e.EncodeSite(calls, true))

	// missing forces REF first, then orientation inversion flips both
	assert.Equal(t, []bool{true, true}, e.Haps())
	assert.Equal(t, int64(1), e.MissingCalls())
}

func TestRefEncoder_HaploidFatal(t *testing.T) {
	e := NewRefEncoder(1, 0)
	err := e.EncodeSite([]vcf.GenotypeCall{{A1: 1, Haploid: true}}, false)
	assert.ErrorContains(t, err, "haploid")
}

func TestRefEncoder_SampleCountMismatch(t *testing.T) {
	e := NewRefEncoder(3, 0)
	err := e.EncodeSite([]vcf.GenotypeCall{phased(0, 0)}, false)
	assert.Error(t, err)
}

func TestTargetEncoder_Codes(t *testing.T) {
	e := NewTargetEncoder(4)
	calls := []vcf.GenotypeCall{
		phased(0, 0),
		phased(0, 1),
		phased(1, 1),
		{A1: 1, Missing2: true}, // any missing allele overrides to 9
	}
	require.NoError(t, e.EncodeSite(calls))

	assert.Equal(t, []uint8{0, 1, 2, 9}, e.Genos())
	assert.Equal(t, int64(1), e.MissingCalls())
}

func TestTargetEncoder_MultiAllelicLeakageFatal(t *testing.T) {
	e := NewTargetEncoder(1)
	err := e.EncodeSite([]vcf.GenotypeCall{phased(0, 2)})
	assert.ErrorContains(t, err, "multi-allelic")
}

func TestTargetEncoder_HaploidFatal(t *testing.T) {
	e := NewTargetEncoder(1)
	err := e.EncodeSite([]vcf.GenotypeCall{{A1: 0, Haploid: true}})
	assert.ErrorContains(t, err, "haploid")
}
