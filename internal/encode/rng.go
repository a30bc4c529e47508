// Package encode converts matched-site genotype calls into the bit and code
// tables consumed by the segment packer.
package encode

// DefaultSeed is the multiply-with-carry seed used when none is configured.
const DefaultSeed uint32 = 521288629

// MWC is Marsaglia's multiply-with-carry generator. It drives the random
// phase assignment of unphased heterozygous reference calls. The state is
// advanced in a fixed site-major, sample-minor order, so runs with the same
// seed and input ordering are byte-identical.
type MWC struct {
	w uint32
}

// NewMWC returns a generator seeded with the given value.
// A zero seed selects DefaultSeed.
func NewMWC(seed uint32) *MWC {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &MWC{w: seed}
}

// Next advances the generator and returns the new state word.
func (m *MWC) Next() uint32 {
	m.w = 18000*(m.w&0xffff) + (m.w >> 16)
	return m.w
}

// Bit advances the generator and returns the low bit of the new state.
func (m *MWC) Bit() bool {
	return m.Next()&1 != 0
}
