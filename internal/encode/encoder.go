package encode

import (
	"fmt"

	"github.com/haplotools/phaseprep/internal/vcf"
)

// MissingCode is the sentinel genotype for a target sample with any missing
// allele call.
const MissingCode uint8 = 9

// RefEncoder accumulates the reference panel's haplotype bits, two per
// sample per site: REF allele -> false, any ALT allele -> true.
type RefEncoder struct {
	nSamples int
	rng      *MWC
	haps     []bool

	sitesWithMissing  int
	sitesWithUnphased int
	missingCalls      int64
	unphasedCalls     int64
}

// NewRefEncoder creates an encoder for a reference panel with nSamples
// diploid samples. A zero seed selects the default.
func NewRefEncoder(nSamples int, seed uint32) *RefEncoder {
	return &RefEncoder{
		nSamples: nSamples,
		rng:      NewMWC(seed),
	}
}

// EncodeSite appends 2*nSamples haplotype bits for one matched site.
//
// A sample with any missing allele gets both bits forced to REF (a
// deliberate bias-to-reference policy, not an error). An unphased call is
// counted; when heterozygous, the two bits are swapped on a pseudo-random
// coin flip so unphased hets do not introduce systematic phase bias. If the
// site was matched with swapped REF/ALT orientation, both bits are inverted
// last. A haploid genotype entry is a structural error.
func (e *RefEncoder) EncodeSite(calls []vcf.GenotypeCall, refAltSwapped bool) error {
	if len(calls) != e.nSamples {
		return fmt.Errorf("ref ploidy != 2: got %d genotype entries, want %d samples", len(calls), e.nSamples)
	}

	numMissing, numUnphased := 0, 0
	for _, call := range calls {
		if call.Haploid {
			return fmt.Errorf("ref genotypes contain haploid sample")
		}

		hap0 := !call.Missing1 && call.A1 >= 1
		hap1 := !call.Missing2 && call.A2 >= 1
		unphased := !call.Missing2 && !call.Phased

		if call.Missing() {
			hap0, hap1 = false, false
			numMissing++
		} else if unphased {
			// advance the rng only for hets, matching the original
			// short-circuit order
			if hap0 != hap1 && e.rng.Bit() {
				hap0, hap1 = hap1, hap0
			}
			numUnphased++
		}

		if refAltSwapped {
			hap0 = !hap0
			hap1 = !hap1
		}
		e.haps = append(e.haps, hap0, hap1)
	}

	if numMissing > 0 {
		e.sitesWithMissing++
	}
	if numUnphased > 0 {
		e.sitesWithUnphased++
	}
	e.missingCalls += int64(numMissing)
	e.unphasedCalls += int64(numUnphased)
	return nil
}

// Haps returns the accumulated haplotype bits, 2*nSamples per encoded site.
func (e *RefEncoder) Haps() []bool { return e.haps }

// SitesWithMissing returns the number of sites with at least one missing
// reference call.
func (e *RefEncoder) SitesWithMissing() int { return e.sitesWithMissing }

// SitesWithUnphased returns the number of sites with at least one unphased
// reference call.
func (e *RefEncoder) SitesWithUnphased() int { return e.sitesWithUnphased }

// MissingCalls returns the total count of missing reference genotypes.
func (e *RefEncoder) MissingCalls() int64 { return e.missingCalls }

// UnphasedCalls returns the total count of unphased reference genotypes.
func (e *RefEncoder) UnphasedCalls() int64 { return e.unphasedCalls }

// TargetEncoder accumulates target genotype codes, one per sample per site:
// the sum of the two allele indices (0, 1 or 2), or 9 for missing.
type TargetEncoder struct {
	nSamples     int
	genos        []uint8
	missingCalls int64
}

// NewTargetEncoder creates an encoder for a target panel with nSamples
// diploid samples.
func NewTargetEncoder(nSamples int) *TargetEncoder {
	return &TargetEncoder{nSamples: nSamples}
}

// EncodeSite appends nSamples genotype codes for one matched site.
// Any allele index above 1 is a structural error: multi-allelic sites must
// have been filtered by the synchronizer.
func (e *TargetEncoder) EncodeSite(calls []vcf.GenotypeCall) error {
	if len(calls) != e.nSamples {
		return fmt.Errorf("target ploidy != 2: got %d genotype entries, want %d samples", len(calls), e.nSamples)
	}

	for _, call := range calls {
		if call.Haploid {
			return fmt.Errorf("target genotypes contain haploid sample")
		}

		var g uint8
		for _, a := range [2]struct {
			idx     int8
			missing bool
		}{{call.A1, call.Missing1}, {call.A2, call.Missing2}} {
			if a.missing {
				continue
			}
			if a.idx > 1 {
				return fmt.Errorf("multi-allelic site found in target; should have been filtered")
			}
			g += uint8(a.idx)
		}

		if call.Missing() {
			g = MissingCode
			e.missingCalls++
		}
		e.genos = append(e.genos, g)
	}
	return nil
}

// Genos returns the accumulated genotype codes, nSamples per encoded site.
func (e *TargetEncoder) Genos() []uint8 { return e.genos }

// MissingCalls returns the total count of missing target genotypes.
func (e *TargetEncoder) MissingCalls() int64 { return e.missingCalls }
