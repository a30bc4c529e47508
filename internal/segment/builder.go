package segment

import (
	"fmt"

	"github.com/haplotools/phaseprep/internal/encode"
)

const (
	// MaxSites is the segment capacity, one mask bit per site.
	MaxSites = 64

	// MinSites is the site count a segment must reach before genetic
	// distance alone may close it. Prevents degenerate short segments in
	// sparse map regions.
	MinSites = 16
)

// Segment is one contiguous group of at most MaxSites matched sites.
type Segment struct {
	SiteIndices []int     // absolute matched-site indices, in order
	CMs         []float64 // genetic coordinate of each contained site
}

// Len returns the number of sites in the segment.
func (s *Segment) Len() int { return len(s.SiteIndices) }

// Build greedily groups M sites (with genetic coordinates cMs) into
// segments: a segment closes when it holds MaxSites sites, or when it holds
// at least MinSites and the incoming site's coordinate exceeds the segment's
// first coordinate by more than cMmax. The trailing accumulation is flushed
// as the final segment.
func Build(cMs []float64, cMmax float64) []*Segment {
	var segs []*Segment
	cur := &Segment{}

	for m, cm := range cMs {
		if cur.Len() == MaxSites || (cur.Len() >= MinSites && cm > cur.CMs[0]+cMmax) {
			segs = append(segs, cur)
			cur = &Segment{}
		}
		cur.SiteIndices = append(cur.SiteIndices, m)
		cur.CMs = append(cur.CMs, cm)
	}
	if cur.Len() > 0 {
		segs = append(segs, cur)
	}
	return segs
}

// Pack builds the full GenoBits table for the given segments: one record per
// individual per segment, reference individuals occupying the first nRef
// slots within each segment block, target individuals the remaining nTarget.
// hapsRef holds 2*nRef bits per site, genosTarget nTarget codes per site.
// The table is allocated once and never mutated after Pack returns.
func Pack(segs []*Segment, hapsRef []bool, genosTarget []uint8, nRef, nTarget int) ([]GenoBits, error) {
	m := 0
	for _, s := range segs {
		m += s.Len()
	}
	if len(hapsRef) != m*2*nRef {
		return nil, fmt.Errorf("ref haplotype table size mismatch: got %d bits, want %d", len(hapsRef), m*2*nRef)
	}
	if len(genosTarget) != m*nTarget {
		return nil, fmt.Errorf("target genotype table size mismatch: got %d codes, want %d", len(genosTarget), m*nTarget)
	}

	n := nRef + nTarget
	table := make([]GenoBits, len(segs)*n)

	for m64, s := range segs {
		block := table[m64*n : (m64+1)*n]
		for j, site := range s.SiteIndices {
			for i := 0; i < nRef; i++ {
				if hapsRef[site*2*nRef+2*i] {
					block[i].SetIs0(j)
				}
				if hapsRef[site*2*nRef+2*i+1] {
					block[i].SetIs2(j)
				}
			}
			for i := 0; i < nTarget; i++ {
				switch genosTarget[site*nTarget+i] {
				case 0:
					block[nRef+i].SetIs0(j)
				case 2:
					block[nRef+i].SetIs2(j)
				case encode.MissingCode:
					block[nRef+i].SetIs9(j)
				}
			}
		}
		for i := range block {
			block[i].PadFrom(s.Len())
		}
	}
	return table, nil
}
