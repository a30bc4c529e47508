// Package panel synchronizes a reference and a target variant panel and
// assembles the packed genotype representation handed to the phasing stage.
package panel

import (
	"fmt"

	"github.com/haplotools/phaseprep/internal/vcf"
)

// MatchedSite is one surviving (reference, target) record pair. It is
// consumed immediately by the encoders and not retained.
type MatchedSite struct {
	Ref           *vcf.Record
	Target        *vcf.Record
	RefAltSwapped bool
}

// Counters aggregates per-site classification outcomes. None of these are
// errors; they are reported as run diagnostics.
type Counters struct {
	Matched      int // M: sites matched and accepted
	TargetOnly   int // sites present only in the target panel
	RefOnly      int // sites present only in the reference panel
	MultiAllelic int // target sites with more than two alleles
	Monomorphic  int // target sites with fewer than two alleles
	RefAltError  int // sites failing REF/ALT reconciliation
	RefAltSwaps  int // accepted sites with swapped REF/ALT orientation
	NotOnChrom   int // records skipped by the region restriction (chromosome)
	NotInRegion  int // records skipped by the region restriction (bounds)
}

// Synchronizer merge-joins two record streams sorted by (chromosome,
// position), classifying every position as matched, reference-only or
// target-only. It is driven by single-record lookahead on each source.
type Synchronizer struct {
	ref, tgt  vcf.RecordSource
	allowSwap bool

	// chromosome scoping: chrom is the configured restriction (0 = auto);
	// lockedChrom is the chromosome of the first matched site.
	chrom       int
	lockedChrom string
	done        bool

	refNext, tgtNext *vcf.Record
	refDone, tgtDone bool

	counters Counters
}

// NewSynchronizer creates a synchronizer over two sorted sources.
// chrom restricts matching to one chromosome; 0 locks onto the chromosome
// of the first matched site instead.
func NewSynchronizer(ref, tgt vcf.RecordSource, allowRefAltSwap bool, chrom int) *Synchronizer {
	return &Synchronizer{
		ref:       ref,
		tgt:       tgt,
		allowSwap: allowRefAltSwap,
		chrom:     chrom,
	}
}

// Next returns the next matched-and-accepted site, or nil, nil when the
// synchronized scan is over. One-sided, multi-allelic, monomorphic and
// orientation-mismatched sites are counted and skipped, never returned.
func (s *Synchronizer) Next() (*MatchedSite, error) {
	if s.done {
		return nil, nil
	}

	for {
		if err := s.fill(); err != nil {
			return nil, err
		}

		switch {
		case s.refNext == nil && s.tgtNext == nil:
			s.done = true
			return nil, nil
		case s.tgtNext == nil:
			s.counters.RefOnly++
			s.refNext = nil
			continue
		case s.refNext == nil:
			s.counters.TargetOnly++
			s.tgtNext = nil
			continue
		}

		cmp := compareKeys(s.refNext, s.tgtNext)
		if cmp < 0 {
			s.counters.RefOnly++
			s.refNext = nil
			continue
		}
		if cmp > 0 {
			s.counters.TargetOnly++
			s.tgtNext = nil
			continue
		}

		ref, tgt := s.refNext, s.tgtNext
		s.refNext, s.tgtNext = nil, nil

		// filter multi-allelic and monomorphic target sites
		if tgt.NumAlleles() > 2 {
			s.counters.MultiAllelic++
			continue
		}
		if tgt.NumAlleles() < 2 {
			s.counters.Monomorphic++
			continue
		}

		swapped := false
		if s.allowSwap {
			if tgt.NumAlleles() != 2 || ref.NumAlleles() != 2 {
				s.counters.RefAltError++
				continue
			}
			switch {
			case tgt.Ref == ref.Ref && tgt.Alt() == ref.Alt():
			case tgt.Ref == ref.Alt() && tgt.Alt() == ref.Ref:
				swapped = true
				s.counters.RefAltSwaps++
			default:
				s.counters.RefAltError++
				continue
			}
		} else if tgt.Ref != ref.Ref || tgt.Alt() != ref.Alt() {
			// same position, different alleles: the records do not pair,
			// each side is a one-sided site
			s.counters.RefOnly++
			s.counters.TargetOnly++
			continue
		}

		// chromosome scoping: lock onto the first matched site's chromosome
		// when none was configured, and end the stream on a change
		if s.lockedChrom == "" {
			s.lockedChrom = tgt.Chrom
			if s.chrom == 0 {
				id, ok := vcf.ParseChrom(tgt.Chrom)
				if !ok || id < 1 || id > 22 {
					return nil, fmt.Errorf("invalid chromosome number: %s", tgt.Chrom)
				}
				s.chrom = id
			}
		} else if tgt.Chrom != s.lockedChrom {
			s.done = true
			return nil, nil
		}

		s.counters.Matched++
		return &MatchedSite{Ref: ref, Target: tgt, RefAltSwapped: swapped}, nil
	}
}

// fill advances the lookahead slots from their sources.
func (s *Synchronizer) fill() error {
	var err error
	if s.refNext == nil && !s.refDone {
		s.refNext, err = s.ref.Next()
		if err != nil {
			return fmt.Errorf("read reference panel: %w", err)
		}
		if s.refNext == nil {
			s.refDone = true
		}
	}
	if s.tgtNext == nil && !s.tgtDone {
		s.tgtNext, err = s.tgt.Next()
		if err != nil {
			return fmt.Errorf("read target panel: %w", err)
		}
		if s.tgtNext == nil {
			s.tgtDone = true
		}
	}
	return nil
}

// Chrom returns the chromosome id the scan is locked onto (configured or
// inferred from the first matched site); 0 before any match.
func (s *Synchronizer) Chrom() int {
	return s.chrom
}

// Counters returns the classification counters accumulated so far.
func (s *Synchronizer) Counters() Counters {
	return s.counters
}

// compareKeys orders two records by (chromosome, position). Records on the
// same chromosome name compare by position; otherwise by numeric id.
func compareKeys(a, b *vcf.Record) int {
	if a.Chrom != b.Chrom {
		switch {
		case a.ChromNum < b.ChromNum:
			return -1
		case a.ChromNum > b.ChromNum:
			return 1
		}
	}
	switch {
	case a.Pos < b.Pos:
		return -1
	case a.Pos > b.Pos:
		return 1
	}
	return 0
}
