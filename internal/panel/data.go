package panel

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/haplotools/phaseprep/internal/encode"
	"github.com/haplotools/phaseprep/internal/genmap"
	"github.com/haplotools/phaseprep/internal/segment"
	"github.com/haplotools/phaseprep/internal/vcf"
)

// Options configures a panel loading run.
type Options struct {
	RefPath    string // reference panel VCF (phased)
	TargetPath string // target panel VCF

	AllowRefAltSwap bool
	Chrom           int // chromosome restriction; 0 = lock onto first match
	BpStart, BpEnd  int // region bounds, used when Chrom != 0

	CMmax float64 // maximum genetic-distance span per segment, cM

	OutPath string // passthrough output for matched target records
	OutMode string // vcf.WriteModePlain or vcf.WriteModeGzip

	Seed uint32 // rng seed for unphased-het phase assignment; 0 = default
}

// PanelData is the packed representation handed to the phasing stage. It is
// immutable after Load returns and safe for concurrent reads.
type PanelData struct {
	nRef      int
	nTarget   int
	targetIDs []string

	chrom    int
	segments []*segment.Segment
	genoBits []segment.GenoBits
	counters Counters

	physRange int
	cmRange   float64
}

// Loader runs the single-pass synchronize/encode/pack pipeline.
type Loader struct {
	mapper genmap.Mapper
	logger *zap.Logger
}

// NewLoader creates a loader using the given coordinate mapper.
func NewLoader(mapper genmap.Mapper) *Loader {
	return &Loader{
		mapper: mapper,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostics and warnings.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load performs the full run: synchronized scan with passthrough writing,
// genotype encoding, genetic-coordinate interpolation and GenoBits packing.
func (l *Loader) Load(opts Options) (*PanelData, error) {
	refParser, err := vcf.NewParser(opts.RefPath)
	if err != nil {
		return nil, fmt.Errorf("open reference panel: %w", err)
	}
	defer refParser.Close()

	tgtParser, err := vcf.NewParser(opts.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("open target panel: %w", err)
	}
	defer tgtParser.Close()

	if opts.Chrom != 0 {
		refParser.SetRegion(opts.Chrom, opts.BpStart, opts.BpEnd)
		tgtParser.SetRegion(opts.Chrom, opts.BpStart, opts.BpEnd)
	}

	nRef := len(refParser.SampleNames())
	nTarget := len(tgtParser.SampleNames())
	l.logger.Info("panel sizes",
		zap.Int("reference_samples", nRef),
		zap.Int("target_samples", nTarget))

	writer, err := vcf.NewWriter(opts.OutPath, opts.OutMode)
	if err != nil {
		return nil, err
	}
	if err := writer.WriteHeader(tgtParser.Header(), tgtParser.ChromLine()); err != nil {
		writer.Close()
		return nil, err
	}

	sync := NewSynchronizer(refParser, tgtParser, opts.AllowRefAltSwap, opts.Chrom)
	refEnc := encode.NewRefEncoder(nRef, opts.Seed)
	tgtEnc := encode.NewTargetEncoder(nTarget)

	var positions []int
	for {
		site, err := sync.Next()
		if err != nil {
			writer.Close()
			return nil, err
		}
		if site == nil {
			break
		}

		// passthrough write precedes genotype processing, so the output
		// holds exactly the matched-and-accepted records in encounter order
		if err := writer.Write(site.Target); err != nil {
			writer.Close()
			return nil, err
		}

		if err := refEnc.EncodeSite(site.Ref.Calls, site.RefAltSwapped); err != nil {
			writer.Close()
			return nil, err
		}
		if err := tgtEnc.EncodeSite(site.Target.Calls); err != nil {
			writer.Close()
			return nil, err
		}
		positions = append(positions, site.Target.Pos)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	counters := sync.Counters()
	counters.NotOnChrom = refParser.SkippedNotOnChrom() + tgtParser.SkippedNotOnChrom()
	counters.NotInRegion = refParser.SkippedNotInRegion() + tgtParser.SkippedNotInRegion()
	m := counters.Matched

	l.logSiteCounters(counters)
	l.logEncodingQuality(counters, refEnc, tgtEnc, nRef, nTarget)

	if m < 2 {
		return nil, fmt.Errorf("target and ref have too few matching sites (M = %d)", m)
	}

	chrom := sync.Chrom()
	cMs := make([]float64, m)
	for i, pos := range positions {
		cm, err := l.mapper.Interp(chrom, pos)
		if err != nil {
			return nil, fmt.Errorf("interpolate genetic coordinate: %w", err)
		}
		cMs[i] = 100 * cm
	}

	physRange, cmRange := spanRanges(positions, cMs)
	l.logger.Info("run spans",
		zap.Int("physical_bp", physRange),
		zap.Float64("genetic_cm", cmRange),
		zap.Float64("sites_per_cm", float64(m)/math.Max(cmRange, math.SmallestNonzeroFloat64)))
	if physRange == 0 || cmRange == 0 {
		return nil, fmt.Errorf("physical and genetic distance ranges must be positive (phys=%d bp, gen=%g cM)", physRange, cmRange)
	}

	segs := segment.Build(cMs, opts.CMmax)
	genoBits, err := segment.Pack(segs, refEnc.Haps(), tgtEnc.Genos(), nRef, nTarget)
	if err != nil {
		return nil, err
	}

	l.logger.Info("segments built",
		zap.Int("matched_sites", m),
		zap.Int("segments", len(segs)),
		zap.Float64("avg_sites_per_segment", float64(m)/float64(len(segs))))

	return &PanelData{
		nRef:      nRef,
		nTarget:   nTarget,
		targetIDs: tgtParser.SampleNames(),
		chrom:     chrom,
		segments:  segs,
		genoBits:  genoBits,
		counters:  counters,
		physRange: physRange,
		cmRange:   cmRange,
	}, nil
}

func (l *Loader) logSiteCounters(c Counters) {
	l.logger.Info("sites matched",
		zap.Int("matched", c.Matched),
		zap.Int("target_only", c.TargetOnly),
		zap.Int("ref_only", c.RefOnly),
		zap.Int("not_on_chrom", c.NotOnChrom),
		zap.Int("not_in_region", c.NotInRegion),
		zap.Int("multi_allelic", c.MultiAllelic),
		zap.Int("monomorphic", c.Monomorphic),
		zap.Int("ref_alt_errors", c.RefAltError))
	if c.RefAltSwaps > 0 {
		l.logger.Warn("REF/ALT were swapped in matched sites",
			zap.Int("swapped", c.RefAltSwaps))
	}
	if c.Matched > 0 && c.TargetOnly > c.Matched/10 {
		l.logger.Warn("high target-only fraction; check REF/ALT agreement between target and ref",
			zap.Int("target_only", c.TargetOnly),
			zap.Int("matched", c.Matched))
	}
}

func (l *Loader) logEncodingQuality(c Counters, refEnc *encode.RefEncoder, tgtEnc *encode.TargetEncoder, nRef, nTarget int) {
	m := c.Matched
	if m == 0 {
		return
	}
	if refEnc.SitesWithMissing() > 0 {
		l.logger.Warn("reference contains missing genotypes (set to reference allele)",
			zap.Float64("site_fraction", float64(refEnc.SitesWithMissing())/float64(m)),
			zap.Float64("genotype_fraction", float64(refEnc.MissingCalls())/float64(m)/float64(nRef)))
	}
	if refEnc.SitesWithUnphased() > 0 {
		l.logger.Warn("reference contains unphased genotypes (set to random phase)",
			zap.Float64("site_fraction", float64(refEnc.SitesWithUnphased())/float64(m)),
			zap.Float64("genotype_fraction", float64(refEnc.UnphasedCalls())/float64(m)/float64(nRef)))
	}
	if nTarget > 0 {
		l.logger.Info("target genotype missing rate",
			zap.Float64("rate", float64(tgtEnc.MissingCalls())/float64(m)/float64(nTarget)))
	}
}

// spanRanges sums consecutive physical and genetic deltas across the run.
// All retained sites share one chromosome, so every consecutive pair counts.
func spanRanges(positions []int, cMs []float64) (int, float64) {
	physRange := 0
	cmRange := 0.0
	for i := 0; i+1 < len(positions); i++ {
		physRange += positions[i+1] - positions[i]
		cmRange += cMs[i+1] - cMs[i]
	}
	return physRange, cmRange
}

// NRef returns the number of reference samples.
func (d *PanelData) NRef() int { return d.nRef }

// NTarget returns the number of target samples.
func (d *PanelData) NTarget() int { return d.nTarget }

// NSegments returns the number of packed segments (Mseg64).
func (d *PanelData) NSegments() int { return len(d.segments) }

// M returns the number of matched-and-accepted sites.
func (d *PanelData) M() int { return d.counters.Matched }

// Chrom returns the chromosome id of the run.
func (d *PanelData) Chrom() int { return d.chrom }

// TargetID returns the identifier of target sample n.
func (d *PanelData) TargetID(n int) string { return d.targetIDs[n] }

// TargetIDs returns the ordered target sample identifiers.
func (d *PanelData) TargetIDs() []string { return d.targetIDs }

// GenoBits returns the packed table: NSegments x (NRef+NTarget) records,
// reference individuals first within every segment. Read-only.
func (d *PanelData) GenoBits() []segment.GenoBits { return d.genoBits }

// Segments returns the per-segment site groupings.
func (d *PanelData) Segments() []*segment.Segment { return d.segments }

// SegmentCMs returns the genetic-distance vector of each segment.
func (d *PanelData) SegmentCMs() [][]float64 {
	out := make([][]float64, len(d.segments))
	for i, s := range d.segments {
		out[i] = s.CMs
	}
	return out
}

// Counters returns the site classification counters of the run.
func (d *PanelData) Counters() Counters { return d.counters }

// PhysRange returns the summed physical distance across consecutive sites.
func (d *PanelData) PhysRange() int { return d.physRange }

// CMRange returns the summed genetic distance across consecutive sites.
func (d *PanelData) CMRange() float64 { return d.cmRange }
