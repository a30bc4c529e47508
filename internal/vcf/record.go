// Package vcf provides VCF record parsing and passthrough writing for the
// synchronized panel loader.
package vcf

import (
	"strconv"
	"strings"
)

// Record represents a single VCF data line with its per-sample genotype calls.
type Record struct {
	Chrom    string // chromosome name as written in the file (e.g. "12", "chr12")
	ChromNum int    // numeric chromosome id, 0 if the name is not numeric
	Pos      int    // 1-based genomic position
	ID       string // variant identifier (e.g. rs ID)
	Ref      string // reference allele
	Alts     []string
	Line     string // original line, kept verbatim for passthrough writing
	Calls    []GenotypeCall
}

// NumAlleles returns the total allele count at the site (REF + ALTs).
// A missing ALT column (".") yields 1, i.e. a monomorphic site.
func (r *Record) NumAlleles() int {
	return 1 + len(r.Alts)
}

// Alt returns the first ALT allele, or "" for a monomorphic site.
func (r *Record) Alt() string {
	if len(r.Alts) == 0 {
		return ""
	}
	return r.Alts[0]
}

// GenotypeCall holds one sample's parsed GT field.
// A1/A2 are allele indices (0 = REF, 1+ = ALT); a missing allele leaves the
// corresponding index at 0 with the Missing flag set.
type GenotypeCall struct {
	A1, A2             int8
	Missing1, Missing2 bool
	Phased             bool
	Haploid            bool
}

// Missing reports whether either allele call is missing.
func (c GenotypeCall) Missing() bool {
	return c.Missing1 || c.Missing2
}

// ParseChrom returns the numeric id of a chromosome name, stripping any
// "chr" prefix. ok is false for non-numeric names (e.g. "X", "MT").
func ParseChrom(name string) (id int, ok bool) {
	if len(name) > 3 && strings.EqualFold(name[:3], "chr") {
		name = name[3:]
	}
	id, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseGenotype parses one GT subfield ("0|1", "0/1", ".|1", "1", ...).
func parseGenotype(gt string) (GenotypeCall, error) {
	var call GenotypeCall

	var a, b string
	if i := strings.IndexByte(gt, '|'); i >= 0 {
		a, b = gt[:i], gt[i+1:]
		call.Phased = true
	} else if i := strings.IndexByte(gt, '/'); i >= 0 {
		a, b = gt[:i], gt[i+1:]
	} else {
		// single allele entry: haploid sample
		call.Haploid = true
		a, b = gt, ""
	}

	var err error
	call.A1, call.Missing1, err = parseAllele(a)
	if err != nil {
		return call, err
	}
	if !call.Haploid {
		call.A2, call.Missing2, err = parseAllele(b)
		if err != nil {
			return call, err
		}
	}
	return call, nil
}

func parseAllele(s string) (idx int8, missing bool, err error) {
	if s == "." {
		return 0, true, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return int8(n), false, nil
}
