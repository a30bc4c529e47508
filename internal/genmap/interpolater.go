// Package genmap supplies genetic-distance coordinates for physical
// positions, loaded from a recombination map.
package genmap

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Mapper converts a (chromosome, position) pair to a genetic-distance
// coordinate in centimorgans. Implementations must be deterministic and
// monotonically non-decreasing in position within a chromosome.
type Mapper interface {
	Interp(chrom, pos int) (float64, error)
}

// chromMap holds one chromosome's map points, sorted by position.
type chromMap struct {
	pos []int
	cm  []float64
}

// Interpolater linearly interpolates genetic distance between the points of
// a recombination map. Positions before the first point interpolate toward
// the origin; positions after the last point clamp to the last value.
type Interpolater struct {
	byChrom map[int]*chromMap
}

// Load reads a genetic map in the standard four-column text format
// ("chr position rate(cM/Mb) map(cM)", one header line, optionally
// gzip-compressed) and returns an Interpolater over its points.
func Load(path string) (*Interpolater, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genetic map: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, fmt.Errorf("read genetic map: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek genetic map: %w", err)
	}
	if buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	return parse(r)
}

func parse(r io.Reader) (*Interpolater, error) {
	ip := &Interpolater{byChrom: make(map[int]*chromMap)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		chrom, ok := parseChrom(fields[0])
		if !ok {
			if lineNo == 1 {
				continue // header line
			}
			return nil, fmt.Errorf("genetic map line %d: bad chromosome %q", lineNo, fields[0])
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("genetic map line %d: bad position %q", lineNo, fields[1])
		}
		cm, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("genetic map line %d: bad map value %q", lineNo, fields[3])
		}

		ip.Add(chrom, pos, cm)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read genetic map: %w", err)
	}
	if len(ip.byChrom) == 0 {
		return nil, fmt.Errorf("genetic map contains no usable points")
	}
	return ip, nil
}

// New returns an empty Interpolater; points are added with Add.
func New() *Interpolater {
	return &Interpolater{byChrom: make(map[int]*chromMap)}
}

// Add appends one map point. Points must be added in increasing position
// order within each chromosome.
func (ip *Interpolater) Add(chrom, pos int, cm float64) {
	cmap := ip.byChrom[chrom]
	if cmap == nil {
		cmap = &chromMap{}
		ip.byChrom[chrom] = cmap
	}
	cmap.pos = append(cmap.pos, pos)
	cmap.cm = append(cmap.cm, cm)
}

// Interp returns the genetic-distance coordinate (cM) for a position.
// An unknown chromosome is an error; the pipeline treats it as fatal.
func (ip *Interpolater) Interp(chrom, pos int) (float64, error) {
	cmap := ip.byChrom[chrom]
	if cmap == nil {
		return 0, fmt.Errorf("genetic map has no points for chromosome %d", chrom)
	}

	i := sort.SearchInts(cmap.pos, pos)
	if i < len(cmap.pos) && cmap.pos[i] == pos {
		return cmap.cm[i], nil
	}
	if i == len(cmap.pos) {
		return cmap.cm[len(cmap.cm)-1], nil
	}
	if i == 0 {
		// interpolate toward the origin below the first map point
		return cmap.cm[0] * float64(pos) / float64(cmap.pos[0]), nil
	}

	p0, p1 := cmap.pos[i-1], cmap.pos[i]
	c0, c1 := cmap.cm[i-1], cmap.cm[i]
	frac := float64(pos-p0) / float64(p1-p0)
	return c0 + frac*(c1-c0), nil
}

// Chromosomes returns the chromosome ids present in the map, sorted.
func (ip *Interpolater) Chromosomes() []int {
	chroms := make([]int, 0, len(ip.byChrom))
	for c := range ip.byChrom {
		chroms = append(chroms, c)
	}
	sort.Ints(chroms)
	return chroms
}

// Points returns the (pos, cM) points of one chromosome in position order.
func (ip *Interpolater) Points(chrom int) (pos []int, cm []float64) {
	cmap := ip.byChrom[chrom]
	if cmap == nil {
		return nil, nil
	}
	return cmap.pos, cmap.cm
}

func parseChrom(name string) (int, bool) {
	if len(name) > 3 && strings.EqualFold(name[:3], "chr") {
		name = name[3:]
	}
	id, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return id, true
}
