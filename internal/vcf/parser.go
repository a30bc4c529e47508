package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// RecordSource is the interface for ordered variant record streams consumed
// by the synchronizer. Implementations must yield records in increasing
// (chromosome, position) order.
type RecordSource interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the source and releases resources.
	Close() error
}

// Parser reads variant records from a VCF file.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	chromLine   string
	sampleNames []string

	// optional region restriction, honored before records are yielded
	regionChrom      int
	regionStart      int
	regionEnd        int
	skippedNotChrom  int
	skippedNotRegion int
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}
	if _, err = file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g. stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetRegion restricts the parser to records on the given chromosome with
// start <= pos <= end. Records outside the region are skipped and counted.
// A zero end means no upper bound.
func (p *Parser) SetRegion(chrom, start, end int) {
	p.regionChrom = chrom
	p.regionStart = start
	p.regionEnd = end
}

// parseHeader reads and stores VCF header lines through the #CHROM line.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.chromLine = line
			fields := strings.Split(line, "\t")
			// sample names follow the 9 fixed columns
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
			}
			return nil
		}

		return &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("unexpected header line: %q", line),
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next record from the VCF file, honoring any region
// restriction. Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read record line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		rec, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}

		if p.regionChrom != 0 {
			if rec.ChromNum != p.regionChrom {
				p.skippedNotChrom++
				continue
			}
			if rec.Pos < p.regionStart || (p.regionEnd > 0 && rec.Pos > p.regionEnd) {
				p.skippedNotRegion++
				continue
			}
		}

		return rec, nil
	}
}

// parseLine parses a single VCF data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 10 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 10 columns (FORMAT + samples), found %d", len(fields)),
		}
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	rec := &Record{
		Chrom: fields[0],
		Pos:   pos,
		ID:    fields[2],
		Ref:   fields[3],
		Line:  line,
	}
	rec.ChromNum, _ = ParseChrom(fields[0])

	if fields[4] != "." && fields[4] != "" {
		rec.Alts = strings.Split(fields[4], ",")
	}

	gtIndex := gtFieldIndex(fields[8])
	if gtIndex < 0 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: "FORMAT column has no GT field",
		}
	}

	rec.Calls = make([]GenotypeCall, 0, len(fields)-9)
	for _, col := range fields[9:] {
		gt := col
		if gtIndex > 0 || strings.IndexByte(col, ':') >= 0 {
			parts := strings.Split(col, ":")
			if gtIndex >= len(parts) {
				return nil, &ParseError{
					Line:    p.lineNumber,
					Message: fmt.Sprintf("sample column %q missing GT subfield", col),
				}
			}
			gt = parts[gtIndex]
		}

		call, err := parseGenotype(gt)
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid genotype %q: %v", gt, err),
			}
		}
		rec.Calls = append(rec.Calls, call)
	}

	return rec, nil
}

// gtFieldIndex returns the position of GT within a FORMAT column.
func gtFieldIndex(format string) int {
	for i, key := range strings.Split(format, ":") {
		if key == "GT" {
			return i
		}
	}
	return -1
}

// Header returns the ## header lines.
func (p *Parser) Header() []string {
	return p.header
}

// ChromLine returns the #CHROM column header line.
func (p *Parser) ChromLine() string {
	return p.chromLine
}

// SampleNames returns sample names from the #CHROM header line.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// SkippedNotOnChrom returns the number of records skipped for being on a
// chromosome other than the region restriction's.
func (p *Parser) SkippedNotOnChrom() int {
	return p.skippedNotChrom
}

// SkippedNotInRegion returns the number of on-chromosome records skipped for
// falling outside the region bounds.
func (p *Parser) SkippedNotInRegion() int {
	return p.skippedNotRegion
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
