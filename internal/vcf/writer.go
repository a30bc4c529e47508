package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Write modes accepted by NewWriter, following the htslib convention.
const (
	WriteModePlain = "v" // uncompressed VCF
	WriteModeGzip  = "z" // gzip-compressed VCF
)

// Writer emits retained target records unchanged to an output VCF.
// Records are written in the order they are passed to Write.
type Writer struct {
	w       *bufio.Writer
	gz      *gzip.Writer
	file    *os.File
	records int
}

// NewWriter creates a passthrough writer for the given path and mode.
// A path of "-" writes to standard output.
func NewWriter(path, mode string) (*Writer, error) {
	var out io.Writer
	w := &Writer{}

	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create output vcf: %w", err)
		}
		w.file = file
		out = file
	}

	switch mode {
	case WriteModePlain:
	case WriteModeGzip:
		w.gz = gzip.NewWriter(out)
		out = w.gz
	default:
		if w.file != nil {
			w.file.Close()
		}
		return nil, fmt.Errorf("unknown vcf write mode %q", mode)
	}

	w.w = bufio.NewWriter(out)
	return w, nil
}

// WriteHeader writes the ## header lines followed by the #CHROM line.
// It must be called exactly once, before any Write call.
func (w *Writer) WriteHeader(header []string, chromLine string) error {
	for _, line := range header {
		if _, err := w.w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write vcf header: %w", err)
		}
	}
	if _, err := w.w.WriteString(chromLine + "\n"); err != nil {
		return fmt.Errorf("write vcf header: %w", err)
	}
	return nil
}

// Write emits the record's original line verbatim.
func (w *Writer) Write(rec *Record) error {
	if _, err := w.w.WriteString(rec.Line + "\n"); err != nil {
		return fmt.Errorf("write vcf record: %w", err)
	}
	w.records++
	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int {
	return w.records
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush output vcf: %w", err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return fmt.Errorf("close gzip stream: %w", err)
		}
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
