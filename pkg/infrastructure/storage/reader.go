package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/WangYihang/Domain-Funnel/pkg/domain"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/repository"
	"go.uber.org/zap"
)

// Format is an input file format
type Format string

const (
	FormatText    Format = "text"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// DetectFormat picks the input format from the file extension
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatText
	}
}

// ReadStats describes what the reader kept and dropped. Only rows without a
// domain and unparseable lines are dropped; irregular names and duplicates
// are kept and counted.
type ReadStats struct {
	Rows       int
	Kept       int
	Invalid    int
	Irregular  int
	Duplicates int
}

// Reader implements repository.DomainReader
type Reader struct {
	name    string
	format  Format
	in      io.Reader
	closer  io.Closer
	file    *os.File
	cleaner *domain.Cleaner
	stats   ReadStats
	log     *zap.Logger
}

var _ repository.DomainReader = (*Reader)(nil)

// OpenReader opens filename, or standard input for "-"
func OpenReader(filename string, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{
		name:    filename,
		cleaner: domain.NewCleaner(),
		log:     logger.Named("input"),
	}

	if filename == Stdio {
		r.format = FormatText
		r.in = os.Stdin
		return r, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	r.format = DetectFormat(filename)
	r.in = file
	r.file = file
	r.closer = file
	return r, nil
}

// NewReader reads text or JSON lines from an in-memory source
func NewReader(in io.Reader, format Format, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		name:    "reader",
		format:  format,
		in:      in,
		cleaner: domain.NewCleaner(),
		log:     logger.Named("input"),
	}
}

// ReadAll returns every non-empty domain in input order, as spelled in the
// input apart from surrounding whitespace. Duplicates are kept and only
// counted.
func (r *Reader) ReadAll() ([]string, error) {
	var raw []string
	var malformed int
	var err error

	switch r.format {
	case FormatParquet:
		if r.file == nil {
			return nil, fmt.Errorf("input %s: parquet needs a seekable file", r.name)
		}
		raw, err = readParquetRows(r.file)
	case FormatJSONL:
		raw, malformed, err = readJSONLRows(r.in, r.log)
	default:
		raw, err = readTextRows(r.in)
	}
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", r.name, err)
	}

	filter := NewBloomFilter(Config{Size: uint(len(raw)), FalsePositiveRate: 0.001})
	domains := make([]string, 0, len(raw))
	r.stats = ReadStats{Rows: len(raw) + malformed, Invalid: malformed}
	for _, row := range raw {
		d, ok := r.cleaner.Clean(row)
		if !ok {
			r.stats.Invalid++
			continue
		}
		if !r.cleaner.IsRegular(d) {
			r.stats.Irregular++
			r.log.Debug("irregular domain kept", zap.String("domain", d))
		}
		if filter.TestAndAdd(r.cleaner.Key(d)) {
			r.stats.Duplicates++
		}
		domains = append(domains, d)
	}
	r.stats.Kept = len(domains)
	return domains, nil
}

// Stats returns counters of the last ReadAll
func (r *Reader) Stats() ReadStats {
	return r.stats
}

// Format returns the detected input format
func (r *Reader) Format() Format {
	return r.format
}

// Close releases the input file
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func newLineScanner(in io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return scanner
}

// readTextRows reads one domain per line, skipping blanks and # comments
func readTextRows(in io.Reader) ([]string, error) {
	var rows []string
	scanner := newLineScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// readJSONLRows reads the domain field of one JSON object per line. Objects
// without a domain yield an empty row; lines that do not parse are skipped
// and counted.
func readJSONLRows(in io.Reader, log *zap.Logger) ([]string, int, error) {
	var rows []string
	malformed := 0
	scanner := newLineScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var row struct {
			Domain string `json:"domain"`
		}
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			malformed++
			log.Debug("skipping malformed line", zap.Int("line", line), zap.Error(err))
			continue
		}
		rows = append(rows, row.Domain)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return rows, malformed, nil
}
