package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/repository"
)

// Stdio is the path meaning standard input or standard output
const Stdio = "-"

// NewWriter picks the output format from the file extension:
// .jsonl, .ndjson and "-" write JSON lines, anything else writes parquet
func NewWriter(filename string) (repository.RecordWriter, error) {
	if filename == Stdio {
		return NewJSONLWriter(os.Stdout), nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jsonl", ".ndjson":
		file, err := os.Create(filename)
		if err != nil {
			return nil, err
		}
		return NewJSONLWriter(file), nil
	default:
		return NewParquetWriter(filename)
	}
}

// JSONLWriter implements repository.RecordWriter, one JSON object per line
type JSONLWriter struct {
	out     io.Writer
	buf     *bufio.Writer
	encoder *json.Encoder
}

// NewJSONLWriter creates a writer on out. Close closes out unless it is os.Stdout.
func NewJSONLWriter(out io.Writer) *JSONLWriter {
	buf := bufio.NewWriter(out)
	return &JSONLWriter{
		out:     out,
		buf:     buf,
		encoder: json.NewEncoder(buf),
	}
}

// WriteBatch writes all records in order
func (w *JSONLWriter) WriteBatch(records []entity.DomainRecord) error {
	for i := range records {
		if err := w.encoder.Encode(&records[i]); err != nil {
			return fmt.Errorf("jsonl: encode %s: %w", records[i].Domain, err)
		}
	}
	return w.buf.Flush()
}

// Close closes the writer
func (w *JSONLWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if closer, ok := w.out.(io.Closer); ok && w.out != os.Stdout {
		return closer.Close()
	}
	return nil
}
