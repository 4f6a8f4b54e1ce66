package storage

import (
	"fmt"
	"os"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/parquet-go/parquet-go"
)

// InputRow is the parquet input schema; other columns are ignored
type InputRow struct {
	Domain string `parquet:"domain"`
}

// OutputRow is the parquet output schema. Absent values are null.
type OutputRow struct {
	Domain       string  `parquet:"domain"`
	HasDNS       bool    `parquet:"has_dns"`
	DNSIPs       *string `parquet:"dns_ips"`
	HTTPOK       bool    `parquet:"http_ok"`
	FinalURL     *string `parquet:"final_url"`
	StatusCode   *int32  `parquet:"status_code"`
	UsedHTTPS    bool    `parquet:"used_https"`
	TextOK       bool    `parquet:"text_ok"`
	HomepageText *string `parquet:"homepage_text"`
	Stage        string  `parquet:"stage,dict"`
}

// NewOutputRow flattens a record into the parquet schema
func NewOutputRow(rec *entity.DomainRecord) OutputRow {
	row := OutputRow{
		Domain:       rec.Domain,
		HasDNS:       rec.HasDNS,
		DNSIPs:       rec.JoinedIPs(),
		HTTPOK:       rec.HTTPOK,
		FinalURL:     rec.FinalURL,
		UsedHTTPS:    rec.UsedHTTPS,
		TextOK:       rec.TextOK,
		HomepageText: rec.HomepageText,
		Stage:        string(rec.Stage),
	}
	if rec.StatusCode != nil {
		code := int32(*rec.StatusCode)
		row.StatusCode = &code
	}
	return row
}

// ParquetWriter implements repository.RecordWriter with zstd-compressed parquet
type ParquetWriter struct {
	file    *os.File
	written bool
}

// NewParquetWriter creates the output file
func NewParquetWriter(filename string) (*ParquetWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &ParquetWriter{file: file}, nil
}

// WriteBatch writes every record as one parquet file
func (w *ParquetWriter) WriteBatch(records []entity.DomainRecord) error {
	if w.written {
		return fmt.Errorf("parquet: batch already written to %s", w.file.Name())
	}
	w.written = true

	rows := make([]OutputRow, len(records))
	for i := range records {
		rows[i] = NewOutputRow(&records[i])
	}

	pw := parquet.NewGenericWriter[OutputRow](w.file, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("parquet: write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	return nil
}

// Close closes the writer
func (w *ParquetWriter) Close() error {
	return w.file.Close()
}

// readParquetRows reads the domain column of a parquet file
func readParquetRows(file *os.File) ([]string, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	rows, err := parquet.Read[InputRow](file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parquet: read %s: %w", file.Name(), err)
	}

	domains := make([]string, len(rows))
	for i, row := range rows {
		domains[i] = row.Domain
	}
	return domains, nil
}
