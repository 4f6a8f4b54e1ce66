package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloomFilter_TestAndAdd(t *testing.T) {
	filter := NewBloomFilter(Config{
		Size:              1000,
		FalsePositiveRate: 0.01,
	})

	if filter.TestAndAdd("example.com") {
		t.Error("Filter should not contain example.com initially")
	}
	if !filter.TestAndAdd("example.com") {
		t.Error("Filter should contain example.com after the first add")
	}
}

func TestBloomFilter_ZeroConfig(t *testing.T) {
	filter := NewBloomFilter(Config{})
	assert.False(t, filter.TestAndAdd("a.com"))
	assert.True(t, filter.TestAndAdd("a.com"))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"domains.txt", FormatText},
		{"domains", FormatText},
		{"domains.JSONL", FormatJSONL},
		{"domains.ndjson", FormatJSONL},
		{"domains.parquet", FormatParquet},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name); got != tt.expected {
			t.Errorf("DetectFormat(%q) = %s, want %s", tt.name, got, tt.expected)
		}
	}
}

func TestReader_Text(t *testing.T) {
	input := strings.Join([]string{
		"# seed list",
		"Example.COM",
		"",
		"  sub.example.org.  ",
		"not a domain",
		"example.com",
	}, "\n")

	r := NewReader(strings.NewReader(input), FormatText, nil)
	domains, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Example.COM", "sub.example.org.", "not a domain", "example.com"}, domains)
	assert.Equal(t, ReadStats{Rows: 4, Kept: 4, Irregular: 1, Duplicates: 1}, r.Stats())
	assert.NoError(t, r.Close())
}

func TestReader_KeepsEveryNamedRow(t *testing.T) {
	rows := []string{"Example.COM", "münchen.de", "localhost", "example.org"}

	r := NewReader(strings.NewReader(strings.Join(rows, "\n")+"\n"), FormatText, nil)
	domains, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, rows, domains)
	assert.Equal(t, ReadStats{Rows: 4, Kept: 4, Irregular: 2}, r.Stats())
}

func TestReader_JSONL(t *testing.T) {
	input := `{"domain":"a.example.com","rank":1}
{"domain":""}
{broken

{"domain":"B.example.com"}
{"domain":"  "}
`
	r := NewReader(strings.NewReader(input), FormatJSONL, nil)
	domains, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "B.example.com"}, domains)
	assert.Equal(t, ReadStats{Rows: 5, Kept: 2, Invalid: 3}, r.Stats())
}

func TestOpenReader_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.parquet")
	require.NoError(t, parquet.WriteFile(path, []InputRow{
		{Domain: "one.example.com"},
		{Domain: ""},
		{Domain: "two.example.com"},
	}))

	r, err := OpenReader(path, nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, FormatParquet, r.Format())
	domains, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"one.example.com", "two.example.com"}, domains)
	assert.Equal(t, 1, r.Stats().Invalid)
}

func TestOpenReader_Missing(t *testing.T) {
	_, err := OpenReader(filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Error(t, err)
}

func sampleRecords() []entity.DomainRecord {
	failed := entity.NewRecord("no-dns.test")

	dnsOnly := entity.NewRecord("dns-only.test")
	dnsOnly.SetDNS(entity.Resolution{IPs: []string{"192.0.2.1", "192.0.2.2"}})

	full := entity.NewRecord("example-ok.test")
	full.SetDNS(entity.Resolution{IPs: []string{"192.0.2.10"}})
	full.SetHTTP(entity.Reachability{FinalURL: "https://example-ok.test/", StatusCode: 200, UsedHTTPS: true})
	full.SetText(entity.Text{Body: strings.Repeat("x", 250)})

	return []entity.DomainRecord{failed, dnsOnly, full}
}

func TestParquetWriter_WriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	w, err := NewWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteBatch(sampleRecords()))
	assert.Error(t, w.WriteBatch(nil), "a writer accepts a single batch")
	require.NoError(t, w.Close())

	rows, err := parquet.ReadFile[OutputRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "no-dns.test", rows[0].Domain)
	assert.Equal(t, "fail", rows[0].Stage)
	assert.Nil(t, rows[0].DNSIPs)
	assert.Nil(t, rows[0].FinalURL)
	assert.Nil(t, rows[0].StatusCode)
	assert.Nil(t, rows[0].HomepageText)

	require.NotNil(t, rows[1].DNSIPs)
	assert.Equal(t, "192.0.2.1,192.0.2.2", *rows[1].DNSIPs)
	assert.Equal(t, "dns", rows[1].Stage)
	assert.Nil(t, rows[1].FinalURL)

	require.NotNil(t, rows[2].StatusCode)
	assert.Equal(t, int32(200), *rows[2].StatusCode)
	assert.True(t, rows[2].UsedHTTPS)
	assert.Equal(t, "text", rows[2].Stage)
	require.NotNil(t, rows[2].HomepageText)
	assert.Len(t, *rows[2].HomepageText, 250)
}

func TestJSONLWriter_WriteBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.IsType(t, &JSONLWriter{}, w)

	require.NoError(t, w.WriteBatch(sampleRecords()))
	require.NoError(t, w.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)

	assert.Equal(t, "no-dns.test", lines[0]["domain"])
	assert.Nil(t, lines[0]["dns_ips"])
	assert.Nil(t, lines[0]["status_code"])
	assert.Contains(t, lines[0], "homepage_text", "absent fields are written as null")
	assert.Equal(t, []any{"192.0.2.1", "192.0.2.2"}, lines[1]["dns_ips"])
	assert.Equal(t, float64(200), lines[2]["status_code"])
}
