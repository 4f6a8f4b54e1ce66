package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/WangYihang/Domain-Funnel/pkg/application"
	"github.com/WangYihang/Domain-Funnel/pkg/domain/entity"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs_Defaults(t *testing.T) {
	cfg, err := ParseArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, "domains.txt", cfg.InputFile)
	assert.Equal(t, "domains.parquet", cfg.OutputFile)
	assert.Equal(t, 100, cfg.LogInterval)
	assert.Equal(t, 200, cfg.TextMin)
	assert.Equal(t, 10000, cfg.TextMax)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.DNSConcurrency)
	assert.Equal(t, 20, cfg.HTTPConcurrency)
	assert.Equal(t, 10, cfg.TextConcurrency)
	assert.Equal(t, "127.0.0.1:53", cfg.Resolver)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, int64(10485760), cfg.MaxResponseSize)
	assert.Equal(t, 1, cfg.Pipeline)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.VerifyTLS)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestParseArgs_ResolverPort(t *testing.T) {
	cfg, err := ParseArgs([]string{"--resolver", "9.9.9.9"})
	require.NoError(t, err)
	assert.Equal(t, "9.9.9.9:53", cfg.Resolver)

	cfg, err = ParseArgs([]string{"--resolver", "10.0.0.1:5353"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:5353", cfg.Resolver)
}

func TestParseArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero interval", []string{"--log-interval", "0"}},
		{"max below min", []string{"--text-min", "300", "--text-max", "100"}},
		{"zero timeout", []string{"--timeout", "0"}},
		{"zero pipeline", []string{"--pipeline", "0"}},
		{"zero dns concurrency", []string{"--dns-concurrency", "0"}},
		{"negative redirects", []string{"--max-redirects", "-1"}},
		{"dashboard with progress", []string{"--dashboard", "--progress"}},
		{"unknown level", []string{"--log-level", "trace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgs_QuietAndVersion(t *testing.T) {
	cfg, err := ParseArgs([]string{"-q", "--dashboard", "--progress"})
	require.NoError(t, err)
	assert.False(t, cfg.ShowDashboard)
	assert.False(t, cfg.ShowProgress)

	cfg, err = ParseArgs([]string{"-v", "--pipeline", "0"})
	require.NoError(t, err)
	assert.True(t, cfg.Version)
}

func TestAssembler_LoadAndWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(in, []byte("# seed\nExample.COM.\n\nnot a domain\nexample.com\nfoo.org\n"), 0o644))

	cfg, err := ParseArgs([]string{"-i", in, "-o", out})
	require.NoError(t, err)
	a := NewAssembler(cfg, nil)

	input, err := a.LoadInput()
	require.NoError(t, err)
	assert.Equal(t, []string{"Example.COM.", "not a domain", "example.com", "foo.org"}, input.Domains)
	assert.Equal(t, 0, input.Stats.Invalid)
	assert.Equal(t, 1, input.Stats.Irregular)
	assert.Equal(t, 1, input.Stats.Duplicates)

	sink := application.NewSink(len(input.Domains))
	for _, d := range input.Domains {
		sink.Append(entity.NewRecord(d))
	}
	require.NoError(t, a.WriteOutput(sink))

	records := readJSONL(t, out)
	require.Len(t, records, 4)
	assert.Equal(t, "Example.COM.", records[0].Domain)
	assert.Equal(t, "foo.org", records[3].Domain)
	assert.Equal(t, entity.StageFail, records[3].Stage)
}

func TestAssembler_MissingInput(t *testing.T) {
	cfg, err := ParseArgs([]string{"-i", filepath.Join(t.TempDir(), "missing.txt")})
	require.NoError(t, err)
	_, err = NewAssembler(cfg, nil).LoadInput()
	assert.Error(t, err)
}

func TestAssembler_EndToEnd(t *testing.T) {
	page := "<html><head><script>var x = 1;</script></head><body><p>" +
		strings.Repeat("alive and well ", 30) + "</p></body></html>"
	web := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, page)
	}))
	defer web.Close()
	webAddr := web.Listener.Addr().String()

	resolver := startNameServer(t, map[string]string{
		"alive.test.":   "192.0.2.1",
		"offline.test.": "192.0.2.2",
	})

	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(in, []byte("alive.test\nmissing.test\noffline.test\nMissing.TEST\nmünchen.test\nlocalhost\n"), 0o644))

	cfg, err := ParseArgs([]string{"-i", in, "-o", out, "--resolver", resolver, "--timeout", "2000", "--pipeline", "2"})
	require.NoError(t, err)

	dialer := &net.Dialer{Timeout: time.Second}
	a := NewAssembler(cfg, nil).WithDialContext(func(ctx context.Context, network, addr string) (net.Conn, error) {
		if addr == "alive.test:80" {
			return dialer.DialContext(ctx, network, webAddr)
		}
		return nil, fmt.Errorf("dial %s: connection refused", addr)
	})

	input, err := a.LoadInput()
	require.NoError(t, err)
	pipeline, err := a.AssembleFunnel()
	require.NoError(t, err)
	pipeline.Recorder.SetTotal(len(input.Domains))

	records, err := pipeline.Funnel.Run(context.Background(), input.Domains)
	require.NoError(t, err)
	require.Len(t, records, 6)
	require.NoError(t, a.WriteOutput(pipeline.Funnel.Sink()))

	got := readJSONL(t, out)
	require.Len(t, got, 6)
	for i, d := range input.Domains {
		assert.Equal(t, d, got[i].Domain)
	}

	assert.Equal(t, "alive.test", got[0].Domain)
	assert.Equal(t, entity.StageText, got[0].Stage)
	assert.Equal(t, []string{"192.0.2.1"}, got[0].DNSIPs)
	require.NotNil(t, got[0].FinalURL)
	assert.Equal(t, "http://alive.test", *got[0].FinalURL)
	assert.False(t, got[0].UsedHTTPS)
	require.NotNil(t, got[0].HomepageText)
	assert.NotContains(t, *got[0].HomepageText, "var x")

	assert.Equal(t, entity.StageFail, got[1].Stage)
	assert.Nil(t, got[1].DNSIPs)

	assert.Equal(t, entity.StageDNS, got[2].Stage)
	assert.Nil(t, got[2].FinalURL)
	assert.Nil(t, got[2].StatusCode)

	for _, rec := range got[3:] {
		assert.Equal(t, entity.StageFail, rec.Stage, rec.Domain)
		assert.False(t, rec.HasDNS, rec.Domain)
	}
	assert.Equal(t, []string{"Missing.TEST", "münchen.test", "localhost"},
		[]string{got[3].Domain, got[4].Domain, got[5].Domain})

	snap := pipeline.Funnel.Collector().Last()
	require.NotNil(t, snap)
	assert.True(t, snap.Final)
	assert.Equal(t, int64(6), snap.Processed)
}

// startNameServer answers A queries from zone and NXDOMAIN otherwise
func startNameServer(t *testing.T, zone map[string]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		name := req.Question[0].Name
		if ip, ok := zone[name]; ok {
			m.Answer = append(m.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
				A:   net.ParseIP(ip),
			})
		} else {
			m.SetRcode(req, dns.RcodeNameError)
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func readJSONL(t *testing.T, filename string) []entity.DomainRecord {
	t.Helper()
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	var records []entity.DomainRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var rec entity.DomainRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}
