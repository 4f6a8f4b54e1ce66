package entity

import "strings"

// Stage is the deepest funnel stage a domain completed
type Stage string

const (
	StageFail Stage = "fail"
	StageDNS  Stage = "dns"
	StageHTTP Stage = "http"
	StageText Stage = "text"
)

// Rank orders stages from fail (0) to text (3)
func (s Stage) Rank() int {
	switch s {
	case StageDNS:
		return 1
	case StageHTTP:
		return 2
	case StageText:
		return 3
	default:
		return 0
	}
}

// DomainRecord is the output unit, one per input domain.
// Nil pointers and a nil DNSIPs slice mean "absent": the stage owning the
// field was not reached or did not succeed.
type DomainRecord struct {
	Domain       string   `json:"domain"`
	HasDNS       bool     `json:"has_dns"`
	DNSIPs       []string `json:"dns_ips"`
	HTTPOK       bool     `json:"http_ok"`
	FinalURL     *string  `json:"final_url"`
	StatusCode   *int     `json:"status_code"`
	UsedHTTPS    bool     `json:"used_https"`
	TextOK       bool     `json:"text_ok"`
	HomepageText *string  `json:"homepage_text"`
	Stage        Stage    `json:"stage"`
}

// NewRecord returns a record for domain with every stage marked as not reached
func NewRecord(domain string) DomainRecord {
	return DomainRecord{Domain: domain, Stage: StageFail}
}

// SetDNS marks the resolve stage as passed
func (r *DomainRecord) SetDNS(res Resolution) {
	r.HasDNS = true
	r.DNSIPs = append([]string(nil), res.IPs...)
	r.Stage = StageDNS
}

// SetHTTP marks the probe stage as passed
func (r *DomainRecord) SetHTTP(res Reachability) {
	finalURL := res.FinalURL
	status := res.StatusCode
	r.HTTPOK = true
	r.FinalURL = &finalURL
	r.StatusCode = &status
	r.UsedHTTPS = res.UsedHTTPS
	r.Stage = StageHTTP
}

// SetText marks the extract stage as passed
func (r *DomainRecord) SetText(res Text) {
	body := res.Body
	r.TextOK = true
	r.HomepageText = &body
	r.Stage = StageText
}

// JoinedIPs returns the addresses joined by commas, or nil when absent
func (r *DomainRecord) JoinedIPs() *string {
	if r.DNSIPs == nil {
		return nil
	}
	joined := strings.Join(r.DNSIPs, ",")
	return &joined
}

// Consistent reports whether the boolean flags, optional fields and stage
// marker agree with each other.
func (r *DomainRecord) Consistent() bool {
	if r.Domain == "" {
		return false
	}
	if r.HasDNS != (len(r.DNSIPs) > 0) {
		return false
	}
	if r.HTTPOK != (r.FinalURL != nil) || r.HTTPOK != (r.StatusCode != nil) {
		return false
	}
	if !r.HTTPOK && r.UsedHTTPS {
		return false
	}
	if r.TextOK != (r.HomepageText != nil) {
		return false
	}
	if (r.HTTPOK && !r.HasDNS) || (r.TextOK && !r.HTTPOK) {
		return false
	}

	switch r.Stage {
	case StageText:
		return r.TextOK
	case StageHTTP:
		return r.HTTPOK && !r.TextOK
	case StageDNS:
		return r.HasDNS && !r.HTTPOK
	case StageFail:
		return !r.HasDNS
	}
	return false
}
