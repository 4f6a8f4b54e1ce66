package domain

import "strings"

// Validator validates domains
type Validator struct{}

// NewValidator creates validator
func NewValidator() *Validator {
	return &Validator{}
}

// IsValid checks domain syntax: at most 253 chars, at least two labels,
// each label 1-63 chars of letters, digits and inner hyphens.
func (v *Validator) IsValid(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, ch := range label {
			if !isAlphanumeric(ch) && ch != '-' && ch != '_' {
				return false
			}
		}
	}
	return true
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Normalizer normalizes domains
type Normalizer struct{}

// NewNormalizer creates normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize lowercases the domain and strips a scheme, path, port and
// trailing dot so that "HTTPS://Example.COM./" becomes "example.com".
func (n *Normalizer) Normalize(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.LastIndex(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	return strings.TrimSuffix(domain, ".")
}

// Cleaner prepares input rows. A row keeps its spelling apart from
// surrounding whitespace; names that would not resolve still reach the
// funnel and fail there.
type Cleaner struct {
	validator  *Validator
	normalizer *Normalizer
}

// NewCleaner creates cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{validator: NewValidator(), normalizer: NewNormalizer()}
}

// Clean trims raw and reports whether a domain is left
func (c *Cleaner) Clean(raw string) (string, bool) {
	d := strings.TrimSpace(raw)
	return d, d != ""
}

// Key returns the normalized form used to spot duplicates
func (c *Cleaner) Key(domain string) string {
	return c.normalizer.Normalize(domain)
}

// IsRegular reports whether the normalized name is a syntactically valid
// ASCII host name
func (c *Cleaner) IsRegular(domain string) bool {
	return c.validator.IsValid(c.Key(domain))
}
