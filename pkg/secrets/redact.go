// Package secrets removes credential values from anything bibkit prints.
package secrets

import "strings"

// Mask is the replacement written in place of a redacted value.
const Mask = "***"

// Redactor replaces a fixed set of secret values wherever they occur in
// output or error text. It is built once per invocation from the resolved
// credentials and is read-only afterwards.
type Redactor struct {
	secrets []string
}

// NewRedactor returns a redactor for the given values. Empty values are
// ignored so an unauthenticated invocation redacts nothing.
func NewRedactor(values ...string) *Redactor {
	r := &Redactor{}
	for _, v := range values {
		if v != "" {
			r.secrets = append(r.secrets, v)
		}
	}
	return r
}

// Redact returns s with every known secret replaced by Mask.
func (r *Redactor) Redact(s string) string {
	if r == nil {
		return s
	}
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, Mask)
	}
	return s
}

// RedactBytes is Redact for raw payloads.
func (r *Redactor) RedactBytes(b []byte) []byte {
	if r == nil || len(r.secrets) == 0 {
		return b
	}
	return []byte(r.Redact(string(b)))
}
