package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactor(t *testing.T) {
	r := NewRedactor("s3cr3t-key", "")

	assert.Equal(t, `{"key":"***"}`, r.Redact(`{"key":"s3cr3t-key"}`))
	assert.Equal(t, "no secrets here", r.Redact("no secrets here"))
	assert.Equal(t, []byte("key=***&x=1"), r.RedactBytes([]byte("key=s3cr3t-key&x=1")))
}

func TestRedactor_NilSafe(t *testing.T) {
	var r *Redactor
	assert.Equal(t, "anything", r.Redact("anything"))
}
