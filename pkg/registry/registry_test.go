package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Order(t *testing.T) {
	r := New()
	r.RegisterGlobal(Descriptor{Name: "api_key", Required: true})
	r.RegisterGlobal(Descriptor{Name: "user_id", Kind: Integer})
	r.Register("items", Descriptor{Name: "limit", Kind: Integer})
	r.Register("items", Descriptor{Name: "tag", Multiplicity: ZeroOrMore})

	names := func(ds []Descriptor) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Equal(t, []string{"limit", "tag"}, names(r.Describe("items")))
	assert.Equal(t, []string{"api_key", "user_id"}, names(r.Globals()))
	assert.Equal(t, []string{"api_key", "user_id", "limit", "tag"}, names(r.All("items")))
	assert.Empty(t, r.Describe("unknown"))
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New()
	r.Register("items", Descriptor{Name: "limit"})
	assert.Panics(t, func() {
		r.Register("items", Descriptor{Name: "limit"})
	})

	// Same name on a different command is fine.
	assert.NotPanics(t, func() {
		r.Register("collections", Descriptor{Name: "limit"})
	})
}

func TestRegister_GlobalShadowPanics(t *testing.T) {
	r := New()
	r.RegisterGlobal(Descriptor{Name: "indent"})
	assert.Panics(t, func() {
		r.RegisterGlobal(Descriptor{Name: "indent"})
	})
	assert.Panics(t, func() {
		r.Register("items", Descriptor{Name: "indent"})
	})
}

func TestDescriptor_Names(t *testing.T) {
	d := Descriptor{Name: "item_type"}
	require.Equal(t, "item-type", d.ExternalName())
	require.Equal(t, "ITEM_TYPE", d.EnvSuffix())
}
