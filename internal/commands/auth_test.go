package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func runAuth(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newAuthCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestAuth_LoginStatusLogout(t *testing.T) {
	keyring.MockInit()

	out, err := runAuth(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no API key stored")

	out, err = runAuth(t, "login", "--key", "sekret-value")
	require.NoError(t, err)
	assert.Contains(t, out, "API key stored")

	stored, err := keyring.Get(keyringService, keyringUser)
	require.NoError(t, err)
	assert.Equal(t, "sekret-value", stored)

	// Status never prints the full key.
	out, err = runAuth(t, "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "sekret-value")
	assert.Contains(t, out, "sekr***")

	_, err = runAuth(t, "logout")
	require.NoError(t, err)
	_, err = keyring.Get(keyringService, keyringUser)
	assert.Error(t, err)
}

func TestAuth_LoginRequiresKey(t *testing.T) {
	keyring.MockInit()
	_, err := runAuth(t, "login")
	assert.Error(t, err)
}

func TestKeyringFallbackFeedsResolution(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(keyringService, keyringUser, "ring-key"))
	chdir(t, t.TempDir())

	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Biblib-API-Key")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	out := filepath.Join(t.TempDir(), "out.json")
	err := execute(t, "items",
		"--user-id", "7",
		"--base-url", server.URL,
		"--out", out,
	)
	require.NoError(t, err)
	assert.Equal(t, "ring-key", gotKey)
}
