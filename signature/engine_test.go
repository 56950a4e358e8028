package signature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	engine, err := Generate()
	require.NoError(t, err)

	payload := []byte(`{"serialNumber":"A123"}`)
	token, err := engine.Sign(payload)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	valid, err := engine.Verify(payload, token)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestVerifyTamperedPayload(t *testing.T) {
	engine, err := Generate()
	require.NoError(t, err)

	payload := []byte(`{"serialNumber":"A123"}`)
	token, err := engine.Sign(payload)
	require.NoError(t, err)

	// A mismatch is a normal false, never an error.
	valid, err := engine.Verify([]byte(`{"serialNumber":"A124"}`), token)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyMalformedToken(t *testing.T) {
	engine, err := Generate()
	require.NoError(t, err)

	valid, err := engine.Verify([]byte("payload"), "not-base64!!!")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyForeignKey(t *testing.T) {
	signer, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)

	payload := []byte("payload")
	token, err := signer.Sign(payload)
	require.NoError(t, err)

	valid, err := other.Verify(payload, token)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestEngineWithoutKeys(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.Sign([]byte("payload"))
	assert.ErrorIs(t, err, ErrNoPrivateKey)

	_, err = engine.Verify([]byte("payload"), "token")
	assert.ErrorIs(t, err, ErrNoPublicKey)
}

func TestLoadOrCreatePersistsKeyPair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "signing.pem")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	payload := []byte("payload")
	token, err := first.Sign(payload)
	require.NoError(t, err)

	// A restart loads the same pair, so old signatures stay valid.
	second, err := LoadOrCreate(path)
	require.NoError(t, err)
	valid, err := second.Verify(payload, token)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestLoadOrCreateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem file"), 0600))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}
